package repository

import (
	"errors"
	"time"

	"golang.org/x/xerrors"

	"wallet-sync/internal/chain/types"
	"wallet-sync/internal/models"
	"wallet-sync/internal/wallet"
)

// LastFunding 查询去重窗口内最近一次相同金额的水龙头请求
// 只匹配同一重置代次的记录，重置之前的结果不再复用
func (s *Store) LastFunding(walletID string, generation uint64, amount types.Amount, since time.Time) (wallet.FundingResult, bool, error) {
	var item models.FaucetRequest
	res := s.DB.Where("wallet_id = ? AND generation = ? AND amount = ? AND requested_at >= ?",
		walletID, generation, amount.String(), since.UnixNano()).
		Order("requested_at desc").Limit(1).Find(&item)
	if res.Error != nil {
		log.Errorf("LastFunding: failed to query faucet requests for %s: %v", walletID, res.Error)
		return wallet.FundingResult{}, false, res.Error
	}
	if res.RowsAffected == 0 {
		return wallet.FundingResult{}, false, nil
	}

	parsed, err := types.ParseAmount(item.Amount)
	if err != nil {
		return wallet.FundingResult{}, false, xerrors.Errorf("decoding faucet request %d: %w", item.ID, err)
	}
	result := wallet.FundingResult{
		Source:        wallet.FundingSource(item.Source),
		Amount:        parsed,
		TransactionID: item.TransactionID,
	}
	if item.Cause != "" {
		result.Err = errors.New(item.Cause)
	}
	log.Debugf("LastFunding: found %s request of %s for %s", item.Source, item.Amount, walletID)
	return result, true, nil
}

// RecordFunding 记录一次水龙头请求结果
func (s *Store) RecordFunding(walletID string, generation uint64, res wallet.FundingResult, at time.Time) error {
	item := &models.FaucetRequest{
		WalletID:      walletID,
		Generation:    generation,
		Amount:        res.Amount.String(),
		Source:        string(res.Source),
		TransactionID: res.TransactionID,
		RequestedAt:   at.UnixNano(),
	}
	if res.Err != nil {
		item.Cause = res.Err.Error()
	}
	if err := s.DB.Create(item).Error; err != nil {
		log.Errorf("RecordFunding: failed to record faucet request for %s: %v", walletID, err)
		return err
	}
	log.Debugf("RecordFunding: recorded %s request of %s for %s", item.Source, item.Amount, walletID)
	return nil
}

// PruneFunding 删除早于 before 的水龙头请求记录
func (s *Store) PruneFunding(before time.Time) (int64, error) {
	res := s.DB.Where("requested_at < ?", before.UnixNano()).Delete(&models.FaucetRequest{})
	if res.Error != nil {
		log.Errorf("PruneFunding: failed to prune faucet requests: %v", res.Error)
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

var _ wallet.FundingJournal = &Store{}
