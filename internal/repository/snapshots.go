package repository

import (
	"encoding/json"
	"errors"

	"golang.org/x/xerrors"
	"gorm.io/gorm"

	"wallet-sync/internal/models"
	"wallet-sync/internal/wallet"
)

// ErrSnapshotNotFound 指定钱包没有保存过快照
var ErrSnapshotNotFound = errors.New("wallet snapshot not found")

// SaveSnapshot 加密并保存钱包快照，已存在则覆盖
func (s *Store) SaveSnapshot(snap wallet.Snapshot) error {
	walletID := snap.Account.WalletID
	log.Debugf("SaveSnapshot: saving snapshot for wallet %s, seq %d", walletID, snap.AppliedSeq)

	raw, err := json.Marshal(snap)
	if err != nil {
		log.Errorf("SaveSnapshot: failed to marshal snapshot: %v", err)
		return err
	}
	// 钱包 ID 作为附加数据，快照不能被挪到其他钱包名下
	enc, err := s.sealer.Seal(raw, []byte(walletID))
	if err != nil {
		log.Errorf("SaveSnapshot: failed to encrypt snapshot: %v", err)
		return err
	}

	var existing models.WalletSnapshot
	if err = s.DB.Where("wallet_id = ?", walletID).First(&existing).Error; err == nil {
		existing.Address = snap.Account.Address
		existing.Network = snap.Status.Network
		existing.AppliedSeq = snap.AppliedSeq
		existing.EncryptedState = enc
		if err := s.DB.Save(&existing).Error; err != nil {
			log.Errorf("SaveSnapshot: failed to update snapshot: %v", err)
			return err
		}
		log.Debugf("SaveSnapshot: updated snapshot for %s", walletID)
		return nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Errorf("SaveSnapshot: database error when checking existing snapshot: %v", err)
		return err
	}

	item := &models.WalletSnapshot{
		WalletID:       walletID,
		Address:        snap.Account.Address,
		Network:        snap.Status.Network,
		AppliedSeq:     snap.AppliedSeq,
		EncryptedState: enc,
	}
	if err := s.DB.Create(item).Error; err != nil {
		log.Errorf("SaveSnapshot: failed to create snapshot: %v", err)
		return err
	}
	log.Infof("SaveSnapshot: created snapshot for %s", walletID)
	return nil
}

// LoadSnapshot 读取并解密钱包快照
func (s *Store) LoadSnapshot(walletID string) (wallet.Snapshot, error) {
	log.Debugf("LoadSnapshot: loading snapshot for wallet %s", walletID)

	var snap wallet.Snapshot
	item := &models.WalletSnapshot{}
	if err := s.DB.Where("wallet_id = ?", walletID).First(item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return snap, ErrSnapshotNotFound
		}
		log.Errorf("LoadSnapshot: failed to query snapshot for %s: %v", walletID, err)
		return snap, err
	}

	raw, err := s.sealer.Open(item.EncryptedState, []byte(walletID))
	if err != nil {
		log.Errorf("LoadSnapshot: failed to decrypt snapshot for %s: %v", walletID, err)
		return snap, xerrors.Errorf("decrypting snapshot of %s: %w", walletID, err)
	}
	if err := json.Unmarshal(raw, &snap); err != nil {
		return snap, xerrors.Errorf("decoding snapshot of %s: %w", walletID, err)
	}
	return snap, nil
}

// DeleteSnapshot 删除钱包快照及其水龙头请求记录，快照不存在时返回 ErrSnapshotNotFound
func (s *Store) DeleteSnapshot(walletID string) error {
	log.Infof("DeleteSnapshot: deleting snapshot for wallet %s", walletID)

	var affected int64
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("wallet_id = ?", walletID).Delete(&models.WalletSnapshot{})
		if res.Error != nil {
			return res.Error
		}
		affected = res.RowsAffected
		// 重新创建的钱包代次从 0 开始，旧记录必须一并删除
		return tx.Where("wallet_id = ?", walletID).Delete(&models.FaucetRequest{}).Error
	})
	if err != nil {
		log.Errorf("DeleteSnapshot: failed to delete snapshot for %s: %v", walletID, err)
		return err
	}
	if affected == 0 {
		return ErrSnapshotNotFound
	}
	return nil
}

// ListWallets 列出保存过快照的钱包（不解密状态）
func (s *Store) ListWallets() ([]models.WalletSnapshot, error) {
	var items []models.WalletSnapshot
	if err := s.DB.Select("id", "wallet_id", "address", "network", "applied_seq", "created_at", "updated_at").
		Order("updated_at desc").Find(&items).Error; err != nil {
		log.Errorf("ListWallets: failed to query snapshots: %v", err)
		return nil, err
	}
	log.Debugf("ListWallets: found %d wallets", len(items))
	return items, nil
}

var _ wallet.Persister = &Store{}
