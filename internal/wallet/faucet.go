package wallet

import (
	"context"
	"fmt"
	"time"

	"github.com/ReneKroon/ttlcache/v2"
	"github.com/cockroachdb/errors"
	"golang.org/x/sync/singleflight"

	"wallet-sync/internal/chain/types"
)

// FaucetCounterparty is the counterparty recorded on simulated faucet deposits.
const FaucetCounterparty = "faucet"

// FundingSource tells where requested funds come from.
type FundingSource string

const (
	// FundingRemote means the faucet accepted the request; funds arrive with a later sync.
	FundingRemote FundingSource = "remote"
	// FundingLocal means the faucet failed and the funds were simulated locally.
	FundingLocal FundingSource = "local"
)

// FundingResult is the outcome of RequestTokens.
type FundingResult struct {
	Source FundingSource
	Amount types.Amount
	// TransactionID is the id of the simulated deposit for FundingLocal.
	TransactionID string
	// Err is the faucet failure that caused a local simulation.
	Err error
	// Deduplicated is set when the result was answered from an earlier identical request, either
	// cached, journaled or still running for another caller. The caller that ran it sees false.
	Deduplicated bool
}

func (r FundingResult) Simulated() bool {
	return r.Source == FundingLocal
}

// FundingJournal remembers faucet results per wallet, reset generation and amount.
type FundingJournal interface {
	// LastFunding returns the latest result recorded at or after since.
	LastFunding(walletID string, generation uint64, amount types.Amount, since time.Time) (FundingResult, bool, error)
	RecordFunding(walletID string, generation uint64, res FundingResult, at time.Time) error
}

// Faucet requests demo funds for the wallet of a Store.
type Faucet struct {
	gateway Gateway
	store   *Store
	options *Options

	inflight singleflight.Group
	recent   *ttlcache.Cache
}

// NewFaucet creates a Faucet. Close releases the dedupe cache.
func NewFaucet(gateway Gateway, store *Store, opts ...Option) (*Faucet, error) {
	f := &Faucet{
		gateway: gateway,
		store:   store,
		options: buildOptions(opts...),
	}

	if f.options.DedupeWindow > 0 {
		f.recent = ttlcache.NewCache()
		f.recent.SkipTTLExtensionOnHit(true)
		if err := f.recent.SetTTL(f.options.DedupeWindow); err != nil {
			return nil, errors.WithStack(err)
		}
	}
	return f, nil
}

// Close releases the dedupe cache.
func (f *Faucet) Close() error {
	if f.recent == nil {
		return nil
	}
	return f.recent.Close()
}

// RequestTokens asks the faucet for amount. On faucet failure the amount is credited locally
// as a confirmed simulated deposit and the result is tagged FundingLocal with the cause.
// A remote success never touches the local balance; the deposit shows up with the next sync.
// Identical requests within the dedupe window share one result. A reset of the store starts a
// new generation, so results from before the reset are never reused.
func (f *Faucet) RequestTokens(ctx context.Context, amount types.Amount) (FundingResult, error) {
	if !amount.IsPositive() {
		log.Warnf("RequestTokens: rejecting amount %s", amount)
		return FundingResult{}, errors.Wrapf(ErrInvalidAmount, "faucet amount %s", amount)
	}

	if f.recent == nil {
		return f.request(ctx, amount)
	}

	walletID, generation := f.store.WalletID(), f.store.Generation()
	key := fmt.Sprintf("%s/%d/%s", walletID, generation, amount)
	if cached, ok := f.cached(key); ok {
		log.Infof("RequestTokens: answering repeated request %s from cache", key)
		cached.Deduplicated = true
		return cached, nil
	}
	if recorded, ok := f.journaled(walletID, generation, amount); ok {
		log.Infof("RequestTokens: answering repeated request %s from the funding journal", key)
		f.remember(key, recorded)
		recorded.Deduplicated = true
		return recorded, nil
	}

	// the shared request outlives any single caller; every caller still gets its own cancellation
	var ran bool
	ch := f.inflight.DoChan(key, func() (interface{}, error) {
		ran = true
		res, err := f.request(context.WithoutCancel(ctx), amount)
		if err == nil {
			f.remember(key, res)
			f.record(walletID, generation, res)
		}
		return res, err
	})

	select {
	case r := <-ch:
		if r.Err != nil {
			return FundingResult{}, r.Err
		}
		res := r.Val.(FundingResult)
		res.Deduplicated = !ran
		return res, nil
	case <-ctx.Done():
		return FundingResult{}, errors.Wrap(ctx.Err(), "faucet request")
	}
}

func (f *Faucet) remember(key string, res FundingResult) {
	if err := f.recent.Set(key, res); err != nil {
		log.Warnf("RequestTokens: failed to remember request %s: %v", key, err)
	}
}

func (f *Faucet) journaled(walletID string, generation uint64, amount types.Amount) (FundingResult, bool) {
	if f.options.Journal == nil {
		return FundingResult{}, false
	}
	since := f.options.Clock().Add(-f.options.DedupeWindow)
	res, ok, err := f.options.Journal.LastFunding(walletID, generation, amount, since)
	if err != nil {
		log.Warnf("RequestTokens: failed to read funding journal: %v", err)
		return FundingResult{}, false
	}
	return res, ok
}

func (f *Faucet) record(walletID string, generation uint64, res FundingResult) {
	if f.options.Journal == nil {
		return
	}
	if err := f.options.Journal.RecordFunding(walletID, generation, res, f.options.Clock()); err != nil {
		log.Warnf("RequestTokens: failed to record funding of %s: %v", walletID, err)
	}
}

func (f *Faucet) request(ctx context.Context, amount types.Amount) (FundingResult, error) {
	walletID := f.store.WalletID()
	log.Infof("RequestTokens: requesting %s for %s", amount, walletID)

	var receipt types.FaucetReceipt
	err := callGateway(ctx, f.options.CallTimeout, func(ctx context.Context) (err error) {
		receipt, err = f.gateway.RequestFaucetTokens(ctx, walletID, amount)
		return err
	})
	if err == nil && !receipt.Accepted {
		reason := receipt.Error
		if reason == "" {
			reason = "request not accepted"
		}
		err = errors.Wrap(ErrFaucetUnavailable, reason)
	}

	switch {
	case err == nil:
		log.Infof("RequestTokens: faucet accepted %s for %s", amount, walletID)
		return FundingResult{Source: FundingRemote, Amount: amount}, nil
	case errors.Is(err, ErrWalletMissing), ctx.Err() != nil:
		return FundingResult{}, errors.Wrap(err, "faucet request")
	}

	log.Warnf("RequestTokens: faucet failed for %s, simulating locally: %v", walletID, err)
	tx := types.Transaction{
		ID:           f.options.NewID(),
		Type:         types.TxDeposit,
		Counterparty: FaucetCounterparty,
		Amount:       amount,
		Status:       types.TxConfirmed,
		Timestamp:    f.options.Clock(),
		Simulated:    true,
	}
	if _, creditErr := f.store.CreditLocal(amount, tx); creditErr != nil {
		log.Errorf("RequestTokens: local credit failed for %s: %v", walletID, creditErr)
		return FundingResult{}, errors.WithSecondaryError(creditErr, err)
	}

	return FundingResult{
		Source:        FundingLocal,
		Amount:        amount,
		TransactionID: tx.ID,
		Err:           err,
	}, nil
}

func (f *Faucet) cached(key string) (FundingResult, bool) {
	v, err := f.recent.Get(key)
	if err != nil {
		return FundingResult{}, false
	}
	res, ok := v.(FundingResult)
	return res, ok
}
