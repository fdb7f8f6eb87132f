package wallet

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"

	"wallet-sync/internal/chain/types"
)

// SyncMode tells which strategy brought the store up to date.
type SyncMode string

const (
	SyncFull    SyncMode = "sync"
	SyncRefresh SyncMode = "refresh"
)

// Synchronizer reconciles a Store against the ledger gateway.
type Synchronizer struct {
	gateway Gateway
	store   *Store
	options *Options
}

// NewSynchronizer creates a Synchronizer writing into store.
func NewSynchronizer(gateway Gateway, store *Store, opts ...Option) *Synchronizer {
	return &Synchronizer{
		gateway: gateway,
		store:   store,
		options: buildOptions(opts...),
	}
}

// Sync fetches blockchain status, account and history and applies them in one reconciliation.
// It returns ErrWalletMissing when the gateway has no ledger wallet for the wallet id.
func (s *Synchronizer) Sync(ctx context.Context) error {
	seq := s.store.NextSequence()
	walletID := s.store.WalletID()
	log.Debugf("Sync: starting sync #%d for %s", seq, walletID)

	var status types.BlockchainStatus
	err := s.call(ctx, func(ctx context.Context) (err error) {
		status, err = s.gateway.GetWalletStatus(ctx, walletID)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrWalletMissing) {
			log.Warnf("Sync: no ledger wallet bound to %s", walletID)
		} else {
			log.Errorf("Sync: failed to get wallet status for %s: %v", walletID, err)
		}
		return errors.Wrap(err, "sync: wallet status")
	}

	var (
		account types.AccountInfo
		history []types.Transaction
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.call(gctx, func(ctx context.Context) (err error) {
			account, err = s.gateway.GetAccount(ctx, walletID)
			return errors.Wrap(err, "sync: account")
		})
	})
	g.Go(func() error {
		return s.call(gctx, func(ctx context.Context) (err error) {
			history, err = s.gateway.GetTransactionHistory(ctx, walletID)
			return errors.Wrap(err, "sync: transaction history")
		})
	})
	if err := g.Wait(); err != nil {
		log.Errorf("Sync: failed to fetch state for %s: %v", walletID, err)
		return err
	}

	lastBlock := account.LastBlockID
	if lastBlock == "" {
		lastBlock = status.LastBlockID
	}
	stats, err := s.store.ApplyReconciliation(Reconciliation{
		Seq:          seq,
		Address:      account.Address,
		Balance:      account.Balance,
		LastBlockID:  lastBlock,
		Status:       &status,
		Transactions: history,
		Time:         s.options.Clock(),
	})
	if err != nil {
		return err
	}

	log.Infof("Sync: #%d done for %s, balance %s, %d new, %d updated",
		seq, walletID, account.Balance, stats.Inserted, stats.Updated)
	return nil
}

// Refresh fetches balance and history with two independent calls and applies them without
// touching the blockchain status. It is the degraded path after a failed Sync.
func (s *Synchronizer) Refresh(ctx context.Context) error {
	seq := s.store.NextSequence()
	walletID := s.store.WalletID()
	log.Debugf("Refresh: starting refresh #%d for %s", seq, walletID)

	var (
		balance types.Amount
		history []types.Transaction
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.call(gctx, func(ctx context.Context) (err error) {
			balance, err = s.gateway.GetBalance(ctx, walletID)
			return errors.Wrap(err, "refresh: balance")
		})
	})
	g.Go(func() error {
		return s.call(gctx, func(ctx context.Context) (err error) {
			history, err = s.gateway.GetTransactionHistory(ctx, walletID)
			return errors.Wrap(err, "refresh: transaction history")
		})
	})
	if err := g.Wait(); err != nil {
		log.Errorf("Refresh: failed for %s: %v", walletID, err)
		return err
	}

	stats, err := s.store.ApplyReconciliation(Reconciliation{
		Seq:          seq,
		Balance:      balance,
		Transactions: history,
		Time:         s.options.Clock(),
	})
	if err != nil {
		return err
	}

	log.Infof("Refresh: #%d done for %s, balance %s, %d new, %d updated",
		seq, walletID, balance, stats.Inserted, stats.Updated)
	return nil
}

// SyncOrRefresh runs Sync and falls back to Refresh when Sync fails for any reason other than
// ErrWalletMissing or cancellation. A stale Sync result counts as success since a fresher one
// is already applied.
func (s *Synchronizer) SyncOrRefresh(ctx context.Context) (SyncMode, error) {
	syncErr := s.Sync(ctx)
	switch {
	case syncErr == nil, errors.Is(syncErr, ErrStaleSync):
		return SyncFull, nil
	case errors.Is(syncErr, ErrWalletMissing):
		return SyncFull, syncErr
	case ctx.Err() != nil:
		return SyncFull, syncErr
	}

	log.Warnf("SyncOrRefresh: sync failed, falling back to refresh: %v", syncErr)
	refreshErr := s.Refresh(ctx)
	switch {
	case refreshErr == nil, errors.Is(refreshErr, ErrStaleSync):
		return SyncRefresh, nil
	}

	return SyncRefresh, errors.WithSecondaryError(
		errors.Wrap(refreshErr, "refresh after failed sync"), syncErr)
}

// ResetAndRecover binds a new ledger wallet to the same wallet id, clears the store and runs a
// full sync. CreateWallet is keyed on the wallet id, so repeating a successful recovery does not
// create a second ledger wallet. On ErrRecoveryFailed the store is left untouched.
func (s *Synchronizer) ResetAndRecover(ctx context.Context) error {
	walletID := s.store.WalletID()
	log.Infof("ResetAndRecover: recreating ledger wallet for %s", walletID)

	var result types.CreateWalletResult
	err := s.call(ctx, func(ctx context.Context) (err error) {
		result, err = s.gateway.CreateWallet(ctx, walletID)
		return err
	})
	if err != nil {
		log.Errorf("ResetAndRecover: failed to create ledger wallet for %s: %v", walletID, err)
		return errors.Mark(errors.Wrapf(err, "recover wallet %s", walletID), ErrRecoveryFailed)
	}
	if result.WalletID != "" && result.WalletID != walletID {
		log.Errorf("ResetAndRecover: gateway bound %s instead of %s", result.WalletID, walletID)
		return errors.Wrapf(ErrRecoveryFailed, "gateway bound wallet %s instead of %s", result.WalletID, walletID)
	}

	s.store.Reset(walletID)
	if result.Created {
		log.Infof("ResetAndRecover: created ledger wallet %s at %s", walletID, result.Address)
	} else {
		log.Infof("ResetAndRecover: ledger wallet %s already bound, reusing it", walletID)
	}

	return s.Sync(ctx)
}

// call runs fn under the configured per-call timeout and marks unclassified failures as
// network errors.
func (s *Synchronizer) call(ctx context.Context, fn func(ctx context.Context) error) error {
	return callGateway(ctx, s.options.CallTimeout, fn)
}

func callGateway(ctx context.Context, timeout time.Duration, fn func(ctx context.Context) error) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return classify(fn(ctx))
}

func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrWalletMissing),
		errors.Is(err, ErrFaucetUnavailable),
		errors.Is(err, ErrNetwork),
		errors.Is(err, context.Canceled):
		return err
	default:
		// timeouts and anything else the gateway could not classify are transient
		return errors.Mark(err, ErrNetwork)
	}
}
