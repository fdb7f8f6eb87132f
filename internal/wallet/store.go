package wallet

import (
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	logging "github.com/ipfs/go-log/v2"
	"go.uber.org/atomic"

	"wallet-sync/internal/chain/types"
)

var log = logging.Logger("wallet")

// Reconciliation is the staged result of a sync or refresh, applied in one step.
type Reconciliation struct {
	// Seq is the sequence number issued by NextSequence when the sync started.
	Seq uint64
	// Address replaces the receiving address when not empty.
	Address     string
	Balance     types.Amount
	LastBlockID string
	// Status replaces the blockchain status when not nil. A refresh leaves it nil.
	Status       *types.BlockchainStatus
	Transactions []types.Transaction
	Time         time.Time
}

// Snapshot is a consistent copy of the whole store.
type Snapshot struct {
	Account      types.WalletAccount    `json:"account"`
	Status       types.BlockchainStatus `json:"status"`
	Transactions []types.Transaction    `json:"transactions"`
	AppliedSeq   uint64                 `json:"appliedSeq"`
	Generation   uint64                 `json:"generation"`
}

// Persister saves snapshots of the store after each successful write.
type Persister interface {
	SaveSnapshot(snap Snapshot) error
}

// Store holds the state of one wallet. All writes go through a single critical section so
// readers never see a balance from one update paired with the history of another.
type Store struct {
	mu         sync.RWMutex
	account    types.WalletAccount
	status     types.BlockchainStatus
	txs        []types.Transaction
	appliedSeq uint64
	// generation counts resets; results remembered from an earlier generation no longer apply
	generation uint64

	seq *atomic.Uint64

	persistMu sync.Mutex
	persister Persister
}

// NewStore creates an empty store for walletID.
func NewStore(walletID string) *Store {
	return &Store{
		account: types.WalletAccount{
			WalletID: walletID,
			Balance:  types.ZeroAmount,
		},
		status: types.BlockchainStatus{Status: types.Disconnected},
		seq:    atomic.NewUint64(0),
	}
}

// SetPersister installs p. Persist errors are logged, the in-memory state is kept.
func (s *Store) SetPersister(p Persister) {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	s.persister = p
}

func (s *Store) persist(op string) {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	if s.persister == nil {
		return
	}
	if err := s.persister.SaveSnapshot(s.Snapshot()); err != nil {
		log.Errorf("%s: failed to persist snapshot: %v", op, err)
	}
}

// NextSequence issues the sequence number a sync must carry into ApplyReconciliation.
func (s *Store) NextSequence() uint64 {
	return s.seq.Inc()
}

func (s *Store) WalletID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.account.WalletID
}

// Generation is the number of resets the wallet has gone through.
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// GetBalance returns the confirmed balance from the last write.
func (s *Store) GetBalance() types.Amount {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.account.Balance
}

// ProjectedBalance is the confirmed balance adjusted by pending deposits and payments.
func (s *Store) ProjectedBalance() types.Amount {
	s.mu.RLock()
	defer s.mu.RUnlock()

	projected := s.account.Balance
	for _, tx := range s.txs {
		if tx.Status != types.TxPending {
			continue
		}
		switch tx.Type {
		case types.TxDeposit:
			projected = projected.Add(tx.Amount)
		case types.TxPayment:
			projected = projected.Sub(tx.Amount)
		}
	}
	return projected
}

// GetTransactions returns a copy of the history, most recent first.
func (s *Store) GetTransactions() []types.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyTransactions(s.txs)
}

func (s *Store) Account() types.WalletAccount {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.account
}

func (s *Store) Status() types.BlockchainStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// View returns the account and history read under the same lock.
func (s *Store) View() (types.WalletAccount, []types.Transaction) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.account, copyTransactions(s.txs)
}

// ApplyReconciliation replaces balance, address and status and merges the transactions.
// A result whose Seq is older than the last applied one is discarded with ErrStaleSync.
func (s *Store) ApplyReconciliation(r Reconciliation) (MergeStats, error) {
	stats, err := s.applyReconciliation(r)
	if err != nil {
		return stats, err
	}
	s.persist("ApplyReconciliation")
	return stats, nil
}

func (s *Store) applyReconciliation(r Reconciliation) (MergeStats, error) {
	if r.Balance.IsNegative() {
		return MergeStats{}, errors.Errorf("negative balance %s from ledger", r.Balance)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if r.Seq < s.appliedSeq {
		log.Infof("ApplyReconciliation: discarding sync #%d, #%d already applied", r.Seq, s.appliedSeq)
		return MergeStats{}, errors.Wrapf(ErrStaleSync, "sync #%d older than #%d", r.Seq, s.appliedSeq)
	}

	merged, stats := Merge(s.txs, r.Transactions)

	s.txs = merged
	s.account.Balance = r.Balance
	if r.Address != "" {
		s.account.Address = r.Address
	}
	if r.LastBlockID != "" {
		s.account.LastSyncedBlockID = r.LastBlockID
	}
	s.account.LastSyncTime = r.Time
	if r.Status != nil {
		s.status = *r.Status
	}
	s.appliedSeq = r.Seq

	log.Debugf("ApplyReconciliation: applied sync #%d, balance %s, %d inserted, %d updated",
		r.Seq, r.Balance, stats.Inserted, stats.Updated)
	return stats, nil
}

// Reset clears the wallet but keeps walletID. In-flight syncs started before the reset are
// discarded when they complete.
func (s *Store) Reset(walletID string) {
	s.reset(walletID)
	s.persist("Reset")
}

func (s *Store) reset(walletID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if walletID == "" {
		walletID = s.account.WalletID
	}
	s.account = types.WalletAccount{
		WalletID: walletID,
		Balance:  types.ZeroAmount,
	}
	s.status = types.BlockchainStatus{Status: types.Disconnected}
	s.txs = nil
	s.appliedSeq = s.seq.Inc()
	s.generation++

	log.Infof("Reset: wallet %s cleared", walletID)
}

// CreditLocal adds amount to the balance and records tx in the same critical section as
// ApplyReconciliation. It returns the new balance.
func (s *Store) CreditLocal(amount types.Amount, tx types.Transaction) (types.Amount, error) {
	balance, err := s.creditLocal(amount, tx)
	if err != nil {
		return balance, err
	}
	s.persist("CreditLocal")
	return balance, nil
}

func (s *Store) creditLocal(amount types.Amount, tx types.Transaction) (types.Amount, error) {
	if !amount.IsPositive() {
		return types.ZeroAmount, ErrInvalidAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.txs {
		if existing.ID == tx.ID {
			return s.account.Balance, errors.Errorf("transaction %s already recorded", tx.ID)
		}
	}

	merged, _ := Merge(s.txs, []types.Transaction{tx})
	s.txs = merged
	s.account.Balance = s.account.Balance.Add(amount)

	log.Infof("CreditLocal: credited %s to %s, balance %s", amount, s.account.WalletID, s.account.Balance)
	return s.account.Balance, nil
}

// Snapshot returns a consistent copy of the store for persistence.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Account:      s.account,
		Status:       s.status,
		Transactions: copyTransactions(s.txs),
		AppliedSeq:   s.appliedSeq,
		Generation:   s.generation,
	}
}

// Restore loads a persisted snapshot. The wallet id of the snapshot must match the store.
func (s *Store) Restore(snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if snap.Account.WalletID != s.account.WalletID {
		return errors.Errorf("snapshot belongs to wallet %s, not %s", snap.Account.WalletID, s.account.WalletID)
	}

	txs := copyTransactions(snap.Transactions)
	SortHistory(txs)

	s.account = snap.Account
	s.status = snap.Status
	s.txs = txs
	s.appliedSeq = snap.AppliedSeq
	s.generation = snap.Generation
	if s.seq.Load() < snap.AppliedSeq {
		s.seq.Store(snap.AppliedSeq)
	}
	return nil
}

func copyTransactions(txs []types.Transaction) []types.Transaction {
	if txs == nil {
		return []types.Transaction{}
	}
	out := make([]types.Transaction, len(txs))
	copy(out, txs)
	return out
}
