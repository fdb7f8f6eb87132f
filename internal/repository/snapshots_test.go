package repository

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet-sync/internal/chain/types"
	crypto2 "wallet-sync/internal/crypto"
	"wallet-sync/internal/wallet"
)

var testParams = crypto2.KDFParams{ScryptN: 1 << 4, ScryptR: 8, ScryptP: 1, Argon2Time: 1, Argon2Memory: 64, Argon2Threads: 1}

func openTestStore(t *testing.T, dbPath, seed string) *Store {
	t.Helper()
	sealer, err := crypto2.NewSealer([]byte(seed), testParams)
	require.NoError(t, err)
	store, err := OpenStore(dbPath, sealer)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleSnapshot(walletID string, balance int64) wallet.Snapshot {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return wallet.Snapshot{
		Account: types.WalletAccount{
			WalletID:          walletID,
			Address:           "iota1qp" + walletID,
			Balance:           types.NewAmount(balance),
			LastSyncedBlockID: "block-001",
			LastSyncTime:      ts,
		},
		Status: types.BlockchainStatus{Network: "iota-testnet", Status: types.Connected, LastBlockID: "block-001", Time: ts},
		Transactions: []types.Transaction{{
			ID: "tx-001", Type: types.TxDeposit, Counterparty: "faucet",
			Amount: types.NewAmount(balance), Status: types.TxConfirmed, Timestamp: ts, BlockID: "block-001",
		}},
		AppliedSeq: 3,
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	store := openTestStore(t, filepath.Join(t.TempDir(), "nested", "wallet.db"), "seed")

	require.NoError(t, store.SaveSnapshot(sampleSnapshot("w1", 100)))
	got, err := store.LoadSnapshot("w1")
	require.NoError(t, err)

	assert.Equal(t, "w1", got.Account.WalletID)
	assert.Equal(t, "100", got.Account.Balance.String())
	assert.Equal(t, types.Connected, got.Status.Status)
	assert.Equal(t, uint64(3), got.AppliedSeq)
	require.Len(t, got.Transactions, 1)
	assert.Equal(t, "tx-001", got.Transactions[0].ID)
	assert.True(t, got.Transactions[0].Timestamp.Equal(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)))
}

func TestSnapshotOverwrite(t *testing.T) {
	store := openTestStore(t, filepath.Join(t.TempDir(), "wallet.db"), "seed")

	require.NoError(t, store.SaveSnapshot(sampleSnapshot("w1", 100)))
	require.NoError(t, store.SaveSnapshot(sampleSnapshot("w1", 250)))

	got, err := store.LoadSnapshot("w1")
	require.NoError(t, err)
	assert.Equal(t, "250", got.Account.Balance.String())

	items, err := store.ListWallets()
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "w1", items[0].WalletID)
	assert.Equal(t, "iota-testnet", items[0].Network)
	assert.Empty(t, items[0].EncryptedState)
}

func TestSnapshotNotFoundAndDelete(t *testing.T) {
	store := openTestStore(t, filepath.Join(t.TempDir(), "wallet.db"), "seed")

	_, err := store.LoadSnapshot("missing")
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
	assert.ErrorIs(t, store.DeleteSnapshot("missing"), ErrSnapshotNotFound)

	require.NoError(t, store.SaveSnapshot(sampleSnapshot("w1", 1)))
	require.NoError(t, store.DeleteSnapshot("w1"))
	_, err = store.LoadSnapshot("w1")
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
}

func TestSnapshotIsEncryptedAtRest(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "wallet.db")
	store := openTestStore(t, dbPath, "seed")
	require.NoError(t, store.SaveSnapshot(sampleSnapshot("w1", 100)))

	var raw []byte
	require.NoError(t, store.DB.Raw("SELECT encrypted_state FROM wallet_snapshots WHERE wallet_id = ?", "w1").Row().Scan(&raw))
	assert.NotContains(t, string(raw), "tx-001")

	other := openTestStore(t, dbPath, "another seed")
	_, err := other.LoadSnapshot("w1")
	assert.ErrorIs(t, err, crypto2.ErrDecryptionFailed)
}

func TestStorePersistsThroughRepository(t *testing.T) {
	repo := openTestStore(t, filepath.Join(t.TempDir(), "wallet.db"), "seed")

	s := wallet.NewStore("w1")
	s.SetPersister(repo)
	_, err := s.ApplyReconciliation(wallet.Reconciliation{Seq: s.NextSequence(), Balance: types.NewAmount(42)})
	require.NoError(t, err)

	restored := wallet.NewStore("w1")
	snap, err := repo.LoadSnapshot("w1")
	require.NoError(t, err)
	require.NoError(t, restored.Restore(snap))
	assert.Equal(t, "42", restored.GetBalance().String())
}
