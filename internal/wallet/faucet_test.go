package wallet

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet-sync/internal/chain/types"
)

func newFaucetFixture(t *testing.T, opts ...Option) (*fakeGateway, *Store, *Faucet) {
	t.Helper()
	gw := newFakeGateway()
	gw.bind("w1")
	store := NewStore("w1")
	opts = append([]Option{WithClock(fixedClock)}, opts...)
	f, err := NewFaucet(gw, store, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return gw, store, f
}

func TestRequestTokensRejectsNonPositiveAmounts(t *testing.T) {
	gw, store, f := newFaucetFixture(t)

	for _, amount := range []int64{0, -5} {
		_, err := f.RequestTokens(context.Background(), types.NewAmount(amount))
		assertIs(t, err, ErrInvalidAmount, "amount %d", amount)
	}

	assert.Zero(t, gw.faucetCalls)
	assert.True(t, store.GetBalance().IsZero())
	assert.Empty(t, store.GetTransactions())
}

func TestRequestTokensRemoteDoesNotTouchBalance(t *testing.T) {
	gw, store, f := newFaucetFixture(t)

	res, err := f.RequestTokens(context.Background(), types.NewAmount(100))
	require.NoError(t, err)
	assert.Equal(t, FundingRemote, res.Source)
	assert.False(t, res.Simulated())
	assert.NoError(t, res.Err)
	assert.Equal(t, 1, gw.faucetCalls)
	assert.True(t, store.GetBalance().IsZero())
	assert.Empty(t, store.GetTransactions())
}

func TestRequestTokensFallsBackToLocalSimulation(t *testing.T) {
	gw, store, f := newFaucetFixture(t, WithIDGenerator(func() string { return "local-1" }))
	gw.faucetErr = errors.Mark(errors.New("rate limited"), ErrFaucetUnavailable)

	res, err := f.RequestTokens(context.Background(), types.NewAmount(100))
	require.NoError(t, err)
	assert.Equal(t, FundingLocal, res.Source)
	assert.True(t, res.Simulated())
	assertIs(t, res.Err, ErrFaucetUnavailable)
	assert.Equal(t, "local-1", res.TransactionID)

	assert.Equal(t, "100", store.GetBalance().String())
	txs := store.GetTransactions()
	require.Len(t, txs, 1)
	assert.Equal(t, "local-1", txs[0].ID)
	assert.Equal(t, types.TxDeposit, txs[0].Type)
	assert.Equal(t, types.TxConfirmed, txs[0].Status)
	assert.True(t, txs[0].Simulated)
	assert.Equal(t, "100", txs[0].Amount.String())
}

func TestRequestTokensTreatsRejectionAsUnavailable(t *testing.T) {
	gw, store, f := newFaucetFixture(t)
	gw.faucetRejected = "faucet drained"

	res, err := f.RequestTokens(context.Background(), types.NewAmount(7))
	require.NoError(t, err)
	assert.Equal(t, FundingLocal, res.Source)
	assertIs(t, res.Err, ErrFaucetUnavailable)
	assert.Contains(t, res.Err.Error(), "faucet drained")
	assert.Equal(t, "7", store.GetBalance().String())
}

func TestRequestTokensFallsBackOnNetworkError(t *testing.T) {
	gw, store, f := newFaucetFixture(t)
	gw.faucetErr = errors.New("dial tcp: connection refused")

	res, err := f.RequestTokens(context.Background(), types.NewAmount(3))
	require.NoError(t, err)
	assert.Equal(t, FundingLocal, res.Source)
	assert.True(t, IsRetryable(res.Err))
	assert.Equal(t, "3", store.GetBalance().String())
}

func TestRequestTokensSurfacesWalletMissing(t *testing.T) {
	gw := newFakeGateway()
	store := NewStore("w1")
	f, err := NewFaucet(gw, store)
	require.NoError(t, err)
	defer f.Close()

	_, err = f.RequestTokens(context.Background(), types.NewAmount(10))
	requireIs(t, err, ErrWalletMissing)
	assert.True(t, store.GetBalance().IsZero())
}

func TestRequestTokensDeduplicatesWithinWindow(t *testing.T) {
	gw, store, f := newFaucetFixture(t)
	gw.faucetErr = errors.Mark(errors.New("offline"), ErrFaucetUnavailable)

	first, err := f.RequestTokens(context.Background(), types.NewAmount(50))
	require.NoError(t, err)
	second, err := f.RequestTokens(context.Background(), types.NewAmount(50))
	require.NoError(t, err)

	assert.Equal(t, 1, gw.faucetCalls)
	assert.False(t, first.Deduplicated)
	assert.True(t, second.Deduplicated)
	assert.Equal(t, first.TransactionID, second.TransactionID)
	assert.Equal(t, "50", store.GetBalance().String())

	_, err = f.RequestTokens(context.Background(), types.NewAmount(60))
	require.NoError(t, err)
	assert.Equal(t, 2, gw.faucetCalls)
	assert.Equal(t, "110", store.GetBalance().String())
}

func TestRequestTokensAfterRecoveryIsNotDeduplicated(t *testing.T) {
	gw, store, f := newFaucetFixture(t)
	gw.faucetErr = errors.Mark(errors.New("offline"), ErrFaucetUnavailable)
	s := NewSynchronizer(gw, store, WithClock(fixedClock))

	first, err := f.RequestTokens(context.Background(), types.NewAmount(100))
	require.NoError(t, err)
	require.Equal(t, FundingLocal, first.Source)
	require.Equal(t, "100", store.GetBalance().String())

	require.NoError(t, s.ResetAndRecover(context.Background()))
	require.True(t, store.GetBalance().IsZero())

	second, err := f.RequestTokens(context.Background(), types.NewAmount(100))
	require.NoError(t, err)
	assert.False(t, second.Deduplicated)
	assert.Equal(t, FundingLocal, second.Source)
	assert.NotEqual(t, first.TransactionID, second.TransactionID)
	assert.Equal(t, 2, gw.faucetCalls)
	assert.Equal(t, "100", store.GetBalance().String())
}

func TestConcurrentIdenticalRequestsShareOneCall(t *testing.T) {
	gw, store, f := newFaucetFixture(t)
	gw.faucetErr = errors.Mark(errors.New("offline"), ErrFaucetUnavailable)
	gw.block = make(chan struct{})
	gw.faucetEntered = make(chan struct{}, 1)

	results := make(chan FundingResult, 2)
	request := func() {
		res, err := f.RequestTokens(context.Background(), types.NewAmount(40))
		assert.NoError(t, err)
		results <- res
	}
	go request()
	<-gw.faucetEntered
	go request()
	// give the second caller time to join the running request
	time.Sleep(20 * time.Millisecond)
	close(gw.block)

	a, b := <-results, <-results
	assert.NotEqual(t, a.Deduplicated, b.Deduplicated)
	assert.Equal(t, a.TransactionID, b.TransactionID)
	assert.Equal(t, 1, gw.faucetCalls)
	assert.Equal(t, "40", store.GetBalance().String())
}

func TestCanceledCallerDoesNotCancelSharedRequest(t *testing.T) {
	gw, store, f := newFaucetFixture(t)
	gw.faucetErr = errors.Mark(errors.New("offline"), ErrFaucetUnavailable)
	gw.block = make(chan struct{})
	gw.faucetEntered = make(chan struct{}, 1)

	ctx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := f.RequestTokens(ctx, types.NewAmount(25))
		firstErr <- err
	}()
	<-gw.faucetEntered

	second := make(chan FundingResult, 1)
	go func() {
		res, err := f.RequestTokens(context.Background(), types.NewAmount(25))
		assert.NoError(t, err)
		second <- res
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	requireIs(t, <-firstErr, context.Canceled)
	close(gw.block)

	res := <-second
	assert.True(t, res.Deduplicated)
	assert.Equal(t, FundingLocal, res.Source)
	assert.Equal(t, 1, gw.faucetCalls)
	assert.Equal(t, "25", store.GetBalance().String())
}

// memJournal is an in-memory FundingJournal.
type memJournal struct {
	mu      sync.Mutex
	entries []journalEntry
}

type journalEntry struct {
	walletID   string
	generation uint64
	res        FundingResult
	at         time.Time
}

func (j *memJournal) LastFunding(walletID string, generation uint64, amount types.Amount, since time.Time) (FundingResult, bool, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	for i := len(j.entries) - 1; i >= 0; i-- {
		e := j.entries[i]
		if e.walletID == walletID && e.generation == generation && e.res.Amount.Equal(amount) && !e.at.Before(since) {
			return e.res, true, nil
		}
	}
	return FundingResult{}, false, nil
}

func (j *memJournal) RecordFunding(walletID string, generation uint64, res FundingResult, at time.Time) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, journalEntry{walletID: walletID, generation: generation, res: res, at: at})
	return nil
}

func TestRequestTokensConsultsJournalAcrossFaucets(t *testing.T) {
	journal := &memJournal{}
	gw, store, f := newFaucetFixture(t, WithFundingJournal(journal))
	gw.faucetErr = errors.Mark(errors.New("offline"), ErrFaucetUnavailable)

	first, err := f.RequestTokens(context.Background(), types.NewAmount(30))
	require.NoError(t, err)
	require.Len(t, journal.entries, 1)
	assert.Equal(t, uint64(0), journal.entries[0].generation)

	// a second faucet starts with an empty cache, like a new process
	other, err := NewFaucet(gw, store, WithClock(fixedClock), WithFundingJournal(journal))
	require.NoError(t, err)
	defer other.Close()

	second, err := other.RequestTokens(context.Background(), types.NewAmount(30))
	require.NoError(t, err)
	assert.True(t, second.Deduplicated)
	assert.Equal(t, first.TransactionID, second.TransactionID)
	assert.Equal(t, 1, gw.faucetCalls)
	assert.Equal(t, "30", store.GetBalance().String())

	store.Reset("w1")
	third, err := other.RequestTokens(context.Background(), types.NewAmount(30))
	require.NoError(t, err)
	assert.False(t, third.Deduplicated)
	assert.Equal(t, 2, gw.faucetCalls)
	assert.Equal(t, "30", store.GetBalance().String())
}

func TestRequestTokensIgnoresExpiredJournalEntries(t *testing.T) {
	journal := &memJournal{}
	journal.entries = append(journal.entries, journalEntry{
		walletID: "w1",
		res:      FundingResult{Source: FundingRemote, Amount: types.NewAmount(30)},
		at:       fixedClock().Add(-2 * DefaultDedupeWindow),
	})
	gw, _, f := newFaucetFixture(t, WithFundingJournal(journal))

	res, err := f.RequestTokens(context.Background(), types.NewAmount(30))
	require.NoError(t, err)
	assert.False(t, res.Deduplicated)
	assert.Equal(t, 1, gw.faucetCalls)
	assert.Len(t, journal.entries, 2)
}

func TestConcurrentLocalCreditsDoNotRace(t *testing.T) {
	var (
		mu   sync.Mutex
		next int
	)
	gw, store, f := newFaucetFixture(t, WithDedupeWindow(0), WithIDGenerator(func() string {
		mu.Lock()
		defer mu.Unlock()
		next++
		return fmt.Sprintf("local-%d", next)
	}))
	gw.faucetErr = errors.Mark(errors.New("offline"), ErrFaucetUnavailable)

	const callers = 50
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.RequestTokens(context.Background(), types.NewAmount(2))
			assert.NoError(t, err)
			assert.Equal(t, FundingLocal, res.Source)
		}()
	}
	wg.Wait()

	assert.Equal(t, "100", store.GetBalance().String())
	assert.Len(t, store.GetTransactions(), callers)
}

func TestSyncAfterLocalFallbackUsesLedgerBalance(t *testing.T) {
	gw, store, f := newFaucetFixture(t)
	gw.faucetErr = errors.Mark(errors.New("offline"), ErrFaucetUnavailable)
	s := NewSynchronizer(gw, store, WithClock(fixedClock))

	_, err := f.RequestTokens(context.Background(), types.NewAmount(100))
	require.NoError(t, err)
	require.NoError(t, s.Sync(context.Background()))

	assert.True(t, store.GetBalance().IsZero())
	txs := store.GetTransactions()
	require.Len(t, txs, 1)
	assert.True(t, txs[0].Simulated)
}
