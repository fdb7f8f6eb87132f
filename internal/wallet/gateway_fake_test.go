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

var baseTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type ledgerWallet struct {
	address string
	balance types.Amount
	txs     []types.Transaction
}

// fakeGateway is an in-memory ledger node with a faucet.
type fakeGateway struct {
	mu      sync.Mutex
	wallets map[string]*ledgerWallet
	nextTx  int

	statusErr  error
	accountErr error
	balanceErr error
	historyErr error
	faucetErr  error
	createErr  error
	payErr     error

	faucetRejected string
	block          chan struct{}
	// faucetEntered receives once per faucet call before the call waits on block.
	faucetEntered chan struct{}

	statusCalls  int
	balanceCalls int
	faucetCalls  int
	createCalls  int
	created      int
	payments     []string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{wallets: make(map[string]*ledgerWallet)}
}

func (g *fakeGateway) bind(walletID string) *ledgerWallet {
	g.mu.Lock()
	defer g.mu.Unlock()
	w := &ledgerWallet{address: "addr-" + walletID, balance: types.ZeroAmount}
	g.wallets[walletID] = w
	return w
}

func (g *fakeGateway) deposit(walletID string, amount int64, status types.TxStatus) types.Transaction {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.depositLocked(walletID, types.NewAmount(amount), status)
}

func (g *fakeGateway) depositLocked(walletID string, amount types.Amount, status types.TxStatus) types.Transaction {
	w := g.wallets[walletID]
	g.nextTx++
	tx := types.Transaction{
		ID:           fmt.Sprintf("tx-%03d", g.nextTx),
		Type:         types.TxDeposit,
		Counterparty: "faucet-address",
		Amount:       amount,
		Status:       status,
		Timestamp:    baseTime.Add(time.Duration(g.nextTx) * time.Minute),
	}
	if status == types.TxConfirmed {
		tx.BlockID = fmt.Sprintf("block-%03d", g.nextTx)
		w.balance = w.balance.Add(amount)
	}
	w.txs = append(w.txs, tx)
	return tx
}

func (g *fakeGateway) wait(ctx context.Context) error {
	if g.block == nil {
		return nil
	}
	select {
	case <-g.block:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *fakeGateway) lookup(walletID string) (*ledgerWallet, error) {
	w, ok := g.wallets[walletID]
	if !ok {
		return nil, errors.Wrapf(ErrWalletMissing, "wallet %s not found", walletID)
	}
	return w, nil
}

func (g *fakeGateway) GetWalletStatus(ctx context.Context, walletID string) (types.BlockchainStatus, error) {
	if err := g.wait(ctx); err != nil {
		return types.BlockchainStatus{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.statusCalls++
	if g.statusErr != nil {
		return types.BlockchainStatus{}, g.statusErr
	}
	if _, err := g.lookup(walletID); err != nil {
		return types.BlockchainStatus{}, err
	}
	return types.BlockchainStatus{
		Network:     "testnet",
		Status:      types.Connected,
		LastBlockID: fmt.Sprintf("block-%03d", g.nextTx),
		Time:        baseTime,
	}, nil
}

func (g *fakeGateway) GetAccount(_ context.Context, walletID string) (types.AccountInfo, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.accountErr != nil {
		return types.AccountInfo{}, g.accountErr
	}
	w, err := g.lookup(walletID)
	if err != nil {
		return types.AccountInfo{}, err
	}
	return types.AccountInfo{Address: w.address, Balance: w.balance}, nil
}

func (g *fakeGateway) GetBalance(_ context.Context, walletID string) (types.Amount, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.balanceCalls++
	if g.balanceErr != nil {
		return types.ZeroAmount, g.balanceErr
	}
	w, err := g.lookup(walletID)
	if err != nil {
		return types.ZeroAmount, err
	}
	return w.balance, nil
}

func (g *fakeGateway) GetTransactionHistory(_ context.Context, walletID string) ([]types.Transaction, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.historyErr != nil {
		return nil, g.historyErr
	}
	w, err := g.lookup(walletID)
	if err != nil {
		return nil, err
	}
	out := make([]types.Transaction, len(w.txs))
	copy(out, w.txs)
	return out, nil
}

func (g *fakeGateway) RequestFaucetTokens(ctx context.Context, walletID string, amount types.Amount) (types.FaucetReceipt, error) {
	if g.faucetEntered != nil {
		g.faucetEntered <- struct{}{}
	}
	if err := g.wait(ctx); err != nil {
		return types.FaucetReceipt{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.faucetCalls++
	if g.faucetErr != nil {
		return types.FaucetReceipt{}, g.faucetErr
	}
	if g.faucetRejected != "" {
		return types.FaucetReceipt{Accepted: false, Error: g.faucetRejected}, nil
	}
	if _, err := g.lookup(walletID); err != nil {
		return types.FaucetReceipt{}, err
	}
	g.depositLocked(walletID, amount, types.TxConfirmed)
	return types.FaucetReceipt{Accepted: true}, nil
}

func (g *fakeGateway) CreateWallet(_ context.Context, walletID string) (types.CreateWalletResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.createCalls++
	if g.createErr != nil {
		return types.CreateWalletResult{}, g.createErr
	}
	if w, ok := g.wallets[walletID]; ok {
		return types.CreateWalletResult{WalletID: walletID, Address: w.address}, nil
	}
	g.created++
	g.wallets[walletID] = &ledgerWallet{address: "addr-" + walletID, balance: types.ZeroAmount}
	return types.CreateWalletResult{WalletID: walletID, Address: "addr-" + walletID, Created: true}, nil
}

func (g *fakeGateway) SubmitPayment(_ context.Context, walletID, recipient string, amount types.Amount) (types.PaymentReceipt, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.payErr != nil {
		return types.PaymentReceipt{}, g.payErr
	}
	if _, err := g.lookup(walletID); err != nil {
		return types.PaymentReceipt{}, err
	}
	g.nextTx++
	id := fmt.Sprintf("tx-%03d", g.nextTx)
	g.payments = append(g.payments, recipient+":"+amount.String())
	return types.PaymentReceipt{TransactionID: id, Status: types.TxPending}, nil
}

var _ Gateway = (*fakeGateway)(nil)

func fixedClock() time.Time { return baseTime }

// errors.Mark is invisible to the standard library errors.Is used by testify.
func requireIs(t *testing.T, err, target error, msgAndArgs ...interface{}) {
	t.Helper()
	require.Truef(t, errors.Is(err, target), "expected %v in the chain of %v %v", target, err, msgAndArgs)
}

func assertIs(t *testing.T, err, target error, msgAndArgs ...interface{}) bool {
	t.Helper()
	return assert.Truef(t, errors.Is(err, target), "expected %v in the chain of %v %v", target, err, msgAndArgs)
}
