package service

import (
	"context"
	"fmt"

	logging "github.com/ipfs/go-log/v2"

	"wallet-sync/internal/metrics"
	"wallet-sync/internal/wallet"
)

var log = logging.Logger("executor")

type Executor struct {
	store    *wallet.Store
	sync     *wallet.Synchronizer
	faucet   *wallet.Faucet
	payments *wallet.Payments
	metrics  *metrics.Metrics
}

func NewExecutor(gateway wallet.Gateway, store *wallet.Store, m *metrics.Metrics, opts ...wallet.Option) (*Executor, error) {
	log.Infof("NewExecutor: creating executor for wallet %s", store.WalletID())
	faucet, err := wallet.NewFaucet(gateway, store, opts...)
	if err != nil {
		return nil, err
	}
	return &Executor{
		store:    store,
		sync:     wallet.NewSynchronizer(gateway, store, opts...),
		faucet:   faucet,
		payments: wallet.NewPayments(gateway, store, opts...),
		metrics:  m,
	}, nil
}

func (e *Executor) Store() *wallet.Store {
	return e.store
}

func (e *Executor) Metrics() *metrics.Metrics {
	return e.metrics
}

// Execute 执行一次请求，结果中总是带有执行后的确认余额
func (e *Executor) Execute(ctx context.Context, req *Payload) (*Result, error) {
	res, err := e.executeRequest(ctx, req)
	res.Balance = e.store.GetBalance()
	e.metrics.SetBalance(res.Balance)
	if err != nil {
		log.Errorf("Execute: request %s failed: %v", req.Type, err)
		return res, err
	}

	log.Infof("Execute: request %s completed successfully", req.Type)
	return res, nil
}

func (e *Executor) executeRequest(ctx context.Context, req *Payload) (*Result, error) {
	res := &Result{Type: req.Type}
	switch req.Type {
	case RequestTypeSync:
		mode, err := e.sync.SyncOrRefresh(ctx)
		e.metrics.ObserveSync(mode, err)
		res.Mode = mode
		return res, err
	case RequestTypeRefresh:
		err := e.sync.Refresh(ctx)
		e.metrics.ObserveSync(wallet.SyncRefresh, err)
		res.Mode = wallet.SyncRefresh
		return res, err
	case RequestTypeFaucet:
		var payload FaucetPayload
		payload.Amount = req.Amount
		return e.requestFunds(ctx, res, payload)
	case RequestTypePay:
		var payload PayPayload
		payload.Recipient = req.Recipient
		payload.Amount = req.Amount
		return e.pay(ctx, res, payload)
	case RequestTypeRecover:
		err := e.sync.ResetAndRecover(ctx)
		e.metrics.ObserveRecovery(err)
		res.Mode = wallet.SyncFull
		return res, err
	default:
		return res, fmt.Errorf("unsupported request type: %s", req.Type)
	}
}

func (e *Executor) requestFunds(ctx context.Context, res *Result, p FaucetPayload) (*Result, error) {
	funding, err := e.faucet.RequestTokens(ctx, p.Amount)
	e.metrics.ObserveFaucet(funding, err)
	if err != nil {
		return res, err
	}
	if funding.Simulated() {
		log.Warnf("requestFunds: faucet unavailable, credited %s locally: %v", funding.Amount, funding.Err)
	}
	res.Funding = &funding
	return res, nil
}

func (e *Executor) pay(ctx context.Context, res *Result, p PayPayload) (*Result, error) {
	receipt, err := e.payments.Pay(ctx, p.Recipient, p.Amount)
	e.metrics.ObservePayment(err)
	if err != nil {
		return res, err
	}
	res.Receipt = &receipt
	return res, nil
}

func (e *Executor) Close() error {
	return e.faucet.Close()
}
