package gateway

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	logging "github.com/ipfs/go-log/v2"

	"wallet-sync/internal/chain/types"
	"wallet-sync/internal/rpc"
	"wallet-sync/internal/wallet"
)

var log = logging.Logger("gateway")

// 网关约定的 JSON-RPC 错误码
const (
	CodeWalletMissing     = -32004
	CodeFaucetUnavailable = -32010
	CodeRateLimited       = -32029
)

// Caller 执行一次 JSON-RPC 调用
type Caller interface {
	Call(ctx context.Context, method string, params []interface{}, result interface{}) error
}

// Node 账本网关客户端节点
// 封装了 RPC 客户端，提供钱包同步所需的网关方法
type Node struct {
	caller Caller
}

// NewNode 创建新的节点实例
func NewNode(caller Caller) *Node {
	log.Debugf("NewNode: creating new node instance")
	return &Node{caller: caller}
}

// GetWalletStatus 查询钱包绑定的网络状态
// 网关没有该 walletId 对应的账本钱包时返回 wallet.ErrWalletMissing
func (n *Node) GetWalletStatus(ctx context.Context, walletID string) (types.BlockchainStatus, error) {
	log.Debugf("GetWalletStatus: getting status for wallet: %s", walletID)
	var status types.BlockchainStatus
	if err := n.call(ctx, "WalletStatus", []interface{}{walletID}, &status); err != nil {
		return types.BlockchainStatus{}, errors.Wrap(err, "failed to get wallet status")
	}
	if status.Status == "" {
		status.Status = types.Connected
	}
	log.Debugf("GetWalletStatus: wallet %s on %s, status %s, last block %s", walletID, status.Network, status.Status, status.LastBlockID)
	return status, nil
}

// GetAccount 查询钱包的收款地址和余额
func (n *Node) GetAccount(ctx context.Context, walletID string) (types.AccountInfo, error) {
	log.Debugf("GetAccount: getting account for wallet: %s", walletID)
	var account types.AccountInfo
	if err := n.call(ctx, "WalletAccount", []interface{}{walletID}, &account); err != nil {
		return types.AccountInfo{}, errors.Wrap(err, "failed to get account")
	}
	log.Debugf("GetAccount: wallet %s address %s balance %s", walletID, account.Address, account.Balance)
	return account, nil
}

// GetBalance 查询钱包余额
func (n *Node) GetBalance(ctx context.Context, walletID string) (types.Amount, error) {
	log.Debugf("GetBalance: getting balance for wallet: %s", walletID)
	var balance types.Amount
	if err := n.call(ctx, "WalletBalance", []interface{}{walletID}, &balance); err != nil {
		return types.ZeroAmount, errors.Wrap(err, "failed to get balance")
	}
	log.Debugf("GetBalance: wallet %s balance %s", walletID, balance)
	return balance, nil
}

// GetTransactionHistory 查询钱包交易历史
func (n *Node) GetTransactionHistory(ctx context.Context, walletID string) ([]types.Transaction, error) {
	log.Debugf("GetTransactionHistory: getting history for wallet: %s", walletID)
	var txs []types.Transaction
	if err := n.call(ctx, "TransactionHistory", []interface{}{walletID}, &txs); err != nil {
		return nil, errors.Wrap(err, "failed to get transaction history")
	}
	log.Debugf("GetTransactionHistory: wallet %s has %d transactions", walletID, len(txs))
	return txs, nil
}

// RequestFaucetTokens 向水龙头申领测试代币
// 水龙头拒绝时返回 Accepted=false 的回执，不视为调用失败
func (n *Node) RequestFaucetTokens(ctx context.Context, walletID string, amount types.Amount) (types.FaucetReceipt, error) {
	log.Debugf("RequestFaucetTokens: requesting %s for wallet: %s", amount, walletID)
	var receipt types.FaucetReceipt
	if err := n.call(ctx, "FaucetRequest", []interface{}{walletID, amount}, &receipt); err != nil {
		return types.FaucetReceipt{}, errors.Wrap(err, "faucet request failed")
	}
	log.Debugf("RequestFaucetTokens: accepted=%t error=%q", receipt.Accepted, receipt.Error)
	return receipt, nil
}

// CreateWallet 为 walletId 创建账本钱包
// 网关以 walletId 作为幂等键，重复调用不会创建第二个钱包
func (n *Node) CreateWallet(ctx context.Context, walletID string) (types.CreateWalletResult, error) {
	log.Infof("CreateWallet: creating ledger wallet for: %s", walletID)
	var result types.CreateWalletResult
	if err := n.call(ctx, "CreateWallet", []interface{}{walletID}, &result); err != nil {
		return types.CreateWalletResult{}, errors.Wrap(err, "failed to create wallet")
	}
	log.Infof("CreateWallet: wallet %s bound to %s (created=%t)", result.WalletID, result.Address, result.Created)
	return result, nil
}

// SubmitPayment 提交转账
func (n *Node) SubmitPayment(ctx context.Context, walletID, recipient string, amount types.Amount) (types.PaymentReceipt, error) {
	log.Debugf("SubmitPayment: %s -> %s amount %s", walletID, recipient, amount)
	var receipt types.PaymentReceipt
	if err := n.call(ctx, "SubmitPayment", []interface{}{walletID, recipient, amount}, &receipt); err != nil {
		return types.PaymentReceipt{}, errors.Wrap(err, "failed to submit payment")
	}
	if receipt.Status == "" {
		receipt.Status = types.TxPending
	}
	log.Debugf("SubmitPayment: transaction %s status %s", receipt.TransactionID, receipt.Status)
	return receipt, nil
}

func (n *Node) call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	err := n.caller.Call(ctx, method, params, result)
	if err != nil {
		log.Debugf("call: %s failed: %v", method, err)
	}
	return Classify(err)
}

// Classify 将 RPC 错误映射为钱包错误分类
// 网关返回的业务错误按错误码区分，其余均视为网络错误
func Classify(err error) error {
	if err == nil {
		return nil
	}

	var rpcErr *rpc.Error
	if errors.As(err, &rpcErr) {
		switch rpcErr.Code {
		case CodeWalletMissing:
			return errors.Mark(err, wallet.ErrWalletMissing)
		case CodeFaucetUnavailable, CodeRateLimited:
			return errors.Mark(err, wallet.ErrFaucetUnavailable)
		}
		if strings.Contains(strings.ToLower(rpcErr.Message), "wallet not found") {
			return errors.Mark(err, wallet.ErrWalletMissing)
		}
		return err
	}

	if errors.Is(err, context.Canceled) {
		return err
	}
	return errors.Mark(err, wallet.ErrNetwork)
}

// Interface contract: make compiler warn if the interface is not implemented correctly.
var _ wallet.Gateway = &Node{}
