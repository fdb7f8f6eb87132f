package wallet

import (
	"context"

	"wallet-sync/internal/chain/types"
)

// Gateway defines how the wallet interacts with the remote ledger node and its faucet.
// Implementations classify failures with ErrNetwork, ErrWalletMissing and ErrFaucetUnavailable.
type Gateway interface {
	GetWalletStatus(ctx context.Context, walletID string) (types.BlockchainStatus, error)
	GetAccount(ctx context.Context, walletID string) (types.AccountInfo, error)
	GetBalance(ctx context.Context, walletID string) (types.Amount, error)
	GetTransactionHistory(ctx context.Context, walletID string) ([]types.Transaction, error)
	RequestFaucetTokens(ctx context.Context, walletID string, amount types.Amount) (types.FaucetReceipt, error)
	// CreateWallet is idempotent keyed on walletID.
	CreateWallet(ctx context.Context, walletID string) (types.CreateWalletResult, error)
	SubmitPayment(ctx context.Context, walletID, recipient string, amount types.Amount) (types.PaymentReceipt, error)
}
