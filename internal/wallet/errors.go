package wallet

import (
	"github.com/cockroachdb/errors"
)

var (
	// ErrNetwork marks a transient transport failure. Retryable; Sync falls back to Refresh.
	ErrNetwork = errors.New("ledger gateway unreachable")
	// ErrWalletMissing is returned when the gateway has no ledger wallet bound to the wallet id.
	// It is never retried and never auto-recovered.
	ErrWalletMissing = errors.New("no ledger wallet bound to wallet id")
	// ErrInvalidAmount is returned for non-positive or non-numeric amounts before any network call.
	ErrInvalidAmount = errors.New("amount must be a positive number")
	// ErrInvalidRecipient is returned when a payment has no recipient address.
	ErrInvalidRecipient = errors.New("recipient address is required")
	// ErrFaucetUnavailable marks a faucet-side failure (unreachable, rate limited, rejected).
	ErrFaucetUnavailable = errors.New("faucet unavailable")
	// ErrRecoveryFailed is returned when the ledger wallet could not be recreated during recovery.
	ErrRecoveryFailed = errors.New("wallet recovery failed")
	// ErrStaleSync is returned when a sync result older than the last applied one is discarded.
	ErrStaleSync = errors.New("stale sync result discarded")
)

// IsRetryable reports whether err is a transient failure that a later sync or refresh may resolve.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrNetwork) && !errors.Is(err, ErrWalletMissing)
}

// RequiresRecovery reports whether the caller must ask the user to run ResetAndRecover.
func RequiresRecovery(err error) bool {
	return errors.Is(err, ErrWalletMissing)
}
