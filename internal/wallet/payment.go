package wallet

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"

	"wallet-sync/internal/chain/types"
)

// Payments submits outgoing payments. The local balance is not deducted; the payment and its
// balance effect become visible with the next successful sync or refresh.
type Payments struct {
	gateway Gateway
	store   *Store
	options *Options
}

func NewPayments(gateway Gateway, store *Store, opts ...Option) *Payments {
	return &Payments{
		gateway: gateway,
		store:   store,
		options: buildOptions(opts...),
	}
}

// Pay submits a payment of amount to recipient.
func (p *Payments) Pay(ctx context.Context, recipient string, amount types.Amount) (types.PaymentReceipt, error) {
	recipient = strings.TrimSpace(recipient)
	if recipient == "" {
		return types.PaymentReceipt{}, ErrInvalidRecipient
	}
	if !amount.IsPositive() {
		return types.PaymentReceipt{}, errors.Wrapf(ErrInvalidAmount, "payment amount %s", amount)
	}

	walletID := p.store.WalletID()
	log.Infof("Pay: submitting %s from %s to %s", amount, walletID, recipient)

	var receipt types.PaymentReceipt
	err := callGateway(ctx, p.options.CallTimeout, func(ctx context.Context) (err error) {
		receipt, err = p.gateway.SubmitPayment(ctx, walletID, recipient, amount)
		return err
	})
	if err != nil {
		log.Errorf("Pay: failed to submit payment from %s: %v", walletID, err)
		return types.PaymentReceipt{}, errors.Wrap(err, "submit payment")
	}

	log.Infof("Pay: payment %s submitted, status %s", receipt.TransactionID, receipt.Status)
	return receipt, nil
}
