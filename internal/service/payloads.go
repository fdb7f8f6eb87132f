package service

import (
	"wallet-sync/internal/chain/types"
	"wallet-sync/internal/wallet"
)

// Payload 一次用户操作请求
type Payload struct {
	Type      string       `json:"type"`
	Recipient string       `json:"recipient,omitempty"`
	Amount    types.Amount `json:"amount"`
}

type FaucetPayload struct {
	Amount types.Amount `json:"amount"`
}

type PayPayload struct {
	Recipient string       `json:"recipient"`
	Amount    types.Amount `json:"amount"`
}

// Result 操作结果，按请求类型填充对应字段
type Result struct {
	Type    string                `json:"type"`
	Mode    wallet.SyncMode       `json:"mode,omitempty"`
	Funding *wallet.FundingResult `json:"funding,omitempty"`
	Receipt *types.PaymentReceipt `json:"receipt,omitempty"`
	Balance types.Amount          `json:"balance"`
}
