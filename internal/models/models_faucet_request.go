package models

import (
	"time"
)

// FaucetRequest 水龙头请求记录，用于跨进程去重
// RequestedAt 为 Unix 纳秒时间戳
type FaucetRequest struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	WalletID      string    `gorm:"size:128;index:idx_faucet_lookup,priority:1" json:"walletId"`
	Generation    uint64    `gorm:"index:idx_faucet_lookup,priority:2" json:"generation"`
	Amount        string    `gorm:"size:64;index:idx_faucet_lookup,priority:3" json:"amount"`
	Source        string    `gorm:"size:16" json:"source"`
	TransactionID string    `gorm:"size:128" json:"transactionId"`
	Cause         string    `gorm:"size:512" json:"cause"`
	RequestedAt   int64     `gorm:"index" json:"requestedAt"`
	CreatedAt     time.Time `json:"createdAt"`
}

func (FaucetRequest) TableName() string { return "faucet_requests" }
