package models

import (
	"time"
)

// WalletSnapshot 钱包状态快照，State 为加密后的 JSON
type WalletSnapshot struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	WalletID       string    `gorm:"size:128;uniqueIndex" json:"walletId"`
	Address        string    `gorm:"size:128" json:"address"`
	Network        string    `gorm:"size:64" json:"network"`
	AppliedSeq     uint64    `json:"appliedSeq"`
	EncryptedState []byte    `gorm:"type:blob" json:"-"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func (WalletSnapshot) TableName() string { return "wallet_snapshots" }
