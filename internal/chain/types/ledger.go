package types

import (
	"time"
)

// Transaction 账本交易记录
// ID 由账本分配，同一钱包内唯一
type Transaction struct {
	ID           string    `json:"id"`
	Type         TxType    `json:"type"`
	Counterparty string    `json:"counterparty"`
	Amount       Amount    `json:"amount"`
	Status       TxStatus  `json:"status"`
	Timestamp    time.Time `json:"timestamp"`
	BlockID      string    `json:"blockId,omitempty"`
	// Simulated 标记水龙头本地模拟入账的交易
	Simulated bool `json:"simulated,omitempty"`
}

// BlockchainStatus 网关状态快照，每次同步整体替换
type BlockchainStatus struct {
	Network     string    `json:"network"`
	Status      ConnState `json:"status"`
	LastBlockID string    `json:"lastBlockId"`
	Time        time.Time `json:"time"`
}

// WalletAccount 钱包账户
type WalletAccount struct {
	WalletID          string    `json:"walletId"`
	Address           string    `json:"address"`
	Balance           Amount    `json:"balance"`
	LastSyncedBlockID string    `json:"lastSyncedBlockId"`
	LastSyncTime      time.Time `json:"lastSyncTime"`
}
