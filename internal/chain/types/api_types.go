package types

// AccountInfo 网关返回的账户信息
type AccountInfo struct {
	Address     string `json:"address"`
	Balance     Amount `json:"balance"`
	LastBlockID string `json:"lastBlockId"`
}

// FaucetReceipt 水龙头请求结果
type FaucetReceipt struct {
	Accepted bool   `json:"accepted"`
	Error    string `json:"error,omitempty"`
}

// PaymentReceipt 转账提交结果
type PaymentReceipt struct {
	TransactionID string   `json:"transactionId"`
	Status        TxStatus `json:"status"`
}

// CreateWalletResult 创建钱包结果
// Created 为 false 表示网关上已存在同一 walletId 绑定的钱包
type CreateWalletResult struct {
	WalletID string `json:"walletId"`
	Address  string `json:"address"`
	Created  bool   `json:"created"`
}
