package types

import (
	"encoding/json"
	"fmt"
)

// TxType 交易方向
type TxType string

const (
	TxPayment TxType = "payment" // 转出
	TxDeposit TxType = "deposit" // 转入
)

func (t TxType) Valid() bool {
	return t == TxPayment || t == TxDeposit
}

// UnmarshalJSON 只接受 payment 和 deposit
func (t *TxType) UnmarshalJSON(bb []byte) error {
	var str string
	if err := json.Unmarshal(bb, &str); err != nil {
		return fmt.Errorf("could not unmarshal TxType: %w", err)
	}
	v := TxType(str)
	if !v.Valid() {
		return fmt.Errorf("unsupported transaction type: %q", str)
	}
	*t = v
	return nil
}

// TxStatus 交易状态
// 只允许 pending -> confirmed 或 pending -> failed
type TxStatus string

const (
	TxPending   TxStatus = "pending"
	TxConfirmed TxStatus = "confirmed"
	TxFailed    TxStatus = "failed"
)

// Terminal 状态是否终结
func (s TxStatus) Terminal() bool {
	return s == TxConfirmed || s == TxFailed
}

func (s TxStatus) Valid() bool {
	switch s {
	case TxPending, TxConfirmed, TxFailed:
		return true
	}
	return false
}

// UnmarshalJSON 兼容网关返回字符串或数字两种格式
// 解析失败时不修改原值
func (s *TxStatus) UnmarshalJSON(bb []byte) error {
	var str string
	if err := json.Unmarshal(bb, &str); err == nil {
		v := TxStatus(str)
		if !v.Valid() {
			return fmt.Errorf("unsupported transaction status: %q", str)
		}
		*s = v
		return nil
	}

	var n int
	if err := json.Unmarshal(bb, &n); err != nil {
		return fmt.Errorf("could not unmarshal TxStatus either as string nor integer: %w", err)
	}

	switch n {
	case 0:
		*s = TxPending
	case 1:
		*s = TxConfirmed
	case 2:
		*s = TxFailed
	default:
		return fmt.Errorf("unsupported transaction status: %d", n)
	}
	return nil
}

// ConnState 网关连接状态
type ConnState string

const (
	Connected    ConnState = "Connected"
	Disconnected ConnState = "Disconnected"
)
