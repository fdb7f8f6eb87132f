package service

const (
	RequestTypeSync    = "sync"
	RequestTypeRefresh = "refresh"
	RequestTypeFaucet  = "faucet"
	RequestTypePay     = "pay"
	RequestTypeRecover = "recover"
)
