package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
)

const (
	defaultDataDir      = ".wallet-sync"
	defaultTimeout      = 15 * time.Second
	defaultFaucetAmount = 100
	defaultDedupeWindow = time.Minute
	defaultNetwork      = "iota-testnet"
)

// WalletConfig 全局配置实例（从 TOML 文件加载）
var WalletConfig struct {
	Gateway  *Gateway  // 账本网关配置
	Wallet   *Wallet   // 钱包配置
	Security *Security // 安全配置
	Database *Database // 数据库配置
	Faucet   *Faucet   // 水龙头配置
}

// Gateway 账本网关连接配置
type Gateway struct {
	Host    string   // 网关地址
	Token   string   // API 访问令牌
	Timeout Duration // 单次调用超时
}

// Wallet 钱包配置
type Wallet struct {
	ID      string // 稳定的钱包标识
	Network string // 网络名称
}

// Security 安全相关配置
type Security struct {
	Seed string // 加密种子
}

// Database 数据库配置
type Database struct {
	Path string // SQLite 数据库路径
}

// Faucet 水龙头配置
type Faucet struct {
	DefaultAmount string   // 默认申领金额
	DedupeWindow  Duration // 重复请求合并窗口
}

// Duration 支持 "15s" 这种写法的时长
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// Config 应用程序运行时配置
type Config struct {
	DBDSN        string          // SQLite 数据库路径
	WalletID     string          // 钱包标识
	Network      string          // 网络名称
	Seed         string          // 加密种子
	GatewayHost  string          // 网关地址
	GatewayToken string          // 网关令牌
	CallTimeout  time.Duration   // 网关调用超时
	FaucetAmount decimal.Decimal // 默认申领金额
	DedupeWindow time.Duration   // 水龙头去重窗口
}

// LoadConfig 加载配置
// 优先使用配置文件，否则使用默认值
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Network:      defaultNetwork,
		CallTimeout:  defaultTimeout,
		FaucetAmount: decimal.NewFromInt(defaultFaucetAmount),
		DedupeWindow: defaultDedupeWindow,
	}

	// 获取数据库路径
	if WalletConfig.Database != nil && WalletConfig.Database.Path != "" {
		cfg.DBDSN = expandPath(WalletConfig.Database.Path)
	} else {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			cfg.DBDSN = filepath.Join(homeDir, defaultDataDir, "wallet.db")
		}
	}

	if g := WalletConfig.Gateway; g != nil {
		cfg.GatewayHost = g.Host
		cfg.GatewayToken = g.Token
		if g.Timeout.Duration > 0 {
			cfg.CallTimeout = g.Timeout.Duration
		}
	}

	if w := WalletConfig.Wallet; w != nil {
		cfg.WalletID = w.ID
		if w.Network != "" {
			cfg.Network = w.Network
		}
	}

	if s := WalletConfig.Security; s != nil {
		cfg.Seed = s.Seed
	}

	if f := WalletConfig.Faucet; f != nil {
		if f.DefaultAmount != "" {
			amount, err := decimal.NewFromString(f.DefaultAmount)
			if err != nil {
				return nil, err
			}
			cfg.FaucetAmount = amount
		}
		if f.DedupeWindow.Duration > 0 {
			cfg.DedupeWindow = f.DedupeWindow.Duration
		}
	}

	// 环境变量覆盖
	if id := os.Getenv("WALLET_ID"); id != "" {
		cfg.WalletID = id
	}
	if token := os.Getenv("LEDGER_API_TOKEN"); token != "" {
		cfg.GatewayToken = token
	}

	return cfg, nil
}

// expandPath 展开路径中的 ~ 为用户主目录
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(homeDir, path[1:])
		}
	}
	return path
}
