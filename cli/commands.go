package cli

import (
	"context"

	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"

	appcfg "wallet-sync/internal/config"
	"wallet-sync/internal/service"
)

type ctxKey string

const (
	CtxConfig ctxKey = "config"
)

// All 返回所有可用的 CLI 命令列表
func All() []*cli.Command {
	return []*cli.Command{
		SyncCmd,    // 同步钱包状态
		RefreshCmd, // 只刷新余额和交易
		FaucetCmd,  // 申领测试代币
		SendCmd,    // 发起转账
		RecoverCmd, // 重建钱包
		WalletCmd,  // 本地钱包视图
	}
}

// loadConfig 加载配置并注入到 Context
func loadConfig(c *cli.Context) error {
	cfg, err := appcfg.LoadConfig()
	if err != nil {
		return err
	}
	if id := c.String("wallet"); id != "" {
		cfg.WalletID = id
	}
	c.Context = context.WithValue(c.Context, CtxConfig, cfg)
	return nil
}

func configFrom(c *cli.Context) (*appcfg.Config, error) {
	cfg, ok := c.Context.Value(CtxConfig).(*appcfg.Config)
	if !ok {
		return nil, xerrors.New("config not loaded")
	}
	return cfg, nil
}

// openService 组装执行器，调用方负责 Close
func openService(c *cli.Context) (*service.NewService, error) {
	cfg, err := configFrom(c)
	if err != nil {
		return nil, err
	}
	return service.NewClient(cfg)
}

var walletFlag = &cli.StringFlag{
	Name:    "wallet",
	Aliases: []string{"w"},
	Usage:   "覆盖配置中的钱包 ID",
}
