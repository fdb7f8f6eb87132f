package main

import (
	"os"

	logging "github.com/ipfs/go-log/v2"
	"github.com/urfave/cli/v2"

	cli2 "wallet-sync/cli"
	appcfg "wallet-sync/internal/config"
	"wallet-sync/lib/synclog"
)

// logger 全局日志记录器
var log = logging.Logger("wallet-sync")

func main() {
	// 加载 TOML 配置文件，不存在时使用默认值和环境变量
	if err := appcfg.Load(); err != nil {
		log.Fatal(err)
		return
	}

	app := &cli.App{
		Name:    "wallet-sync",
		Usage:   "钱包同步客户端：同步余额和交易、申领测试代币、转账和恢复钱包",
		Version: "1.0.0",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "输出调试日志",
			},
		},
		Before: func(c *cli.Context) error {
			synclog.SetupLogLevels(c.Bool("verbose"))
			return nil
		},

		Commands: cli2.All(),
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
