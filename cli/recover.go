package cli

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"wallet-sync/internal/service"
	"wallet-sync/internal/wallet"
)

// RecoverCmd 重建钱包
// 在网关上重新绑定同一钱包 ID，清空本地状态后完整同步
var RecoverCmd = &cli.Command{
	Name:  "recover",
	Usage: "在网关上重建钱包并清空本地状态",
	Flags: []cli.Flag{
		walletFlag,
		&cli.BoolFlag{
			Name:  "force",
			Usage: "不需要确认",
		},
	},
	Before: loadConfig,
	Action: func(cctx *cli.Context) error {
		cfg, err := configFrom(cctx)
		if err != nil {
			return err
		}

		// 如果没有 --force 标志，请求确认
		if !cctx.Bool("force") &&
			!confirm(fmt.Sprintf("将清空钱包 %s 的本地余额和交易记录并重新同步，确定继续吗？", cfg.WalletID)) {
			fmt.Println("已取消恢复操作")
			return nil
		}

		client, err := openService(cctx)
		if err != nil {
			return err
		}
		defer client.Close()

		if _, err := client.Ex.Execute(cctx.Context, &service.Payload{Type: service.RequestTypeRecover}); err != nil {
			if errors.Is(err, wallet.ErrRecoveryFailed) {
				fmt.Println(color.RedString("恢复失败，本地状态保持不变"))
			} else {
				fmt.Println(color.YellowString("钱包已在网关重建，但同步失败，请稍后运行 `wallet-sync sync`"))
			}
			return err
		}

		fmt.Println(color.GreenString("钱包 %s 已恢复", cfg.WalletID))
		store := client.Ex.Store()
		printStatus(store.Account(), store.Status())
		return nil
	},
}
