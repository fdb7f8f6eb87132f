package cli

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"wallet-sync/internal/chain/types"
	"wallet-sync/internal/service"
	"wallet-sync/internal/wallet"
)

// FaucetCmd 申领测试代币
// 水龙头不可用时在本地模拟入账，并明确提示
var FaucetCmd = &cli.Command{
	Name:      "faucet",
	Usage:     "向水龙头申领测试代币",
	ArgsUsage: "[金额 (默认取配置 Faucet.DefaultAmount)]",
	Flags:     []cli.Flag{walletFlag},
	Before:    loadConfig,
	Action: func(cctx *cli.Context) error {
		cfg, err := configFrom(cctx)
		if err != nil {
			return err
		}

		amount := cfg.FaucetAmount
		if cctx.Args().Present() {
			amount, err = parseAmountArg(cctx.Args().First())
			if err != nil {
				return err
			}
		}

		client, err := openService(cctx)
		if err != nil {
			return err
		}
		defer client.Close()

		res, err := client.Ex.Execute(cctx.Context, &service.Payload{
			Type:   service.RequestTypeFaucet,
			Amount: amount,
		})
		if err != nil {
			if wallet.RequiresRecovery(err) {
				fmt.Println(color.RedString("钱包在网关上不存在，请运行 `wallet-sync recover` 重建"))
			}
			return err
		}

		funding := res.Funding
		switch {
		case funding.Deduplicated:
			fmt.Printf("去重窗口内已申领过 %s（%s），未重复申领\n", types.FormatAmount(funding.Amount), funding.Source)
		case funding.Simulated():
			fmt.Println(color.YellowString("水龙头不可用，已在本地模拟入账 %s（交易 %s）",
				types.FormatAmount(funding.Amount), funding.TransactionID))
			fmt.Println(color.YellowString("原因: %v", funding.Err))
			fmt.Println(color.YellowString("模拟余额不在账本上，下次同步后以账本余额为准"))
		default:
			fmt.Printf("水龙头已受理 %s，同步后到账\n", types.FormatAmount(funding.Amount))
		}
		fmt.Printf("Balance: %s\n", types.FormatAmount(res.Balance))
		return nil
	},
}

// parseAmountArg 解析金额参数，无法解析的输入按无效金额处理
func parseAmountArg(s string) (types.Amount, error) {
	amount, err := types.ParseAmount(s)
	if err != nil {
		return types.ZeroAmount, errors.Mark(errors.Wrapf(err, "amount %q", s), wallet.ErrInvalidAmount)
	}
	if !amount.IsPositive() {
		return types.ZeroAmount, errors.Wrapf(wallet.ErrInvalidAmount, "amount %s", amount)
	}
	return amount, nil
}
