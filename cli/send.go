package cli

import (
	"fmt"

	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"

	"wallet-sync/internal/chain/types"
	"wallet-sync/internal/service"
)

// SendCmd 转账命令
// 余额不在本地扣减，交易确认后由下次同步反映
var SendCmd = &cli.Command{
	Name:      "send",
	Usage:     "向目标地址转账",
	ArgsUsage: "[目标地址] [金额]",
	Flags:     []cli.Flag{walletFlag},
	Before:    loadConfig,
	Action: func(cctx *cli.Context) error {
		if cctx.Args().Len() != 2 {
			return xerrors.New("usage: send [目标地址] [金额]")
		}
		recipient := cctx.Args().Get(0)

		val, err := parseAmountArg(cctx.Args().Get(1))
		if err != nil {
			return err
		}

		client, err := openService(cctx)
		if err != nil {
			return err
		}
		defer client.Close()

		res, err := client.Ex.Execute(cctx.Context, &service.Payload{
			Type:      service.RequestTypePay,
			Recipient: recipient,
			Amount:    val,
		})
		if err != nil {
			return xerrors.Errorf("failed to submit payment: %w", err)
		}

		fmt.Printf("Transaction: %s\n", res.Receipt.TransactionID)
		fmt.Printf("Status:      %s\n", res.Receipt.Status)
		fmt.Printf("Amount:      %s -> %s\n", types.FormatAmount(val), recipient)
		return nil
	},
}
