package cli

import (
	"fmt"
	"os"
	"sort"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"wallet-sync/internal/chain/types"
	"wallet-sync/internal/service"
	"wallet-sync/internal/ui/tablewriter"
	"wallet-sync/internal/wallet"
)

// SyncCmd 同步命令
// 完整同步失败时回退到刷新，钱包不存在时提示恢复
var SyncCmd = &cli.Command{
	Name:   "sync",
	Usage:  "从网关同步钱包状态、余额和交易记录",
	Flags:  []cli.Flag{walletFlag, metricsFlag},
	Before: loadConfig,
	Action: func(cctx *cli.Context) error {
		return runSync(cctx, service.RequestTypeSync)
	},
}

// RefreshCmd 刷新命令，不查询链状态
var RefreshCmd = &cli.Command{
	Name:   "refresh",
	Usage:  "只刷新余额和交易记录",
	Flags:  []cli.Flag{walletFlag, metricsFlag},
	Before: loadConfig,
	Action: func(cctx *cli.Context) error {
		return runSync(cctx, service.RequestTypeRefresh)
	},
}

var metricsFlag = &cli.BoolFlag{
	Name:  "metrics",
	Usage: "执行后输出本次运行的统计",
}

func runSync(cctx *cli.Context, requestType string) error {
	client, err := openService(cctx)
	if err != nil {
		return err
	}
	defer client.Close()

	res, err := client.Ex.Execute(cctx.Context, &service.Payload{Type: requestType})
	if err != nil {
		if wallet.RequiresRecovery(err) {
			fmt.Println(color.RedString("钱包在网关上不存在，请运行 `wallet-sync recover` 重建"))
		}
		return err
	}

	store := client.Ex.Store()
	if res.Mode == wallet.SyncRefresh {
		fmt.Println(color.YellowString("完整同步失败，已回退为刷新，链状态未更新"))
	}
	printStatus(store.Account(), store.Status())

	if cctx.Bool("metrics") {
		return printMetrics(client.Ex)
	}
	return nil
}

func printStatus(acct types.WalletAccount, status types.BlockchainStatus) {
	state := color.RedString(string(status.Status))
	if status.Status == types.Connected {
		state = color.GreenString(string(status.Status))
	}
	fmt.Printf("Wallet:     %s\n", acct.WalletID)
	fmt.Printf("Address:    %s\n", acct.Address)
	fmt.Printf("Balance:    %s\n", types.FormatAmount(acct.Balance))
	fmt.Printf("Network:    %s (%s)\n", status.Network, state)
	fmt.Printf("Last block: %s\n", acct.LastSyncedBlockID)
	if !acct.LastSyncTime.IsZero() {
		fmt.Printf("Synced at:  %s\n", acct.LastSyncTime.Local().Format("2006-01-02 15:04:05"))
	}
}

func printMetrics(ex *service.Executor) error {
	values, err := ex.Metrics().Values()
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tw := tablewriter.New(tablewriter.Col("Metric"), tablewriter.Col("Value", tablewriter.RightAlign()))
	for _, k := range keys {
		tw.Write(map[string]interface{}{"Metric": k, "Value": values[k]})
	}
	return tw.Flush(os.Stdout)
}
