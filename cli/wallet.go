package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"

	"wallet-sync/internal/chain/types"
	appcfg "wallet-sync/internal/config"
	"wallet-sync/internal/repository"
	"wallet-sync/internal/service"
	"wallet-sync/internal/ui/tablewriter"
	"wallet-sync/internal/wallet"
)

// WalletCmd 本地钱包视图
// 只读取本地快照，不访问网关
var WalletCmd = &cli.Command{
	Name:   "wallet",
	Usage:  "查看本地保存的钱包状态",
	Flags:  []cli.Flag{walletFlag},
	Before: loadConfig,
	Subcommands: []*cli.Command{
		walletStatus,
		walletBalance,
		walletHistory,
		walletList,
		walletForget,
	},
}

// loadLocal 从本地快照恢复钱包状态
func loadLocal(cctx *cli.Context) (*wallet.Store, error) {
	cfg, err := configFrom(cctx)
	if err != nil {
		return nil, err
	}
	if cfg.WalletID == "" {
		return nil, xerrors.New("wallet id is not configured")
	}
	repo, err := service.OpenRepository(cfg)
	if err != nil {
		return nil, err
	}
	defer repo.Close()

	store := wallet.NewStore(cfg.WalletID)
	snap, err := repo.LoadSnapshot(cfg.WalletID)
	if errors.Is(err, repository.ErrSnapshotNotFound) {
		return nil, xerrors.Errorf("wallet %s has never been synced, run `wallet-sync sync` first", cfg.WalletID)
	}
	if err != nil {
		return nil, err
	}
	if err := store.Restore(snap); err != nil {
		return nil, err
	}
	return store, nil
}

var walletStatus = &cli.Command{
	Name:  "status",
	Usage: "显示钱包地址、余额和链状态",
	Action: func(cctx *cli.Context) error {
		store, err := loadLocal(cctx)
		if err != nil {
			return err
		}
		printStatus(store.Account(), store.Status())
		return nil
	},
}

// walletBalance 显示确认余额和预计余额
var walletBalance = &cli.Command{
	Name:  "balance",
	Usage: "显示确认余额和计入待确认交易后的预计余额",
	Action: func(cctx *cli.Context) error {
		store, err := loadLocal(cctx)
		if err != nil {
			return err
		}
		fmt.Printf("Confirmed: %s\n", types.FormatAmount(store.GetBalance()))
		fmt.Printf("Projected: %s\n", types.FormatAmount(store.ProjectedBalance()))
		return nil
	},
}

var walletHistory = &cli.Command{
	Name:  "history",
	Usage: "列出交易记录，最新的在前",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:  "limit",
			Usage: "最多显示的条数，0 表示全部",
			Value: 20,
		},
	},
	Action: func(cctx *cli.Context) error {
		store, err := loadLocal(cctx)
		if err != nil {
			return err
		}

		txs := store.GetTransactions()
		if limit := cctx.Int("limit"); limit > 0 && len(txs) > limit {
			txs = txs[:limit]
		}

		tw := tablewriter.New(
			tablewriter.Col("Time"),
			tablewriter.Col("ID"),
			tablewriter.Col("Type"),
			tablewriter.Col("Counterparty"),
			tablewriter.Col("Amount", tablewriter.RightAlign()),
			tablewriter.Col("Status"),
			tablewriter.Col("Block"))
		for _, tx := range txs {
			id := tx.ID
			if tx.Simulated {
				id = color.YellowString(tx.ID + " (simulated)")
			}
			tw.Write(map[string]interface{}{
				"Time":         tx.Timestamp.Local().Format("2006-01-02 15:04:05"),
				"ID":           id,
				"Type":         tx.Type,
				"Counterparty": tx.Counterparty,
				"Amount":       tx.Amount.String(),
				"Status":       colorStatus(tx.Status),
				"Block":        tx.BlockID,
			})
		}
		return tw.Flush(os.Stdout)
	},
}

func colorStatus(s types.TxStatus) string {
	switch s {
	case types.TxConfirmed:
		return color.GreenString(string(s))
	case types.TxFailed:
		return color.RedString(string(s))
	default:
		return color.YellowString(string(s))
	}
}

// walletList 列出本地保存过快照的钱包
var walletList = &cli.Command{
	Name:  "list",
	Usage: "列出本地保存的钱包",
	Action: func(cctx *cli.Context) error {
		cfg, err := configFrom(cctx)
		if err != nil {
			return err
		}
		repo, err := service.OpenRepository(cfg)
		if err != nil {
			return err
		}
		defer repo.Close()

		items, err := repo.ListWallets()
		if err != nil {
			return err
		}

		tw := tablewriter.New(
			tablewriter.Col("Wallet"),
			tablewriter.Col("Address"),
			tablewriter.Col("Network"),
			tablewriter.Col("Seq", tablewriter.RightAlign()),
			tablewriter.Col("Updated"),
			tablewriter.Col("Default"))
		for _, item := range items {
			def := ""
			if item.WalletID == cfg.WalletID {
				def = "X"
			}
			tw.Write(map[string]interface{}{
				"Wallet":  item.WalletID,
				"Address": item.Address,
				"Network": item.Network,
				"Seq":     item.AppliedSeq,
				"Updated": item.UpdatedAt.Local().Format("2006-01-02 15:04:05"),
				"Default": def,
			})
		}
		return tw.Flush(os.Stdout)
	},
}

// walletForget 删除本地快照，网关上的钱包不受影响
var walletForget = &cli.Command{
	Name:      "forget",
	Usage:     "删除本地保存的钱包快照",
	ArgsUsage: "[钱包 ID (默认当前钱包)]",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "force",
			Usage: "强制删除，不需要确认",
		},
	},
	Action: func(cctx *cli.Context) error {
		cfg, err := configFrom(cctx)
		if err != nil {
			return err
		}
		walletID := cfg.WalletID
		if cctx.Args().Present() {
			walletID = cctx.Args().First()
		}
		if walletID == "" {
			return fmt.Errorf("请指定要删除的钱包 ID")
		}

		if !cctx.Bool("force") && !confirm(fmt.Sprintf("确定要删除钱包 %s 的本地快照吗？", walletID)) {
			fmt.Println("已取消删除操作")
			return nil
		}

		return forgetWallet(cfg, walletID)
	},
}

func forgetWallet(cfg *appcfg.Config, walletID string) error {
	repo, err := service.OpenRepository(cfg)
	if err != nil {
		return err
	}
	defer repo.Close()

	if err := repo.DeleteSnapshot(walletID); err != nil {
		return xerrors.Errorf("删除钱包 %s 失败: %w", walletID, err)
	}
	fmt.Printf("钱包 %s 的本地快照已删除\n", walletID)
	return nil
}

func confirm(question string) bool {
	fmt.Println(question)
	fmt.Print("输入 'yes' 确认: ")
	reader := bufio.NewReader(os.Stdin)
	answer, _ := reader.ReadString('\n')
	return strings.TrimSpace(answer) == "yes"
}
