package service

import (
	"errors"
	"time"

	"golang.org/x/xerrors"

	"wallet-sync/internal/config"
	crypto2 "wallet-sync/internal/crypto"
	"wallet-sync/internal/gateway"
	"wallet-sync/internal/metrics"
	"wallet-sync/internal/repository"
	"wallet-sync/internal/rpc"
	"wallet-sync/internal/wallet"
)

type NewService struct {
	Ex   *Executor
	Repo *repository.Store
}

// NewClient 按配置组装网关、本地快照和执行器
func NewClient(cfg *config.Config) (*NewService, error) {
	if cfg.WalletID == "" {
		return nil, xerrors.New("wallet id is not configured, set [Wallet] ID or WALLET_ID")
	}
	if cfg.GatewayHost == "" {
		return nil, xerrors.New("gateway host is not configured, set [Gateway] Host")
	}

	repo, err := OpenRepository(cfg)
	if err != nil {
		return nil, err
	}

	node := gateway.NewNode(rpc.NewLedgerApi(cfg))
	svc, err := newService(cfg, node, repo)
	if err != nil {
		_ = repo.Close()
		return nil, err
	}
	return svc, nil
}

// OpenRepository 打开本地快照库，不连接网关
func OpenRepository(cfg *config.Config) (*repository.Store, error) {
	// 由安全种子派生快照加密密钥
	sealer, err := crypto2.NewSealer([]byte(cfg.Seed), crypto2.DefaultKDFParams)
	if err != nil {
		return nil, xerrors.Errorf("init snapshot encryption: %w", err)
	}
	return repository.OpenStore(cfg.DBDSN, sealer)
}

func newService(cfg *config.Config, gw wallet.Gateway, repo *repository.Store) (*NewService, error) {
	store := wallet.NewStore(cfg.WalletID)

	snap, err := repo.LoadSnapshot(cfg.WalletID)
	switch {
	case err == nil:
		if err := store.Restore(snap); err != nil {
			return nil, err
		}
		log.Infof("newService: restored wallet %s from snapshot, seq %d", cfg.WalletID, snap.AppliedSeq)
		if net := snap.Status.Network; net != "" && cfg.Network != "" && net != cfg.Network {
			log.Warnf("newService: snapshot of %s was synced on %s, configured network is %s", cfg.WalletID, net, cfg.Network)
		}
	case errors.Is(err, repository.ErrSnapshotNotFound):
		log.Infof("newService: no snapshot for wallet %s, starting empty", cfg.WalletID)
	default:
		return nil, xerrors.Errorf("loading snapshot of %s: %w", cfg.WalletID, err)
	}
	store.SetPersister(repo)

	opts := []wallet.Option{
		wallet.WithCallTimeout(cfg.CallTimeout),
		wallet.WithDedupeWindow(cfg.DedupeWindow),
	}
	if cfg.DedupeWindow > 0 {
		// 每条命令一个进程，去重窗口要靠库里的请求记录才能跨命令生效
		if n, err := repo.PruneFunding(time.Now().Add(-cfg.DedupeWindow)); err != nil {
			log.Warnf("newService: failed to prune faucet requests: %v", err)
		} else if n > 0 {
			log.Debugf("newService: pruned %d expired faucet requests", n)
		}
		opts = append(opts, wallet.WithFundingJournal(repo))
	}

	executor, err := NewExecutor(gw, store, metrics.New(), opts...)
	if err != nil {
		return nil, err
	}
	return &NewService{Ex: executor, Repo: repo}, nil
}

func (s *NewService) Close() error {
	if err := s.Ex.Close(); err != nil {
		log.Warnf("Close: %v", err)
	}
	return s.Repo.Close()
}
