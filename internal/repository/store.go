package repository

import (
	"os"
	"path/filepath"

	logging "github.com/ipfs/go-log/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	crypto2 "wallet-sync/internal/crypto"
	"wallet-sync/internal/models"
)

var log = logging.Logger("repository")

// Store 数据存储结构
// 封装了 GORM 数据库连接和快照加密器
type Store struct {
	DB     *gorm.DB
	sealer *crypto2.Sealer
}

// DefaultDBPath 默认数据库路径 ~/.wallet-sync/wallet.db
func DefaultDBPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".wallet-sync", "wallet.db"), nil
}

// OpenStore 打开数据库存储
// 使用 SQLite 数据库，自动创建目录和数据表
// 参数：
//   - dbPath: SQLite 数据库文件路径，为空时使用默认路径
//   - sealer: 快照加密器
func OpenStore(dbPath string, sealer *crypto2.Sealer) (*Store, error) {
	log.Debug("OpenStore: opening SQLite database connection")

	if dbPath == "" {
		p, err := DefaultDBPath()
		if err != nil {
			log.Errorf("OpenStore: failed to get home directory: %v", err)
			return nil, err
		}
		dbPath = p
	}

	// 确保目录存在
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		log.Errorf("OpenStore: failed to create directory %s: %v", dir, err)
		return nil, err
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		log.Errorf("OpenStore: failed to open database: %v", err)
		return nil, err
	}

	if err = db.AutoMigrate(
		&models.WalletSnapshot{},
		&models.FaucetRequest{},
	); err != nil {
		log.Errorf("OpenStore: auto migration failed: %v", err)
		return nil, err
	}

	log.Debugf("OpenStore: SQLite database opened successfully at %s", dbPath)
	return &Store{DB: db, sealer: sealer}, nil
}

// Close 关闭底层数据库连接
func (s *Store) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
