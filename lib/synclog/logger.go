package synclog

import (
	"os"

	logging "github.com/ipfs/go-log/v2"
)

// 各子系统的日志名
var subsystems = []string{"wallet-sync", "wallet", "gateway", "rpc", "repository", "executor"}

// SetupLogLevels 初始化日志等级
// 未设置 GOLOG_LOG_LEVEL 时默认 INFO，verbose 时本项目子系统改为 DEBUG
func SetupLogLevels(verbose bool) {
	if _, set := os.LookupEnv("GOLOG_LOG_LEVEL"); !set {
		_ = logging.SetLogLevel("*", "INFO")
	}
	if verbose {
		for _, name := range subsystems {
			_ = logging.SetLogLevel(name, "DEBUG")
		}
	}
}
