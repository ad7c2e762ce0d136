package storage

import (
	"fmt"
	"os"

	"github.com/dep2p/go-p2pcomm/config"
)

// Config 存储配置
type Config struct {
	// Path 数据库目录，InMemory 时忽略
	Path string

	// InMemory 使用内存数据库
	InMemory bool

	// SyncWrites 每次写入都落盘
	SyncWrites bool
}

// Validate 验证配置
func (c Config) Validate() error {
	if !c.InMemory && c.Path == "" {
		return fmt.Errorf("%w: path is required", ErrInvalidConfig)
	}
	return nil
}

// ensureDir 确保数据库目录存在
func (c Config) ensureDir() error {
	if c.InMemory {
		return nil
	}
	return os.MkdirAll(c.Path, 0o750)
}

// ConfigFromUnified 从统一配置创建存储配置
func ConfigFromUnified(cfg *config.Config) Config {
	if cfg == nil {
		return Config{InMemory: true}
	}
	return Config{
		Path:     cfg.Storage.DBPath(),
		InMemory: cfg.Storage.InMemory,
	}
}
