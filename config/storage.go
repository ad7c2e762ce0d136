package config

import (
	"errors"
	"path/filepath"
)

// StorageConfig 存储配置
//
// 启用后防火墙规则与封禁列表持久化到 BadgerDB：
//
//	${DataDir}/
//	└── p2pcomm.db/
type StorageConfig struct {
	// Enable 是否持久化
	Enable bool `json:"enable"`

	// DataDir 数据目录
	DataDir string `json:"data_dir"`

	// InMemory 使用内存数据库（测试用）
	InMemory bool `json:"in_memory,omitempty"`
}

// DefaultStorageConfig 默认不持久化
func DefaultStorageConfig() StorageConfig {
	return StorageConfig{
		DataDir: "./data",
	}
}

// Validate 验证存储配置
func (c StorageConfig) Validate() error {
	if c.Enable && !c.InMemory && c.DataDir == "" {
		return errors.New("storage: data_dir cannot be empty")
	}
	return nil
}

// DBPath 返回 BadgerDB 数据库路径
func (c StorageConfig) DBPath() string {
	return filepath.Join(c.DataDir, "p2pcomm.db")
}
