package storage

import (
	"errors"

	pkgif "github.com/dep2p/go-p2pcomm/pkg/interfaces"
)

var (
	// ErrNotFound 键不存在
	ErrNotFound = pkgif.ErrNotFound

	// ErrEmptyKey 空键
	ErrEmptyKey = errors.New("storage: empty key")

	// ErrClosed 数据库已关闭
	ErrClosed = errors.New("storage: closed")

	// ErrInvalidConfig 无效配置
	ErrInvalidConfig = errors.New("storage: invalid config")
)
