package connmgr

import "errors"

// 连接管理错误定义
var (
	// ErrPeerBlocked 节点被封禁
	ErrPeerBlocked = errors.New("connmgr: peer blocked")

	// ErrAddrBlocked 地址被封禁
	ErrAddrBlocked = errors.New("connmgr: address blocked")
)
