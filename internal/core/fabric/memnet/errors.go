package memnet

import "errors"

var (
	// ErrConnectionRefused 地址上没有监听器
	ErrConnectionRefused = errors.New("memnet: connection refused")

	// ErrUnreachable 地址被设置为不可达
	ErrUnreachable = errors.New("memnet: address unreachable")

	// ErrPeerIDMismatch 监听地址属于其他节点
	ErrPeerIDMismatch = errors.New("memnet: peer id mismatch")

	// ErrDialSelf 拨号自己
	ErrDialSelf = errors.New("memnet: dial to self")

	// ErrConnectionRejected 对端拒绝连接
	ErrConnectionRejected = errors.New("memnet: connection rejected by remote")

	// ErrAddrInUse 地址已被监听
	ErrAddrInUse = errors.New("memnet: address already in use")

	// ErrDuplicatePeer 节点 ID 已存在
	ErrDuplicatePeer = errors.New("memnet: duplicate peer id")

	// ErrUnknownRequest 没有待响应的入站请求
	ErrUnknownRequest = errors.New("memnet: unknown request id")

	// ErrSimulatedDrop 模拟断开
	ErrSimulatedDrop = errors.New("memnet: simulated connection drop")
)
