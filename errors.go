package p2pcomm

import (
	"errors"

	"github.com/dep2p/go-p2pcomm/internal/core/swarm"
)

// 生命周期错误
var (
	// ErrNotStarted 尚未调用 Start
	ErrNotStarted = errors.New("p2pcomm: not started")

	// ErrAlreadyStarted 重复调用 Start
	ErrAlreadyStarted = errors.New("p2pcomm: already started")

	// ErrClosed 已关闭
	ErrClosed = errors.New("p2pcomm: closed")

	// ErrFabricType WithFabric/WithCodec 的类型参数与 Comm 不一致
	ErrFabricType = errors.New("p2pcomm: fabric or codec type mismatch")
)

// 引擎错误
var (
	// ErrShutdown 引擎已停止
	ErrShutdown = swarm.ErrShutdown

	// ErrRejected 请求未获得响应：本地防火墙拒绝或远端未应答
	ErrRejected = swarm.ErrRejected

	// ErrConnectTimeout 连接未在时限内建立
	ErrConnectTimeout = swarm.ErrConnectTimeout

	// ErrDialFailed 拨号失败
	ErrDialFailed = swarm.ErrDialFailed

	// ErrNoRoute 没有可用于拨号的地址
	ErrNoRoute = swarm.ErrNoRoute

	// ErrNoListener 没有活跃的监听器
	ErrNoListener = swarm.ErrNoListener

	// ErrListenTimeout 监听器未在时限内就绪
	ErrListenTimeout = swarm.ErrListenTimeout
)

// 结构化错误
type (
	// RejectedError 请求被拒绝，By 区分本地拒绝与远端未应答
	RejectedError = swarm.RejectedError

	// ConnectError 建立连接失败
	ConnectError = swarm.ConnectError

	// InboundError 对端处理请求失败
	InboundError = swarm.InboundError

	// OutboundError 请求未能送达
	OutboundError = swarm.OutboundError

	// ListenError 启动监听失败
	ListenError = swarm.ListenError

	// BlockedBy 拒绝来源
	BlockedBy = swarm.BlockedBy
)

// 拒绝来源
const (
	BlockedLocal  = swarm.BlockedLocal
	BlockedRemote = swarm.BlockedRemote
)
