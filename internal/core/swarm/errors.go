package swarm

import (
	"errors"
	"fmt"

	"github.com/dep2p/go-p2pcomm/pkg/types"
)

var (
	// ErrShutdown 引擎已停止
	ErrShutdown = errors.New("swarm: shut down")

	// ErrInvalidConfig 无效配置
	ErrInvalidConfig = errors.New("swarm: invalid config")

	// ErrNoListener 没有活跃的监听器
	ErrNoListener = errors.New("swarm: no active listener")

	// ErrListenTimeout 监听器未在时限内就绪
	ErrListenTimeout = errors.New("swarm: listen timeout")

	// ErrListenerClosed 监听器在就绪前关闭
	ErrListenerClosed = errors.New("swarm: listener closed")

	// ErrConnectTimeout 连接未在时限内建立
	ErrConnectTimeout = errors.New("swarm: connect timeout")

	// ErrDialFailed 拨号失败
	ErrDialFailed = errors.New("swarm: dial failed")

	// ErrNoRoute 没有可用于拨号的地址
	ErrNoRoute = errors.New("swarm: no route to peer")

	// ErrRejected 请求未获得响应：本地防火墙拒绝或远端未应答
	ErrRejected = errors.New("swarm: request rejected")

	// ErrEventsClosed 网络层事件流已结束
	ErrEventsClosed = errors.New("swarm: fabric event stream closed")
)

// ============================================================================
//                              ConnectError
// ============================================================================

// ConnectKind 连接失败类别
type ConnectKind int

const (
	// ConnectNoRoute 没有可拨号的地址
	ConnectNoRoute ConnectKind = iota + 1
	// ConnectDialFailure 网络层拒绝发起拨号
	ConnectDialFailure
	// ConnectTimeout 等待连接超时
	ConnectTimeout
	// ConnectUnreachable 拨号已发起但未能到达对端
	ConnectUnreachable
)

// String 返回类别名称
func (k ConnectKind) String() string {
	switch k {
	case ConnectNoRoute:
		return "no route"
	case ConnectDialFailure:
		return "dial failure"
	case ConnectTimeout:
		return "timeout"
	case ConnectUnreachable:
		return "unreachable"
	default:
		return "unknown"
	}
}

// ConnectError 建立连接失败
type ConnectError struct {
	Peer types.PeerID
	Addr types.Multiaddr
	Kind ConnectKind
	Err  error
}

func (e *ConnectError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("connect %s (%s): %s", e.Peer.ShortString(), e.Addr, e.Kind)
	}
	return fmt.Sprintf("connect %s (%s): %s: %v", e.Peer.ShortString(), e.Addr, e.Kind, e.Err)
}

// Unwrap 返回底层错误
func (e *ConnectError) Unwrap() error {
	return e.Err
}

// Is 按类别匹配哨兵错误
func (e *ConnectError) Is(target error) bool {
	switch target {
	case ErrConnectTimeout:
		return e.Kind == ConnectTimeout
	case ErrDialFailed:
		return e.Kind == ConnectDialFailure || e.Kind == ConnectUnreachable
	case ErrNoRoute:
		return e.Kind == ConnectNoRoute
	}
	return false
}

// ============================================================================
//                              请求错误
// ============================================================================

// BlockedBy 拒绝来源
type BlockedBy int

const (
	// BlockedLocal 本地出站防火墙拒绝
	BlockedLocal BlockedBy = iota + 1
	// BlockedRemote 远端未在时限内应答
	BlockedRemote
)

// String 返回拒绝来源名称
func (b BlockedBy) String() string {
	switch b {
	case BlockedLocal:
		return "local"
	case BlockedRemote:
		return "remote"
	default:
		return "unknown"
	}
}

// RejectedError 请求被拒绝
//
// 远端超时与远端防火墙拒绝无法区分，统一报告为 BlockedRemote。
type RejectedError struct {
	By BlockedBy
}

func (e *RejectedError) Error() string {
	return "request rejected by " + e.By.String() + " firewall"
}

// Is 匹配 ErrRejected
func (e *RejectedError) Is(target error) bool {
	return target == ErrRejected
}

// InboundError 对端处理请求失败
type InboundError struct {
	Peer    types.PeerID
	Failure types.InboundFailure
}

func (e *InboundError) Error() string {
	return fmt.Sprintf("request to %s: %v", e.Peer.ShortString(), e.Failure)
}

// Unwrap 返回失败原因
func (e *InboundError) Unwrap() error {
	return e.Failure
}

// OutboundError 本地发送请求失败
type OutboundError struct {
	Peer    types.PeerID
	Failure types.OutboundFailure
}

func (e *OutboundError) Error() string {
	return fmt.Sprintf("request to %s: %v", e.Peer.ShortString(), e.Failure)
}

// Unwrap 返回失败原因
func (e *OutboundError) Unwrap() error {
	return e.Failure
}

// ============================================================================
//                              ListenError
// ============================================================================

// ListenError 启动监听失败
type ListenError struct {
	Addr types.Multiaddr
	Err  error
}

func (e *ListenError) Error() string {
	return fmt.Sprintf("listen on %s: %v", e.Addr, e.Err)
}

// Unwrap 返回底层错误
func (e *ListenError) Unwrap() error {
	return e.Err
}
