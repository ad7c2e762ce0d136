package types

import (
	"fmt"
	"time"
)

// ============================================================================
//                              Endpoint - 连接端点
// ============================================================================

// Role 本端在连接中的角色
type Role int

const (
	// RoleDialer 本端主动拨号
	RoleDialer Role = iota
	// RoleListener 本端被动接受
	RoleListener
)

// String 返回角色的字符串表示
func (r Role) String() string {
	switch r {
	case RoleDialer:
		return "dialer"
	case RoleListener:
		return "listener"
	default:
		return "unknown"
	}
}

// Endpoint 连接端点
//
// Addr 对拨号方是远端地址，对监听方是远端的来源地址。
type Endpoint struct {
	Role Role
	Addr Multiaddr
}

// DialerEndpoint 构造拨号端点
func DialerEndpoint(addr Multiaddr) Endpoint {
	return Endpoint{Role: RoleDialer, Addr: addr}
}

// ListenerEndpoint 构造监听端点
func ListenerEndpoint(addr Multiaddr) Endpoint {
	return Endpoint{Role: RoleListener, Addr: addr}
}

// IsDialer 本端是否为拨号方
func (e Endpoint) IsDialer() bool {
	return e.Role == RoleDialer
}

// String 返回端点的字符串表示
func (e Endpoint) String() string {
	return e.Role.String() + "(" + e.Addr.String() + ")"
}

// ============================================================================
//                              KeepAlive - 保活策略
// ============================================================================

// KeepAliveMode 保活模式
type KeepAliveMode int

const (
	// KeepAliveNone 不保活
	KeepAliveNone KeepAliveMode = iota
	// KeepAliveLimited 有限次重连
	KeepAliveLimited
	// KeepAliveUnlimited 无限重连
	KeepAliveUnlimited
)

// KeepAlive 连接断开后的重连策略
//
// 零值为 None。每次重连尝试消耗一个 Limited 单位。
type KeepAlive struct {
	Mode KeepAliveMode

	// Remaining 剩余重连次数，仅 Limited 模式有效
	Remaining uint32
}

// NoKeepAlive 不保活
func NoKeepAlive() KeepAlive {
	return KeepAlive{}
}

// LimitedKeepAlive 最多重连 n 次
func LimitedKeepAlive(n uint32) KeepAlive {
	return KeepAlive{Mode: KeepAliveLimited, Remaining: n}
}

// UnlimitedKeepAlive 无限重连
func UnlimitedKeepAlive() KeepAlive {
	return KeepAlive{Mode: KeepAliveUnlimited}
}

// Active 是否仍允许重连
//
// None 与 Limited(0) 返回 false。
func (k KeepAlive) Active() bool {
	switch k.Mode {
	case KeepAliveUnlimited:
		return true
	case KeepAliveLimited:
		return k.Remaining > 0
	default:
		return false
	}
}

// Consume 返回消耗一次重连后的策略
//
// 仅 Limited 模式递减；Remaining 为 0 时保持不变。
func (k KeepAlive) Consume() KeepAlive {
	if k.Mode == KeepAliveLimited && k.Remaining > 0 {
		k.Remaining--
	}
	return k
}

// String 返回保活策略的字符串表示
func (k KeepAlive) String() string {
	switch k.Mode {
	case KeepAliveUnlimited:
		return "unlimited"
	case KeepAliveLimited:
		return fmt.Sprintf("limited(%d)", k.Remaining)
	default:
		return "none"
	}
}

// ============================================================================
//                              ConnectionInfo - 连接记录
// ============================================================================

// ConnectionInfo 连接表中每个对端的记录
type ConnectionInfo struct {
	// Peer 对端节点
	Peer PeerID

	// Endpoint 最近一次建立连接的端点
	Endpoint Endpoint

	// KeepAlive 重连策略
	KeepAlive KeepAlive

	// EstablishedAt 记录建立时间
	EstablishedAt time.Time
}
