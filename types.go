package p2pcomm

import (
	"github.com/dep2p/go-p2pcomm/internal/core/swarm"
	"github.com/dep2p/go-p2pcomm/pkg/types"
)

// 常用类型别名
type (
	// PeerID 节点 ID
	PeerID = types.PeerID

	// Multiaddr 多地址
	Multiaddr = types.Multiaddr

	// KeepAlive 连接保活策略
	KeepAlive = types.KeepAlive

	// RelayConfig 中继配置
	RelayConfig = types.RelayConfig

	// RelayMode 中继模式
	RelayMode = types.RelayMode

	// FirewallPermission 权限位集
	FirewallPermission = types.FirewallPermission

	// ConnectionInfo 连接表中的一条记录
	ConnectionInfo = types.ConnectionInfo

	// Info 本地状态快照
	Info = swarm.SwarmInfo
)

// 中继模式
const (
	RelayModeNone   = types.RelayModeNone
	RelayModeAlways = types.RelayModeAlways
	RelayModeBackup = types.RelayModeBackup
)

// 权限位集常量
const (
	PermissionNone = types.PermissionNone
	PermissionAll  = types.PermissionAll
)

// 构造与解析函数
var (
	ParsePeerID        = types.ParsePeerID
	ParseMultiaddr     = types.ParseMultiaddr
	NoKeepAlive        = types.NoKeepAlive
	LimitedKeepAlive   = types.LimitedKeepAlive
	UnlimitedKeepAlive = types.UnlimitedKeepAlive
	NoRelay            = types.NoRelay
	RelayAlways        = types.RelayAlways
	RelayBackup        = types.RelayBackup
)

// ValidateKinds 检查请求种类的位值均非零，位值为 0 的种类永远不会被防火墙放行
func ValidateKinds[P types.PermissionKind](kinds ...P) error {
	return types.ValidateKinds(kinds...)
}
