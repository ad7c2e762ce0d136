package types

import "fmt"

// ============================================================================
//                              Direction - 请求方向
// ============================================================================

// Direction 请求方向
type Direction int

const (
	// DirInbound 入站：对端发给本地的请求
	DirInbound Direction = iota
	// DirOutbound 出站：本地发给对端的请求
	DirOutbound
)

// String 返回方向的字符串表示
func (d Direction) String() string {
	switch d {
	case DirInbound:
		return "inbound"
	case DirOutbound:
		return "outbound"
	default:
		return "unknown"
	}
}

// Directions 返回所有方向，便于同时配置入站与出站
func Directions() []Direction {
	return []Direction{DirInbound, DirOutbound}
}

// ============================================================================
//                              FirewallPermission - 权限集合
// ============================================================================

// FirewallPermission 防火墙权限集合
//
// 每个请求种类对应一个位值，集合按位授予。
// AddPermission/RemovePermission 返回新值，不修改接收者。
type FirewallPermission uint32

const (
	// PermissionNone 拒绝所有请求
	PermissionNone FirewallPermission = 0
	// PermissionAll 允许所有请求
	PermissionAll FirewallPermission = ^FirewallPermission(0)
)

// AddPermission 授予 v 的所有位
func (p FirewallPermission) AddPermission(v uint32) FirewallPermission {
	return p | FirewallPermission(v)
}

// RemovePermission 撤销 v 的所有位
func (p FirewallPermission) RemovePermission(v uint32) FirewallPermission {
	return p &^ FirewallPermission(v)
}

// Permits 检查是否授予 v
//
// v 为 0 时始终返回 false：没有位值的请求种类不能被放行。
func (p FirewallPermission) Permits(v uint32) bool {
	return v != 0 && uint32(p)&v == v
}

// String 返回权限集合的字符串表示
func (p FirewallPermission) String() string {
	switch p {
	case PermissionNone:
		return "none"
	case PermissionAll:
		return "all"
	default:
		return fmt.Sprintf("0x%08x", uint32(p))
	}
}
