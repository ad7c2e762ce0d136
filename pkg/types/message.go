package types

import "fmt"

// ============================================================================
//                              泛型约束
// ============================================================================

// PermissionKind 请求种类的权限分类
//
// 每个种类对应防火墙中的一个位值。Permission() 必须返回非零值：
// 位值为 0 的种类即使在 PermissionAll 下也不会被放行，定义种类后
// 可用 ValidateKinds 检查。
type PermissionKind interface {
	comparable
	Permission() uint32
}

// ValidateKinds 检查请求种类的位值均非零
func ValidateKinds[P PermissionKind](kinds ...P) error {
	for _, k := range kinds {
		if k.Permission() == 0 {
			return fmt.Errorf("request kind %v has zero permission bits and can never be permitted", k)
		}
	}
	return nil
}

// Request 应用请求类型
//
// 引擎通过 PermissionKind() 获取请求种类，用于防火墙判定。
type Request[P PermissionKind] interface {
	PermissionKind() P
}

// ============================================================================
//                              RequestEnvelope - 请求信封
// ============================================================================

// RequestEnvelope 请求信封
//
// Source/Target 为 PeerID.String()。中继节点可透明转发信封，
// 最终接收方据此校验信封确实发给自己，且来源可信。
type RequestEnvelope[Req any] struct {
	Source  string
	Target  string
	Message Req
}

// NewEnvelope 构造请求信封
func NewEnvelope[Req any](source, target PeerID, msg Req) RequestEnvelope[Req] {
	return RequestEnvelope[Req]{
		Source:  source.String(),
		Target:  target.String(),
		Message: msg,
	}
}

// SourcePeer 解析声明的来源节点
func (e RequestEnvelope[Req]) SourcePeer() (PeerID, error) {
	return ParsePeerID(e.Source)
}

// IsAddressedTo 信封目标是否为 id
func (e RequestEnvelope[Req]) IsAddressedTo(id PeerID) bool {
	return e.Target == id.String()
}
