// Package types 定义 p2pcomm 的公共数据结构
//
// 这是整个系统的最底层包，不依赖任何其他内部包。
// 所有类型都是纯值类型，用于在各模块间传递数据。
//
// # 文件组织
//
// 基础类型:
//   - ids.go        - PeerID, RequestID, ListenerID
//   - multiaddr.go  - Multiaddr 多地址类型
//   - firewall.go   - Direction, FirewallPermission
//
// 连接与路由:
//   - connection.go - Endpoint, KeepAlive, ConnectionInfo
//   - relay.go      - RelayMode, RelayConfig
//
// 消息与事件:
//   - message.go    - PermissionKind, Request 泛型约束, RequestEnvelope
//   - events.go     - 网络层事件
//   - failures.go   - InboundFailure, OutboundFailure
package types
