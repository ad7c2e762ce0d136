// Package interfaces 定义 p2pcomm 的公共接口
//
// 引擎只通过这些接口与外部协作方交互：
//   - fabric.go   - 网络层（拨号、监听、请求/响应、事件流）
//   - client.go   - 本地请求处理方（调用并等待）
//   - codec.go    - 请求/响应载荷编解码
//   - storage.go  - 键值存储引擎（防火墙规则、封禁列表持久化）
//   - metrics.go  - 引擎指标上报
//   - transport.go - 已认证的多路复用传输（连接、流、监听器）
//
// # 依赖方向
//
//	p2pcomm → internal/core/* → pkg/interfaces → pkg/types
//
// 禁止反向依赖。
package interfaces
