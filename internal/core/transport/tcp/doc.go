// Package tcp 实现 TCP 传输
//
// 连接升级流程：
//
//	TCP → TLS 1.3（节点身份双向认证）→ multistream-select 协商 /yamux/1.0.0 → yamux 会话
//
// 升级在独立 goroutine 中进行并受握手超时约束，
// 慢速或恶意的对端不会阻塞监听器接受其他连接。
package tcp
