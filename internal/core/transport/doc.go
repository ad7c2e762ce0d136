// Package transport 管理已启用的连接传输
//
// 子包提供两种传输，均交付已认证、可多路复用的连接：
//   - quic: QUIC v1，TLS 1.3 内建
//   - tcp: TCP → TLS 1.3 → multistream-select → yamux
//
// Manager 按配置创建传输，并按地址的传输协议挑选合适的一个。
// 对端身份由 TLS 证书公钥派生，拨号时可指定期望的 PeerID。
package transport
