// Package quic 实现基于 quic-go 的传输
//
// 每个监听器拥有独立的 UDP socket；所有拨号共用一个按需创建的 socket。
//
// TLS 1.3 由节点身份签发，QUIC 连接本身即为多路复用连接，
// 不需要额外的安全握手或流复用协商。
package quic
