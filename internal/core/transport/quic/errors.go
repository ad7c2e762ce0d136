package quic

import "errors"

var (
	// ErrTransportClosed 传输已关闭
	ErrTransportClosed = errors.New("quic: transport closed")

	// ErrListenerClosed 监听器已关闭
	ErrListenerClosed = errors.New("quic: listener closed")

	// ErrUnsupportedAddr 不是 QUIC 地址
	ErrUnsupportedAddr = errors.New("quic: unsupported address")
)
