package netfabric

import "errors"

var (
	// ErrUnknownRequest 响应对应的入站请求不存在或已过期
	ErrUnknownRequest = errors.New("netfabric: unknown inbound request")

	// ErrFrameTooLarge 帧长度超过上限
	ErrFrameTooLarge = errors.New("netfabric: frame too large")

	// ErrMalformedFrame 帧体无法解析
	ErrMalformedFrame = errors.New("netfabric: malformed frame")

	// ErrDialSelf 拨号到了自己
	ErrDialSelf = errors.New("netfabric: dialed self")

	// ErrUnsupportedProtocol 对端不支持请求协议
	ErrUnsupportedProtocol = errors.New("netfabric: protocol not supported")
)
