package types

// OutboundFailure 出站请求失败原因
type OutboundFailure int

const (
	// OutboundDialFailure 无法建立出站连接
	OutboundDialFailure OutboundFailure = iota + 1
	// OutboundTimeout 等待响应超时
	OutboundTimeout
	// OutboundConnectionClosed 收到响应前连接关闭
	OutboundConnectionClosed
	// OutboundUnsupportedProtocols 对端不支持请求协议
	OutboundUnsupportedProtocols
)

// Error 实现 error 接口
func (f OutboundFailure) Error() string {
	switch f {
	case OutboundDialFailure:
		return "outbound: dial failure"
	case OutboundTimeout:
		return "outbound: timeout"
	case OutboundConnectionClosed:
		return "outbound: connection closed"
	case OutboundUnsupportedProtocols:
		return "outbound: unsupported protocols"
	default:
		return "outbound: unknown failure"
	}
}

// InboundFailure 入站请求失败原因
type InboundFailure int

const (
	// InboundTimeout 本地未在时限内响应
	InboundTimeout InboundFailure = iota + 1
	// InboundConnectionClosed 响应发送前连接关闭
	InboundConnectionClosed
	// InboundUnsupportedProtocols 入站流协议协商失败
	InboundUnsupportedProtocols
	// InboundResponseOmission 本地放弃了响应
	InboundResponseOmission
)

// Error 实现 error 接口
func (f InboundFailure) Error() string {
	switch f {
	case InboundTimeout:
		return "inbound: timeout"
	case InboundConnectionClosed:
		return "inbound: connection closed"
	case InboundUnsupportedProtocols:
		return "inbound: unsupported protocols"
	case InboundResponseOmission:
		return "inbound: response omission"
	default:
		return "inbound: unknown failure"
	}
}
