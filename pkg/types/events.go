package types

// ============================================================================
//                              Event - 网络层事件
// ============================================================================

// Event 网络层事件
//
// 网络层按发生顺序通过单一通道发出事件，引擎按序消费。
type Event interface {
	// Type 返回事件类型
	Type() string
}

// 事件类型常量
const (
	EventConnectionEstablished = "connection_established"
	EventConnectionClosed      = "connection_closed"
	EventNewListenAddr         = "new_listen_addr"
	EventListenerClosed        = "listener_closed"
	EventDialFailure           = "dial_failure"
	EventInboundRequest        = "inbound_request"
	EventResponse              = "response"
	EventInboundFailure        = "inbound_failure"
	EventOutboundFailure       = "outbound_failure"
)

// ============================================================================
//                              连接事件
// ============================================================================

// EvtConnectionEstablished 与对端的连接已建立
type EvtConnectionEstablished struct {
	Peer     PeerID
	Endpoint Endpoint

	// NumEstablished 与该对端的连接总数（含本条）
	NumEstablished int
}

// Type 返回事件类型
func (EvtConnectionEstablished) Type() string { return EventConnectionEstablished }

// EvtConnectionClosed 与对端的一条连接已关闭
type EvtConnectionClosed struct {
	Peer     PeerID
	Endpoint Endpoint

	// NumEstablished 与该对端剩余的连接数
	NumEstablished int

	// Cause 关闭原因，正常关闭时为 nil
	Cause error
}

// Type 返回事件类型
func (EvtConnectionClosed) Type() string { return EventConnectionClosed }

// EvtDialFailure 拨号失败
//
// 按地址拨号且未知对端时 Peer 为空。
type EvtDialFailure struct {
	Peer PeerID
	Addr Multiaddr
	Err  error
}

// Type 返回事件类型
func (EvtDialFailure) Type() string { return EventDialFailure }

// ============================================================================
//                              监听事件
// ============================================================================

// EvtNewListenAddr 监听器开始在地址上监听
type EvtNewListenAddr struct {
	Listener ListenerID
	Addr     Multiaddr
}

// Type 返回事件类型
func (EvtNewListenAddr) Type() string { return EventNewListenAddr }

// EvtListenerClosed 监听器已关闭
type EvtListenerClosed struct {
	Listener ListenerID
	Addrs    []Multiaddr
	Err      error
}

// Type 返回事件类型
func (EvtListenerClosed) Type() string { return EventListenerClosed }

// ============================================================================
//                              请求/响应事件
// ============================================================================

// EvtInboundRequest 收到入站请求
//
// Peer 为传输层发送方，可能与信封声明的来源不同（经中继时）。
type EvtInboundRequest[Req any] struct {
	Peer      PeerID
	RequestID RequestID
	Envelope  RequestEnvelope[Req]
}

// Type 返回事件类型
func (EvtInboundRequest[Req]) Type() string { return EventInboundRequest }

// EvtResponse 收到出站请求的响应
type EvtResponse[Res any] struct {
	Peer      PeerID
	RequestID RequestID
	Response  Res
}

// Type 返回事件类型
func (EvtResponse[Res]) Type() string { return EventResponse }

// EvtInboundFailure 入站请求处理失败
type EvtInboundFailure struct {
	Peer      PeerID
	RequestID RequestID
	Failure   InboundFailure
}

// Type 返回事件类型
func (EvtInboundFailure) Type() string { return EventInboundFailure }

// EvtOutboundFailure 出站请求失败
type EvtOutboundFailure struct {
	Peer      PeerID
	RequestID RequestID
	Failure   OutboundFailure
}

// Type 返回事件类型
func (EvtOutboundFailure) Type() string { return EventOutboundFailure }
