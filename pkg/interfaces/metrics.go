package interfaces

// Metrics 引擎指标上报
//
// 所有方法必须是非阻塞的，引擎在事件循环中直接调用。
type Metrics interface {
	// CommandHandled 记录一次控制命令
	CommandHandled(command string)

	// EventHandled 记录一次网络层事件
	EventHandled(eventType string)

	// RequestCompleted 记录出站请求结果
	RequestCompleted(outcome string)

	// InboundHandled 记录入站请求处理结果
	InboundHandled(outcome string)

	// ReconnectAttempted 记录一次重连尝试
	ReconnectAttempted(success bool)

	// ConnectionsTracked 连接表当前大小
	ConnectionsTracked(n int)
}
