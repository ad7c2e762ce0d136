package mocks

import (
	"sync"

	"github.com/dep2p/go-p2pcomm/pkg/interfaces"
)

// MockMetrics 模拟 Metrics 接口实现，记录所有上报
type MockMetrics struct {
	mu sync.Mutex

	Commands   map[string]int
	Events     map[string]int
	Requests   map[string]int
	Inbound    map[string]int
	Reconnects map[bool]int
	Tracked    int

	// 可覆盖的方法
	CommandHandledFunc func(command string)
}

var _ interfaces.Metrics = (*MockMetrics)(nil)

// NewMockMetrics 创建 MockMetrics
func NewMockMetrics() *MockMetrics {
	return &MockMetrics{
		Commands:   make(map[string]int),
		Events:     make(map[string]int),
		Requests:   make(map[string]int),
		Inbound:    make(map[string]int),
		Reconnects: make(map[bool]int),
	}
}

// CommandHandled 记录命令
func (m *MockMetrics) CommandHandled(command string) {
	if m.CommandHandledFunc != nil {
		m.CommandHandledFunc(command)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Commands[command]++
}

// EventHandled 记录事件
func (m *MockMetrics) EventHandled(eventType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events[eventType]++
}

// RequestCompleted 记录出站请求结果
func (m *MockMetrics) RequestCompleted(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests[outcome]++
}

// InboundHandled 记录入站请求结果
func (m *MockMetrics) InboundHandled(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Inbound[outcome]++
}

// ReconnectAttempted 记录重连
func (m *MockMetrics) ReconnectAttempted(success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Reconnects[success]++
}

// ConnectionsTracked 记录连接数
func (m *MockMetrics) ConnectionsTracked(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Tracked = n
}

// InboundCount 返回某类入站结果的次数
func (m *MockMetrics) InboundCount(outcome string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Inbound[outcome]
}

// RequestCount 返回某类出站结果的次数
func (m *MockMetrics) RequestCount(outcome string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Requests[outcome]
}

// ReconnectCount 返回重连次数
func (m *MockMetrics) ReconnectCount(success bool) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Reconnects[success]
}

// CommandCount 返回某命令的处理次数
func (m *MockMetrics) CommandCount(command string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Commands[command]
}

// EventCount 返回某类事件的处理次数
func (m *MockMetrics) EventCount(eventType string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Events[eventType]
}
