package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	pkgif "github.com/dep2p/go-p2pcomm/pkg/interfaces"
	"github.com/dep2p/go-p2pcomm/pkg/types"
)

// Collector Prometheus 引擎指标
type Collector struct {
	commands    *prometheus.CounterVec
	events      *prometheus.CounterVec
	requests    *prometheus.CounterVec
	inbound     *prometheus.CounterVec
	reconnects  *prometheus.CounterVec
	connections prometheus.Gauge
	bytes       *prometheus.CounterVec

	bandwidth *BandwidthCounter
}

var _ pkgif.Metrics = (*Collector)(nil)

// NewCollector 创建指标收集器，bandwidth 为 nil 时新建
func NewCollector(namespace string, bandwidth *BandwidthCounter) *Collector {
	if bandwidth == nil {
		bandwidth = NewBandwidthCounter(nil)
	}

	counter := func(name, help, label string) *prometheus.CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, []string{label})
	}

	return &Collector{
		commands:   counter("commands_total", "Control commands handled by the engine.", "command"),
		events:     counter("events_total", "Fabric events handled by the engine.", "type"),
		requests:   counter("requests_total", "Outbound requests by outcome.", "outcome"),
		inbound:    counter("inbound_total", "Inbound requests by outcome.", "outcome"),
		reconnects: counter("reconnects_total", "Keep-alive reconnection attempts.", "result"),
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections",
			Help:      "Peers in the connection table.",
		}),
		bytes:     counter("bytes_total", "Request and response payload bytes.", "direction"),
		bandwidth: bandwidth,
	}
}

// Register 向 reg 注册所有指标
func (c *Collector) Register(reg prometheus.Registerer) error {
	var err error
	for _, col := range c.collectors() {
		err = multierr.Append(err, reg.Register(col))
	}
	return err
}

// Unregister 从 reg 注销所有指标
func (c *Collector) Unregister(reg prometheus.Registerer) {
	for _, col := range c.collectors() {
		reg.Unregister(col)
	}
}

func (c *Collector) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		c.commands, c.events, c.requests, c.inbound, c.reconnects, c.connections, c.bytes,
	}
}

// CommandHandled 实现 interfaces.Metrics
func (c *Collector) CommandHandled(command string) {
	c.commands.WithLabelValues(command).Inc()
}

// EventHandled 实现 interfaces.Metrics
func (c *Collector) EventHandled(eventType string) {
	c.events.WithLabelValues(eventType).Inc()
}

// RequestCompleted 实现 interfaces.Metrics
func (c *Collector) RequestCompleted(outcome string) {
	c.requests.WithLabelValues(outcome).Inc()
}

// InboundHandled 实现 interfaces.Metrics
func (c *Collector) InboundHandled(outcome string) {
	c.inbound.WithLabelValues(outcome).Inc()
}

// ReconnectAttempted 实现 interfaces.Metrics
func (c *Collector) ReconnectAttempted(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	c.reconnects.WithLabelValues(result).Inc()
}

// ConnectionsTracked 实现 interfaces.Metrics
func (c *Collector) ConnectionsTracked(n int) {
	c.connections.Set(float64(n))
}

// LogSentMessage 记录发往 p 的载荷字节
func (c *Collector) LogSentMessage(size int64, p types.PeerID) {
	c.bytes.WithLabelValues("out").Add(float64(size))
	c.bandwidth.LogSentMessage(size, p)
}

// LogRecvMessage 记录来自 p 的载荷字节
func (c *Collector) LogRecvMessage(size int64, p types.PeerID) {
	c.bytes.WithLabelValues("in").Add(float64(size))
	c.bandwidth.LogRecvMessage(size, p)
}

// Bandwidth 返回带宽计数器
func (c *Collector) Bandwidth() *BandwidthCounter {
	return c.bandwidth
}

// nop 不记录任何指标
type nop struct{}

// Nop 返回不记录任何指标的实现
func Nop() pkgif.Metrics { return nop{} }

func (nop) CommandHandled(string)   {}
func (nop) EventHandled(string)     {}
func (nop) RequestCompleted(string) {}
func (nop) InboundHandled(string)   {}
func (nop) ReconnectAttempted(bool) {}
func (nop) ConnectionsTracked(int)  {}
