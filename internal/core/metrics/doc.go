// Package metrics 提供引擎指标与带宽统计
//
// Collector 以 Prometheus 指标实现 interfaces.Metrics：
//   - <ns>_commands_total{command}      控制命令
//   - <ns>_events_total{type}           网络层事件
//   - <ns>_requests_total{outcome}      出站请求结果
//   - <ns>_inbound_total{outcome}       入站请求处理结果
//   - <ns>_reconnects_total{result}     重连尝试
//   - <ns>_connections                  连接表大小
//   - <ns>_bytes_total{direction}       载荷字节数
//
// BandwidthCounter 按节点统计载荷字节与最近 60 秒速率，
// 由网络层在每帧读写后调用。
//
// # 快速开始
//
//	c := metrics.NewCollector("p2pcomm", nil)
//	if err := c.Register(prometheus.DefaultRegisterer); err != nil {
//	    return err
//	}
//	c.RequestCompleted("ok")
package metrics
