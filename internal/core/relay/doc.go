// Package relay 实现中继路由决策与中继转发限流
//
// # 路由
//
// Route 根据当前中继配置决定请求信封实际发往的节点：
//
//	NoRelay     → 目标节点
//	RelayAlways → 仅中继节点（目标写在信封内）
//	RelayBackup → 先目标节点；仅当出站拨号失败时经中继重试一次
//
// # 转发
//
// 作为中继的节点收到目标不是自己的信封时，网络层在转发前
// 通过 Limiter 检查来源节点的速率与并发转发数。
package relay
