// Package fabric 网络层公共组件
//
// 子包提供两种 interfaces.Fabric 实现：
//   - memnet: 进程内网络，用于测试与单机演示
//   - netfabric: 基于 QUIC/TCP 传输的真实网络层
//
// 本包提供它们共用的事件队列。网络层的 goroutine 向 Queue 推送事件
// 永不阻塞，引擎从 Out() 按推送顺序读取。
package fabric
