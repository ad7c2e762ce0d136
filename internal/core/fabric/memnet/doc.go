// Package memnet 进程内网络层
//
// Network 模拟一组节点之间的连接、监听与请求/响应，实现 interfaces.Fabric。
// 所有操作在网络级互斥锁下同步完成，结果以事件形式推送到各节点的事件队列，
// 因此事件顺序是确定的。
//
// 除 Fabric 接口外，Node 与 Network 还提供测试用的观测与故障注入：
//   - Dials / DialCount 记录拨号尝试
//   - SentRequests / Responses 记录收发的请求与响应
//   - SetUnreachable 让某个地址不可达
//   - Network.Disconnect 模拟连接断开
//   - SetRequestFailure 让发往某节点的请求以指定原因失败
//   - EnableRelay 让节点转发目标不是自己的请求信封
//   - Inject 直接向节点推送任意事件
//
// 地址：/memory/<name> 原样使用；/memory/0 与端口为 0 的 tcp/quic 地址
// 在 Listen 时分配唯一名称或端口。
package memnet
