// Package netfabric 基于 QUIC/TCP 传输的网络层
//
// Node 实现 interfaces.Fabric：拨号与监听交给 transport.Manager，
// 每个请求占用一条独立的流。流上先用 multistream-select 协商
// /p2pcomm/reqres/1.0.0，随后双方各写一帧：
//
//	请求帧: varint 长度 + {1: source, 2: target, 3: payload}
//	响应帧: varint 长度 + {1: payload}
//
// 帧体按 protobuf 线格式编码，载荷由 Codec 负责。
//
// 启用中继服务时，目标不是本节点的请求帧会原样转发给目标，
// 响应帧原样写回，转发数受 relay.Limiter 约束。
//
// 所有异步结果通过 fabric.Queue 按发生顺序发出。
package netfabric
