// Package connmgr 实现连接表与连接门控
//
// # 连接表
//
// Table 记录每个对端最近一次建立的连接及其保活策略，每个对端至多一条记录，
// 新的 Insert 覆盖旧记录。Table 由引擎 goroutine 独占，不加锁。
//
// 连接表承担两项决策：
//   - 入站信任：声明的来源必须存在直连记录
//   - 断线重连：记录的保活策略决定是否重连
//
// # 连接门控
//
// Gater 维护被封禁的节点与 IP，网络层在拨号、接受连接、握手后查询。
// 可挂载存储引擎持久化封禁列表。
package connmgr
