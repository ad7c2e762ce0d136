// Package firewall 实现按方向、按节点的请求权限策略
//
// 每个 (节点, 方向) 查找都会解析到某条规则：节点显式规则优先，
// 否则使用该方向的默认规则。查找永不失败。
//
// 显式规则是写入时的快照：之后修改默认规则不会改变已经写入的节点规则。
//
// Firewall 由引擎的单一 goroutine 独占，不加锁。
package firewall
