// Package storage 提供基于 BadgerDB 的键值存储
//
// 用于持久化防火墙规则快照与节点封禁列表，各组件通过键前缀隔离：
//
//	firewall/snapshot      防火墙快照（JSON）
//	connmgr/ban/<peer>     被封禁节点
//
// # 使用示例
//
//	db, err := storage.Open(storage.Config{Path: "/data/p2pcomm.db"})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
package storage
