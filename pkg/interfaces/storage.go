package interfaces

import "errors"

// ErrNotFound 键不存在
var ErrNotFound = errors.New("storage: key not found")

// Engine 键值存储引擎
//
// 引擎用它保存防火墙快照，Gater 用它保存封禁列表；默认实现为 BadgerDB。
// 所有方法必须可以并发调用。
//
//	db, err := storage.Open(storage.Config{Path: "./data/p2pcomm.db"})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	_ = db.Put([]byte("firewall/snapshot"), data)
type Engine interface {
	// Get 返回值的副本，键不存在时返回 ErrNotFound
	Get(key []byte) ([]byte, error)

	// Put 写入或覆盖
	Put(key, value []byte) error

	// Delete 删除键，键不存在时不报错
	Delete(key []byte) error

	// Has 检查键是否存在
	Has(key []byte) (bool, error)

	// Scan 按键序遍历前缀下的所有键值对
	//
	// fn 收到的切片仅在回调内有效；fn 返回错误时停止遍历并返回该错误。
	Scan(prefix []byte, fn func(key, value []byte) error) error

	// Close 关闭引擎，可重复调用
	Close() error
}
