// Package identity 管理节点身份
//
// 节点身份是一把 Ed25519 私钥。PeerID 为公钥的 SHA-256，
// 同一把密钥同时签发传输层使用的自签名 TLS 证书，
// 对端从证书公钥重新派生 PeerID，因此身份不可伪造。
//
// # 快速开始
//
//	id, err := identity.Generate()
//	fmt.Println(id.PeerID())
//
//	// 持久化
//	err = id.SavePEM("node.key")
//	id, err = identity.LoadPEM("node.key")
//
//	// 传输层 TLS
//	conf, err := id.TLSConfig("p2pcomm")
//
// # Fx 模块
//
// Module() 根据 config.Identity 加载或生成密钥，提供 *Identity。
package identity
