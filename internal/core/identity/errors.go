package identity

import "errors"

var (
	// ErrInvalidKeySize 私钥长度不是 Ed25519 私钥长度
	ErrInvalidKeySize = errors.New("invalid ed25519 private key size")

	// ErrInvalidPEM 无效的 PEM 数据
	ErrInvalidPEM = errors.New("invalid PEM data")

	// ErrKeyNotFound 密钥文件不存在
	ErrKeyNotFound = errors.New("key not found")

	// ErrNoCertificate 对端未提供证书
	ErrNoCertificate = errors.New("peer presented no certificate")

	// ErrUnsupportedKey 证书公钥不是 Ed25519
	ErrUnsupportedKey = errors.New("certificate key is not ed25519")

	// ErrPeerIDMismatch 对端身份与期望不一致
	ErrPeerIDMismatch = errors.New("peer id mismatch")
)
