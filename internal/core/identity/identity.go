package identity

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"

	"github.com/dep2p/go-p2pcomm/pkg/types"
)

// Identity 节点身份
//
// 创建后不可变，可在多个 goroutine 中共享。
type Identity struct {
	priv   ed25519.PrivateKey
	peerID types.PeerID
}

// Generate 生成新的随机身份
func Generate() (*Identity, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate ed25519 key: %w", err)
	}
	return FromPrivateKey(priv)
}

// FromPrivateKey 从 Ed25519 私钥创建身份
func FromPrivateKey(priv ed25519.PrivateKey) (*Identity, error) {
	if len(priv) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidKeySize, len(priv))
	}
	key := make(ed25519.PrivateKey, ed25519.PrivateKeySize)
	copy(key, priv)

	pub := key.Public().(ed25519.PublicKey)
	return &Identity{
		priv:   key,
		peerID: types.PeerIDFromPublicKey(pub),
	}, nil
}

// FromSeed 从 32 字节种子确定性地创建身份
func FromSeed(seed []byte) (*Identity, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("%w: seed must be %d bytes", ErrInvalidKeySize, ed25519.SeedSize)
	}
	return FromPrivateKey(ed25519.NewKeyFromSeed(seed))
}

// PeerID 返回节点 ID
func (i *Identity) PeerID() types.PeerID {
	return i.peerID
}

// PublicKey 返回公钥
func (i *Identity) PublicKey() ed25519.PublicKey {
	return i.priv.Public().(ed25519.PublicKey)
}

// PrivateKey 返回私钥
func (i *Identity) PrivateKey() ed25519.PrivateKey {
	return i.priv
}

// Sign 签名数据
func (i *Identity) Sign(data []byte) []byte {
	return ed25519.Sign(i.priv, data)
}

// Verify 验证 pub 对 data 的签名
func Verify(pub ed25519.PublicKey, data, sig []byte) bool {
	if len(pub) != ed25519.PublicKeySize || len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(pub, data, sig)
}
