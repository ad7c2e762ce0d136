package types

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"strconv"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"
)

// ============================================================================
//                              PeerID - 节点标识
// ============================================================================

// PeerID 节点唯一标识符
//
// 由 Ed25519 公钥的 SHA-256 哈希派生。
// 外部表示：
//   - String(): Base58 编码（信封 source/target 的线上表示）
//   - ShortString(): Base58 前 8 个字符（日志）
type PeerID [32]byte

// EmptyPeerID 空节点 ID
var EmptyPeerID PeerID

// ErrInvalidPeerID 无效的节点 ID
var ErrInvalidPeerID = errors.New("invalid peer id: must be 32 bytes base58")

// String 返回 Base58 字符串表示
func (id PeerID) String() string {
	if id.IsEmpty() {
		return ""
	}
	return base58.Encode(id[:])
}

// ShortString 返回短字符串表示（日志用）
func (id PeerID) ShortString() string {
	s := id.String()
	if len(s) > 8 {
		return s[:8]
	}
	return s
}

// Bytes 返回字节切片副本
func (id PeerID) Bytes() []byte {
	b := make([]byte, len(id))
	copy(b, id[:])
	return b
}

// IsEmpty 检查是否为空
func (id PeerID) IsEmpty() bool {
	return id == EmptyPeerID
}

// MarshalText 实现 encoding.TextMarshaler
func (id PeerID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler
func (id *PeerID) UnmarshalText(text []byte) error {
	parsed, err := ParsePeerID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ParsePeerID 从 Base58 字符串解析 PeerID
func ParsePeerID(s string) (PeerID, error) {
	if s == "" {
		return EmptyPeerID, ErrInvalidPeerID
	}
	b, err := base58.Decode(s)
	if err != nil || len(b) != len(PeerID{}) {
		return EmptyPeerID, ErrInvalidPeerID
	}
	var id PeerID
	copy(id[:], b)
	return id, nil
}

// PeerIDFromBytes 从 32 字节创建 PeerID
func PeerIDFromBytes(b []byte) (PeerID, error) {
	if len(b) != len(PeerID{}) {
		return EmptyPeerID, ErrInvalidPeerID
	}
	var id PeerID
	copy(id[:], b)
	return id, nil
}

// PeerIDFromPublicKey 从 Ed25519 公钥派生 PeerID
func PeerIDFromPublicKey(pub ed25519.PublicKey) PeerID {
	return PeerID(sha256.Sum256(pub))
}

// RandomPeerID 生成随机 PeerID（测试和内存网络使用）
func RandomPeerID() PeerID {
	var id PeerID
	if _, err := rand.Read(id[:]); err != nil {
		panic("crypto/rand unavailable: " + err.Error())
	}
	return id
}

// ============================================================================
//                              RequestID - 请求标识
// ============================================================================

// RequestID 由网络层为每个请求分配的唯一标识
//
// 使用 UUIDv4，跨重连全局唯一：迟到的事件永远不会匹配到更新的等待。
type RequestID uuid.UUID

// NewRequestID 生成新的请求 ID
func NewRequestID() RequestID {
	return RequestID(uuid.New())
}

// String 返回请求 ID 的字符串表示
func (id RequestID) String() string {
	return uuid.UUID(id).String()
}

// IsZero 检查是否为零值
func (id RequestID) IsZero() bool {
	return id == RequestID{}
}

// ============================================================================
//                              ListenerID - 监听器标识
// ============================================================================

// ListenerID 网络层分配的监听器标识
type ListenerID uint64

// String 返回监听器 ID 的字符串表示
func (id ListenerID) String() string {
	return "listener-" + strconv.FormatUint(uint64(id), 10)
}
