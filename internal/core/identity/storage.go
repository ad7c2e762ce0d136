package identity

import (
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const pemTypePrivate = "ED25519 PRIVATE KEY"

// SavePEM 保存私钥到 PEM 文件
//
// 使用临时文件 + rename 原子写入，权限 0600。
func (i *Identity) SavePEM(path string) error {
	data := pem.EncodeToMemory(&pem.Block{Type: pemTypePrivate, Bytes: i.priv.Seed()})
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create key dir: %w", err)
	}
	return atomicWriteFile(path, data, 0o600)
}

// LoadPEM 从 PEM 文件加载私钥
func LoadPEM(path string) (*Identity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, path)
		}
		return nil, err
	}

	block, _ := pem.Decode(data)
	if block == nil || block.Type != pemTypePrivate {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPEM, path)
	}
	return FromSeed(block.Bytes)
}

// LoadOrGenerate 加载 path 中的密钥
//
// path 为空时生成临时身份；文件不存在且 autoGenerate 时生成并写入。
func LoadOrGenerate(path string, autoGenerate bool) (*Identity, error) {
	if path == "" {
		return Generate()
	}

	id, err := LoadPEM(path)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, ErrKeyNotFound) || !autoGenerate {
		return nil, err
	}

	id, err = Generate()
	if err != nil {
		return nil, err
	}
	if err := id.SavePEM(path); err != nil {
		return nil, fmt.Errorf("save generated key: %w", err)
	}
	log.Info("已生成节点密钥", "path", path, "peer", id.PeerID().ShortString())
	return id, nil
}

// atomicWriteFile 写入同目录临时文件后 rename，失败时目标文件保持不变
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	ok := false
	defer func() {
		if !ok {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	ok = true
	return nil
}
