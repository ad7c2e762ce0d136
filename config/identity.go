package config

// IdentityConfig 身份配置
type IdentityConfig struct {
	// KeyFile Ed25519 私钥文件路径（PEM）
	// 为空时在内存中生成临时密钥
	KeyFile string `json:"key_file"`

	// AutoGenerate 密钥文件不存在时是否生成并写入
	AutoGenerate bool `json:"auto_generate"`
}

// DefaultIdentityConfig 返回默认身份配置
func DefaultIdentityConfig() IdentityConfig {
	return IdentityConfig{
		AutoGenerate: true,
	}
}

// Validate 验证身份配置
func (c IdentityConfig) Validate() error {
	return nil
}
