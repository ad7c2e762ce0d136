package config

import (
	"errors"
	"regexp"
)

var namespacePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// MetricsConfig Prometheus 指标配置
type MetricsConfig struct {
	Enable bool `json:"enable"`

	// Namespace 指标名前缀
	Namespace string `json:"namespace"`
}

// DefaultMetricsConfig 默认启用指标
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enable:    true,
		Namespace: "p2pcomm",
	}
}

// Validate 验证指标配置
func (c MetricsConfig) Validate() error {
	if c.Enable && !namespacePattern.MatchString(c.Namespace) {
		return errors.New("metrics: namespace must match [a-zA-Z_][a-zA-Z0-9_]*")
	}
	return nil
}
