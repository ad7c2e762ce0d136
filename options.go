package p2pcomm

import (
	"crypto/ed25519"
	"errors"
	"fmt"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/dep2p/go-p2pcomm/config"
	pkgif "github.com/dep2p/go-p2pcomm/pkg/interfaces"
)

// Option 配置选项
type Option func(*options) error

// options 内部选项结构
type options struct {
	config *config.Config
	preset string

	// 身份
	keyFile    string
	privateKey ed25519.PrivateKey

	listenAddrs    []string
	listenAddrsSet bool

	// 类型在 New 中按 Comm 的类型参数断言
	fabric any
	codec  any

	clock      clock.Clock
	registerer prometheus.Registerer
	store      pkgif.Engine

	fxOptions []fx.Option
}

func newOptions() *options {
	return &options{}
}

func (o *options) apply(opts ...Option) error {
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(o); err != nil {
			return err
		}
	}
	return nil
}

// resolveConfig 合并基础配置、预设与单项覆盖，返回验证过的副本
func (o *options) resolveConfig() (*config.Config, error) {
	cfg := config.NewConfig()
	if o.config != nil {
		cfg = o.config.Clone()
	}
	if err := config.ApplyPreset(cfg, o.preset); err != nil {
		return nil, err
	}
	if o.keyFile != "" {
		cfg.Identity.KeyFile = o.keyFile
	}
	if o.listenAddrsSet {
		cfg.Transport.ListenAddrs = append([]string(nil), o.listenAddrs...)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// WithConfig 使用完整配置作为基础，后续选项在其副本上覆盖
func WithConfig(cfg *config.Config) Option {
	return func(o *options) error {
		if cfg == nil {
			return errors.New("config is nil")
		}
		o.config = cfg
		return nil
	}
}

// WithPreset 应用预设："server"、"minimal"、"test"
func WithPreset(name string) Option {
	return func(o *options) error {
		o.preset = name
		return nil
	}
}

// WithKeyFile 从 PEM 文件加载身份，文件不存在时按 Identity.AutoGenerate 生成
func WithKeyFile(path string) Option {
	return func(o *options) error {
		o.keyFile = path
		return nil
	}
}

// WithIdentity 使用给定的 Ed25519 私钥
func WithIdentity(priv ed25519.PrivateKey) Option {
	return func(o *options) error {
		if len(priv) != ed25519.PrivateKeySize {
			return fmt.Errorf("invalid ed25519 private key length: %d", len(priv))
		}
		o.privateKey = priv
		return nil
	}
}

// WithListenAddrs 设置 Start 时监听的地址
//
// 引擎只跟踪最后一个就绪的监听器，多个地址时前面的监听器仍然工作。
func WithListenAddrs(addrs ...string) Option {
	return func(o *options) error {
		o.listenAddrs = addrs
		o.listenAddrsSet = true
		return nil
	}
}

// WithFabric 使用外部网络层替代内置的 QUIC/TCP 网络层
//
// Req、Res 必须与 Comm 的类型参数一致。外部网络层由调用方关闭。
func WithFabric[Req, Res any](f pkgif.Fabric[Req, Res]) Option {
	return func(o *options) error {
		if f == nil {
			return errors.New("fabric is nil")
		}
		o.fabric = f
		return nil
	}
}

// WithCodec 替换内置网络层的载荷编解码（默认 JSON）
func WithCodec[Req, Res any](c pkgif.Codec[Req, Res]) Option {
	return func(o *options) error {
		if c == nil {
			return errors.New("codec is nil")
		}
		o.codec = c
		return nil
	}
}

// WithClock 注入时钟，测试中使用 clock.NewMock()
func WithClock(c clock.Clock) Option {
	return func(o *options) error {
		o.clock = c
		return nil
	}
}

// WithRegisterer 把指标注册到给定的 Prometheus Registerer
func WithRegisterer(r prometheus.Registerer) Option {
	return func(o *options) error {
		o.registerer = r
		return nil
	}
}

// WithStore 使用外部存储引擎持久化防火墙规则与封禁列表，由调用方关闭
func WithStore(s pkgif.Engine) Option {
	return func(o *options) error {
		o.store = s
		return nil
	}
}

// WithFxOptions 追加自定义 Fx 选项
func WithFxOptions(opts ...fx.Option) Option {
	return func(o *options) error {
		o.fxOptions = append(o.fxOptions, opts...)
		return nil
	}
}
