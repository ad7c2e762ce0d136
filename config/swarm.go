package config

import (
	"errors"
	"time"
)

const (
	// DefaultWait 各类等待（监听、拨号、请求、本地调用）的默认时限
	DefaultWait = 3 * time.Second

	// DefaultListenAddr StartListening 未指定地址时使用
	DefaultListenAddr = "/ip4/0.0.0.0/tcp/0"

	defaultCommandBuffer = 64
	defaultTestWait      = 500 * time.Millisecond
)

// SwarmConfig 引擎配置
type SwarmConfig struct {
	// ListenTimeout 等待监听地址就绪的时限
	ListenTimeout Duration `json:"listen_timeout"`

	// DialTimeout 等待连接建立的时限
	DialTimeout Duration `json:"dial_timeout"`

	// RequestTimeout 等待出站请求响应的时限
	RequestTimeout Duration `json:"request_timeout"`

	// ClientTimeout 等待本地处理方响应的时限
	ClientTimeout Duration `json:"client_timeout"`

	// CommandBuffer 控制命令队列长度
	CommandBuffer int `json:"command_buffer"`

	// DefaultListenAddr StartListening 未指定地址时使用
	DefaultListenAddr string `json:"default_listen_addr"`
}

// DefaultSwarmConfig 返回默认引擎配置
func DefaultSwarmConfig() SwarmConfig {
	return SwarmConfig{
		ListenTimeout:     Duration(DefaultWait),
		DialTimeout:       Duration(DefaultWait),
		RequestTimeout:    Duration(DefaultWait),
		ClientTimeout:     Duration(DefaultWait),
		CommandBuffer:     defaultCommandBuffer,
		DefaultListenAddr: DefaultListenAddr,
	}
}

// Validate 验证引擎配置
func (c SwarmConfig) Validate() error {
	if c.ListenTimeout < 0 || c.DialTimeout < 0 || c.RequestTimeout < 0 || c.ClientTimeout < 0 {
		return errors.New("swarm: timeouts must not be negative")
	}
	if c.CommandBuffer < 0 {
		return errors.New("swarm: command_buffer must not be negative")
	}
	return nil
}

// Listen 返回监听等待时限，未设置时为默认值
func (c SwarmConfig) Listen() time.Duration { return c.ListenTimeout.orDefault(DefaultWait) }

// Dial 返回拨号等待时限
func (c SwarmConfig) Dial() time.Duration { return c.DialTimeout.orDefault(DefaultWait) }

// Request 返回请求等待时限
func (c SwarmConfig) Request() time.Duration { return c.RequestTimeout.orDefault(DefaultWait) }

// Client 返回本地调用等待时限
func (c SwarmConfig) Client() time.Duration { return c.ClientTimeout.orDefault(DefaultWait) }
