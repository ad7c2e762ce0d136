// Package logger 提供 p2pcomm 的统一日志系统
//
// 基于标准库 log/slog，支持：
//   - 按子系统配置日志级别
//   - 环境变量配置（P2PCOMM_LOG_LEVEL, P2PCOMM_LOG_FORMAT）
//   - 运行时切换输出目标
//
// 使用示例:
//
//	var log = logger.Logger("core/swarm")
//
//	func foo() {
//	    log.Info("连接已建立", "peer", peer.ShortString())
//	    log.Debug("丢弃未匹配事件", "event", fmt.Sprintf("%T", ev))
//	}
//
// 环境变量配置:
//
//	# 所有子系统 info，core/swarm 为 debug
//	P2PCOMM_LOG_LEVEL=core/swarm=debug,info
//
//	# JSON 输出
//	P2PCOMM_LOG_FORMAT=json
package logger

import (
	"io"
	"log/slog"
	"sync"
)

var (
	// loggers 子系统 Logger 缓存
	loggers sync.Map // map[string]*slog.Logger

	// handlers 子系统 Handler 缓存（用于动态调整级别）
	handlers sync.Map // map[string]*subsystemHandler
)

// Logger 获取指定子系统的 Logger
//
// 同一子系统多次调用返回同一实例，级别由 P2PCOMM_LOG_LEVEL 决定。
func Logger(subsystem string) *slog.Logger {
	if l, ok := loggers.Load(subsystem); ok {
		return l.(*slog.Logger)
	}

	cfg := ConfigFromEnv()
	h := newHandler(subsystem, cfg.LevelForSubsystem(subsystem), cfg.Format, cfg.AddSource)

	actual, loaded := loggers.LoadOrStore(subsystem, slog.New(h))
	if !loaded {
		handlers.Store(subsystem, h)
	}
	return actual.(*slog.Logger)
}

// SetLevel 动态设置子系统的日志级别
func SetLevel(subsystem string, level slog.Level) {
	if h, ok := handlers.Load(subsystem); ok {
		h.(*subsystemHandler).SetLevel(level)
	}
}

// SetGlobalLevel 设置所有已创建子系统的日志级别
func SetGlobalLevel(level slog.Level) {
	handlers.Range(func(_, value any) bool {
		value.(*subsystemHandler).SetLevel(level)
		return true
	})
}

// ParseLevel 解析日志级别名称，无法识别时返回 info
func ParseLevel(name string) slog.Level {
	level, _ := parseLevel(name)
	return level
}

// Discard 返回丢弃所有日志的 Logger（测试用）
func Discard() *slog.Logger {
	return slog.New(discardHandler{})
}

// SetOutput 设置全局日志输出目标
//
// 已创建的 Logger 也会切换到新的输出。
func SetOutput(w io.Writer) {
	globalOutputMu.Lock()
	globalOutput = w
	globalOutputMu.Unlock()
}
