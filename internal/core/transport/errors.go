package transport

import "errors"

// ErrNoTransport 没有可拨号或监听该地址的传输
var ErrNoTransport = errors.New("no transport for address")

// ErrNoTransportsEnabled 配置未启用任何传输
var ErrNoTransportsEnabled = errors.New("no transports enabled")
