package relay

import "errors"

var (
	// ErrServiceDisabled 未启用中继转发
	ErrServiceDisabled = errors.New("relay: service disabled")

	// ErrRateLimited 来源节点超出转发速率
	ErrRateLimited = errors.New("relay: rate limited")

	// ErrTooManyCircuits 来源节点并发转发数超限
	ErrTooManyCircuits = errors.New("relay: too many circuits")

	// ErrResourceLimitExceeded 总并发转发数超限
	ErrResourceLimitExceeded = errors.New("relay: resource limit exceeded")
)
