package interfaces

import "context"

// ClientRef 本地请求处理方
//
// 引擎以 ctx 携带的截止时间调用 Ask，超时后放弃等待但不会中止调用。
// Ask 返回错误与超时等价：不向对端发送任何响应。
type ClientRef[Req, Res any] interface {
	Ask(ctx context.Context, req Req) (Res, error)
}

// ClientFunc 将函数适配为 ClientRef
type ClientFunc[Req, Res any] func(ctx context.Context, req Req) (Res, error)

// Ask 实现 ClientRef
func (f ClientFunc[Req, Res]) Ask(ctx context.Context, req Req) (Res, error) {
	return f(ctx, req)
}
