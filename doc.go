// Package p2pcomm 点对点通信引擎
//
// Comm 拥有一个网络层（默认基于 QUIC/TCP 的 netfabric），在单一事件循环中
// 协调出站与入站请求、防火墙、连接保活与中继路由。入站请求交给本地
// ClientRef 处理，所有等待（监听、连接、请求、本地处理）都有时限，默认 3 秒。
//
// # 快速开始
//
//	type Kind uint32
//
//	func (k Kind) Permission() uint32 { return uint32(k) }
//
//	type Msg struct {
//	    Kind Kind
//	    Text string
//	}
//
//	func (m Msg) PermissionKind() Kind { return m.Kind }
//
//	echo := interfaces.ClientFunc[Msg, string](func(_ context.Context, m Msg) (string, error) {
//	    return m.Text, nil
//	})
//
//	c, err := p2pcomm.New[Msg, string, Kind](echo)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := c.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer c.Close()
//
//	addr, _ := c.Listen(ctx, "")
//	res, err := c.Request(ctx, peer, Msg{Kind: 1, Text: "hi"})
//
// # 请求结果
//
// 本地防火墙拒绝与远端未在时限内应答都返回 *RejectedError，
// 可用 errors.Is(err, ErrRejected) 统一判断，By 字段区分两种情况。
// 传输层失败分别返回 *InboundError 与 *OutboundError。
//
// # 防火墙
//
// 每个节点、每个方向有一条权限规则，未设置时使用默认规则。
// 规则由 SetRules、AddPermissions、RemovePermissions、RemoveRule 构造，
// 经 ConfigureFirewall 应用。
package p2pcomm
