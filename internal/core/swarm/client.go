package swarm

// askClient 把请求交给本地处理方并在时限内等待应答
//
// 超时后放弃等待，调用本身不会被中止；Ask 返回错误与超时等价。
func (s *Swarm[Req, Res, P]) askClient(req Req) (Res, bool) {
	var zero Res
	client := s.client
	if client == nil {
		log.Debug("未设置本地处理方，忽略入站请求")
		return zero, false
	}

	ctx, cancel := s.clock.WithTimeout(s.ctx, s.config.ClientTimeout)
	defer cancel()

	type answer struct {
		res Res
		err error
	}
	done := make(chan answer, 1)
	go func() {
		res, err := client.Ask(ctx, req)
		done <- answer{res: res, err: err}
	}()

	select {
	case a := <-done:
		if a.err != nil {
			log.Debug("本地处理方返回错误", "err", a.err)
			return zero, false
		}
		return a.res, true
	case <-ctx.Done():
		log.Debug("本地处理方未在时限内应答", "timeout", s.config.ClientTimeout)
		return zero, false
	}
}
