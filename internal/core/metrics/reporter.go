package metrics

import "github.com/dep2p/go-p2pcomm/pkg/types"

// Reporter 载荷字节上报
//
// 网络层每读写一帧调用一次。
type Reporter interface {
	LogSentMessage(size int64, p types.PeerID)
	LogRecvMessage(size int64, p types.PeerID)
	GetBandwidthTotals() Stats
	GetBandwidthForPeer(p types.PeerID) Stats
}

var (
	_ Reporter = (*BandwidthCounter)(nil)
	_ Reporter = (*Collector)(nil)
)

// GetBandwidthTotals 返回总带宽统计
func (c *Collector) GetBandwidthTotals() Stats {
	return c.bandwidth.GetBandwidthTotals()
}

// GetBandwidthForPeer 返回节点带宽统计
func (c *Collector) GetBandwidthForPeer(p types.PeerID) Stats {
	return c.bandwidth.GetBandwidthForPeer(p)
}
