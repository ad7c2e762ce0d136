package netfabric

import (
	"encoding/json"

	pkgif "github.com/dep2p/go-p2pcomm/pkg/interfaces"
)

// JSONCodec 以 JSON 编码请求与响应载荷
type JSONCodec[Req, Res any] struct{}

var _ pkgif.Codec[struct{}, struct{}] = JSONCodec[struct{}, struct{}]{}

// EncodeRequest 实现 Codec
func (JSONCodec[Req, Res]) EncodeRequest(req Req) ([]byte, error) { return json.Marshal(req) }

// DecodeRequest 实现 Codec
func (JSONCodec[Req, Res]) DecodeRequest(data []byte) (Req, error) {
	var req Req
	err := json.Unmarshal(data, &req)
	return req, err
}

// EncodeResponse 实现 Codec
func (JSONCodec[Req, Res]) EncodeResponse(res Res) ([]byte, error) { return json.Marshal(res) }

// DecodeResponse 实现 Codec
func (JSONCodec[Req, Res]) DecodeResponse(data []byte) (Res, error) {
	var res Res
	err := json.Unmarshal(data, &res)
	return res, err
}
