package interfaces

// Codec 请求/响应载荷编解码
//
// 网络层用它把应用消息转成字节；引擎本身不关心线上格式。
type Codec[Req, Res any] interface {
	EncodeRequest(req Req) ([]byte, error)
	DecodeRequest(data []byte) (Req, error)
	EncodeResponse(res Res) ([]byte, error)
	DecodeResponse(data []byte) (Res, error)
}
