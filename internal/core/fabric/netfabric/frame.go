package netfabric

import (
	"fmt"
	"io"

	"google.golang.org/protobuf/encoding/protowire"
)

// ProtocolID 请求/响应流协议
const ProtocolID = "/p2pcomm/reqres/1.0.0"

const (
	fieldSource  protowire.Number = 1
	fieldTarget  protowire.Number = 2
	fieldPayload protowire.Number = 3

	fieldResponsePayload protowire.Number = 1
)

// maxVarintLen uint64 varint 最长字节数
const maxVarintLen = 10

type requestFrame struct {
	source  string
	target  string
	payload []byte
}

func (f requestFrame) marshal() []byte {
	b := make([]byte, 0, len(f.source)+len(f.target)+len(f.payload)+16)
	b = protowire.AppendTag(b, fieldSource, protowire.BytesType)
	b = protowire.AppendString(b, f.source)
	b = protowire.AppendTag(b, fieldTarget, protowire.BytesType)
	b = protowire.AppendString(b, f.target)
	b = protowire.AppendTag(b, fieldPayload, protowire.BytesType)
	b = protowire.AppendBytes(b, f.payload)
	return b
}

// unmarshalRequest 解析请求帧体，未知字段跳过
func unmarshalRequest(b []byte) (requestFrame, error) {
	var f requestFrame
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return f, malformed(n)
		}
		b = b[n:]

		if typ != protowire.BytesType || num < fieldSource || num > fieldPayload {
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return f, malformed(n)
			}
			b = b[n:]
			continue
		}

		v, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return f, malformed(n)
		}
		b = b[n:]
		switch num {
		case fieldSource:
			f.source = string(v)
		case fieldTarget:
			f.target = string(v)
		case fieldPayload:
			f.payload = append([]byte(nil), v...)
		}
	}
	return f, nil
}

func marshalResponse(payload []byte) []byte {
	b := make([]byte, 0, len(payload)+8)
	b = protowire.AppendTag(b, fieldResponsePayload, protowire.BytesType)
	return protowire.AppendBytes(b, payload)
}

func unmarshalResponse(b []byte) ([]byte, error) {
	var payload []byte
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, malformed(n)
		}
		b = b[n:]

		if num == fieldResponsePayload && typ == protowire.BytesType {
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, malformed(n)
			}
			payload = append([]byte(nil), v...)
			b = b[n:]
			continue
		}
		n = protowire.ConsumeFieldValue(num, typ, b)
		if n < 0 {
			return nil, malformed(n)
		}
		b = b[n:]
	}
	return payload, nil
}

func malformed(n int) error {
	return fmt.Errorf("%w: %v", ErrMalformedFrame, protowire.ParseError(n))
}

// writeFrame 写入 varint 长度前缀与帧体
func writeFrame(w io.Writer, body []byte) error {
	buf := make([]byte, 0, maxVarintLen+len(body))
	buf = protowire.AppendVarint(buf, uint64(len(body)))
	buf = append(buf, body...)
	_, err := w.Write(buf)
	return err
}

// readFrame 读取一帧，长度超过 limit 时返回 ErrFrameTooLarge
func readFrame(r io.Reader, limit int) ([]byte, error) {
	size, err := readUvarint(r)
	if err != nil {
		return nil, err
	}
	if size > uint64(limit) {
		return nil, fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, size, limit)
	}

	body := make([]byte, size)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}
	return body, nil
}

// readUvarint 逐字节读取，不会读过帧边界
func readUvarint(r io.Reader) (uint64, error) {
	var (
		buf [maxVarintLen]byte
		one [1]byte
	)
	for i := 0; i < maxVarintLen; i++ {
		if _, err := io.ReadFull(r, one[:]); err != nil {
			if i > 0 && err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return 0, err
		}
		buf[i] = one[0]
		if one[0] < 0x80 {
			v, n := protowire.ConsumeVarint(buf[:i+1])
			if n < 0 {
				return 0, malformed(n)
			}
			return v, nil
		}
	}
	return 0, fmt.Errorf("%w: varint overflow", ErrMalformedFrame)
}
