package ikev2

import (
	"encoding/binary"
	"errors"
)

// Payload 可编码的载荷主体，不含通用头部
type Payload interface {
	Type() PayloadType
	Encode() ([]byte, error)
}

const PAYLOAD_HEADER_LEN = 4

// 通用载荷头部 (RFC 7296 3.2 节)
type PayloadHeader struct {
	NextPayload   PayloadType
	Critical      bool
	PayloadLength uint16 // 包括头部
}

func (h *PayloadHeader) Encode() []byte {
	var flags uint8
	if h.Critical {
		flags = 0x80
	}
	// 其余 7 位保留
	buf := []byte{uint8(h.NextPayload), flags}
	return binary.BigEndian.AppendUint16(buf, h.PayloadLength)
}

func DecodePayloadHeader(data []byte) (*PayloadHeader, error) {
	if len(data) < PAYLOAD_HEADER_LEN {
		return nil, errors.New("通用载荷头部太短")
	}
	return &PayloadHeader{
		NextPayload:   PayloadType(data[0]),
		Critical:      data[1]&0x80 != 0,
		PayloadLength: binary.BigEndian.Uint16(data[2:4]),
	}, nil
}
