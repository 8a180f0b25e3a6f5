package ikev2

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const IKE_HEADER_LEN = 28

// 标志位
const (
	FlagInitiator uint8 = 1 << 3
	FlagVersion   uint8 = 1 << 4 // IKEv2 中必须为 0
	FlagResponse  uint8 = 1 << 5
)

// IKE 头部 (RFC 7296 3.1 节)
type IKEHeader struct {
	SPIi         uint64
	SPIr         uint64
	NextPayload  PayloadType
	Version      uint8 // 高 4 位主版本，低 4 位次版本
	ExchangeType ExchangeType
	Flags        uint8
	MessageID    uint32
	Length       uint32 // 包括头部在内的消息总长度
}

func (h *IKEHeader) Encode() []byte {
	buf := make([]byte, 0, IKE_HEADER_LEN)
	buf = binary.BigEndian.AppendUint64(buf, h.SPIi)
	buf = binary.BigEndian.AppendUint64(buf, h.SPIr)
	buf = append(buf, uint8(h.NextPayload), h.Version, uint8(h.ExchangeType), h.Flags)
	buf = binary.BigEndian.AppendUint32(buf, h.MessageID)
	return binary.BigEndian.AppendUint32(buf, h.Length)
}

// DecodeHeader 只接受主版本 2
func DecodeHeader(data []byte) (*IKEHeader, error) {
	if len(data) < IKE_HEADER_LEN {
		return nil, errors.New("数据包太短，无法包含 IKE 头部")
	}
	if major := data[17] >> 4; major != 2 {
		return nil, fmt.Errorf("不支持的 IKE 主版本: %d", major)
	}
	return &IKEHeader{
		SPIi:         binary.BigEndian.Uint64(data[0:8]),
		SPIr:         binary.BigEndian.Uint64(data[8:16]),
		NextPayload:  PayloadType(data[16]),
		Version:      data[17],
		ExchangeType: ExchangeType(data[18]),
		Flags:        data[19],
		MessageID:    binary.BigEndian.Uint32(data[20:24]),
		Length:       binary.BigEndian.Uint32(data[24:28]),
	}, nil
}

func (h *IKEHeader) IsInitiator() bool { return h.Flags&FlagInitiator != 0 }
func (h *IKEHeader) IsResponse() bool  { return h.Flags&FlagResponse != 0 }

func (h *IKEHeader) String() string {
	dir := "request"
	if h.IsResponse() {
		dir = "response"
	}
	return fmt.Sprintf("%s %s #%d [SPIi=%016x SPIr=%016x next=%s len=%d]",
		h.ExchangeType, dir, h.MessageID, h.SPIi, h.SPIr, h.NextPayload, h.Length)
}
