package ikev2

import (
	"errors"
	"fmt"
)

type IKEPacket struct {
	Header   *IKEHeader
	Payloads []Payload
}

func NewIKEPacket(exchange ExchangeType, messageID uint32) *IKEPacket {
	return &IKEPacket{
		Header: &IKEHeader{
			Version:      0x20,
			ExchangeType: exchange,
			MessageID:    messageID,
		},
		Payloads: []Payload{},
	}
}

// Add 追加一个载荷
func (p *IKEPacket) Add(pl Payload) {
	p.Payloads = append(p.Payloads, pl)
}

// Get 返回第一个指定类型的载荷，不存在时返回 nil
func (p *IKEPacket) Get(t PayloadType) Payload {
	for _, pl := range p.Payloads {
		if pl.Type() == t {
			return pl
		}
	}
	return nil
}

// Notify 返回第一个指定类型的通知载荷
func (p *IKEPacket) Notify(notifyType uint16) *EncryptedPayloadNotify {
	for _, pl := range p.Payloads {
		if n, ok := pl.(*EncryptedPayloadNotify); ok && n.NotifyType == notifyType {
			return n
		}
	}
	return nil
}

func (p *IKEPacket) Encode() ([]byte, error) {
	if p.Header == nil {
		return nil, errors.New("IKE 头部缺失")
	}
	payloadsData, err := EncodePayloads(p.Payloads)
	if err != nil {
		return nil, err
	}

	if len(p.Payloads) > 0 {
		p.Header.NextPayload = p.Payloads[0].Type()
	} else {
		p.Header.NextPayload = NoNextPayload
	}
	p.Header.Length = uint32(IKE_HEADER_LEN + len(payloadsData))

	return append(p.Header.Encode(), payloadsData...), nil
}

// EncodePayloads 编码载荷链，每个通用头部的 NextPayload 指向下一个载荷
func EncodePayloads(payloads []Payload) ([]byte, error) {
	var out []byte
	for i, pl := range payloads {
		nextPlType := NoNextPayload
		if i < len(payloads)-1 {
			nextPlType = payloads[i+1].Type()
		}

		body, err := pl.Encode()
		if err != nil {
			return nil, fmt.Errorf("编码载荷 %s 失败: %v", pl.Type(), err)
		}
		if PAYLOAD_HEADER_LEN+len(body) > 0xffff {
			return nil, fmt.Errorf("载荷 %s 太长", pl.Type())
		}

		genHeader := &PayloadHeader{
			NextPayload:   nextPlType,
			PayloadLength: uint16(PAYLOAD_HEADER_LEN + len(body)),
		}
		if raw, ok := pl.(*RawPayload); ok {
			genHeader.Critical = raw.Critical
		}
		out = append(out, genHeader.Encode()...)
		out = append(out, body...)
	}
	return out, nil
}

func DecodePacket(data []byte) (*IKEPacket, error) {
	header, err := DecodeHeader(data)
	if err != nil {
		return nil, err
	}
	if int(header.Length) > len(data) || header.Length < IKE_HEADER_LEN {
		return nil, errors.New("IKE 头部长度字段无效")
	}

	payloads, err := DecodePayloads(header.NextPayload, data[IKE_HEADER_LEN:header.Length])
	if err != nil {
		return nil, err
	}
	return &IKEPacket{Header: header, Payloads: payloads}, nil
}

// DecodePayloads 从 first 开始遍历载荷链
func DecodePayloads(first PayloadType, data []byte) ([]Payload, error) {
	payloads := []Payload{}
	offset := 0
	nextPayloadType := first

	for nextPayloadType != NoNextPayload {
		if offset+PAYLOAD_HEADER_LEN > len(data) {
			return nil, errors.New("数据包太短，无法包含载荷头部")
		}

		genHeader, err := DecodePayloadHeader(data[offset : offset+PAYLOAD_HEADER_LEN])
		if err != nil {
			return nil, err
		}

		payloadLen := int(genHeader.PayloadLength)
		if payloadLen < PAYLOAD_HEADER_LEN || offset+payloadLen > len(data) {
			return nil, errors.New("数据包太短，无法包含载荷主体")
		}

		payloadBody := data[offset+PAYLOAD_HEADER_LEN : offset+payloadLen]

		var payload Payload
		switch nextPayloadType {
		case IDi:
			payload, err = DecodePayloadID(payloadBody, true)
		case IDr:
			payload, err = DecodePayloadID(payloadBody, false)
		case AUTH:
			payload, err = DecodePayloadAuth(payloadBody)
		case NiNr:
			payload, err = DecodePayloadNonce(payloadBody)
		case N:
			payload, err = DecodePayloadNotify(payloadBody)
		default:
			// 认证流程不关心的载荷原样保留
			payload = &RawPayload{
				PType:    nextPayloadType,
				Critical: genHeader.Critical,
				Data:     append([]byte(nil), payloadBody...),
			}
		}

		if err != nil {
			return nil, fmt.Errorf("解码载荷类型 %d 失败: %v", nextPayloadType, err)
		}

		payloads = append(payloads, payload)

		nextPayloadType = genHeader.NextPayload
		offset += payloadLen
	}

	return payloads, nil
}

// RawPayload 用于未知类型
type RawPayload struct {
	PType    PayloadType
	Critical bool
	Data     []byte
}

func (p *RawPayload) Type() PayloadType       { return p.PType }
func (p *RawPayload) Encode() ([]byte, error) { return p.Data, nil }
