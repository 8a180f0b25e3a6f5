package ikev2

import (
	"encoding/binary"
	"errors"
)

// 通知载荷 (RFC 7296 3.10 节)
type EncryptedPayloadNotify struct {
	ProtocolID ProtocolID
	SPI        []byte
	NotifyType uint16
	NotifyData []byte
}

func (p *EncryptedPayloadNotify) Type() PayloadType { return N }

func (p *EncryptedPayloadNotify) Encode() ([]byte, error) {
	// 头部: 1 协议 ID + 1 SPI 大小 + 2 通知类型 + SPI + 数据
	spiLen := len(p.SPI)
	if spiLen > 255 {
		return nil, errors.New("通知载荷 SPI 太长")
	}
	buf := make([]byte, 4+spiLen+len(p.NotifyData))

	buf[0] = uint8(p.ProtocolID)
	buf[1] = uint8(spiLen)
	binary.BigEndian.PutUint16(buf[2:4], p.NotifyType)

	copy(buf[4:], p.SPI)
	copy(buf[4+spiLen:], p.NotifyData)

	return buf, nil
}

func DecodePayloadNotify(data []byte) (*EncryptedPayloadNotify, error) {
	if len(data) < 4 {
		return nil, errors.New("通知载荷太短")
	}

	protoID := ProtocolID(data[0])
	spiLen := int(data[1])
	notifyType := binary.BigEndian.Uint16(data[2:4])

	if len(data) < 4+spiLen {
		return nil, errors.New("通知载荷对于 SPI 来说太短")
	}

	return &EncryptedPayloadNotify{
		ProtocolID: protoID,
		NotifyType: notifyType,
		SPI:        data[4 : 4+spiLen],
		NotifyData: data[4+spiLen:],
	}, nil
}

// NewSignatureHashAlgorithmsNotify 构造 SIGNATURE_HASH_ALGORITHMS 通知 (RFC 7427 4 节)
// 数据为 2 字节哈希算法标识的列表
func NewSignatureHashAlgorithmsNotify(hashIDs []uint16) *EncryptedPayloadNotify {
	data := make([]byte, 2*len(hashIDs))
	for i, id := range hashIDs {
		binary.BigEndian.PutUint16(data[2*i:], id)
	}
	return &EncryptedPayloadNotify{
		NotifyType: SIGNATURE_HASH_ALGORITHMS,
		NotifyData: data,
	}
}

// SignatureHashAlgorithms 解析 SIGNATURE_HASH_ALGORITHMS 通知中的哈希算法标识
func (p *EncryptedPayloadNotify) SignatureHashAlgorithms() ([]uint16, error) {
	if p.NotifyType != SIGNATURE_HASH_ALGORITHMS {
		return nil, errors.New("不是 SIGNATURE_HASH_ALGORITHMS 通知")
	}
	if len(p.NotifyData)%2 != 0 {
		return nil, errors.New("SIGNATURE_HASH_ALGORITHMS 数据长度必须为偶数")
	}
	ids := make([]uint16, 0, len(p.NotifyData)/2)
	for i := 0; i+2 <= len(p.NotifyData); i += 2 {
		ids = append(ids, binary.BigEndian.Uint16(p.NotifyData[i:i+2]))
	}
	return ids, nil
}
