package ikev2

import (
	"bytes"
	"crypto/x509/pkix"
	"encoding/asn1"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
)

// 身份类型 (RFC 7296 3.5 节)
type IDType uint8

const (
	ID_IPV4_ADDR   IDType = 1
	ID_FQDN        IDType = 2
	ID_RFC822_ADDR IDType = 3
	ID_IPV6_ADDR   IDType = 5
	ID_DER_ASN1_DN IDType = 9
	ID_DER_ASN1_GN IDType = 10
	ID_KEY_ID      IDType = 11
)

// Identification IKE 身份 (ID 类型 + 数据)
type Identification struct {
	Type IDType
	Data []byte
}

func NewFQDN(name string) Identification {
	return Identification{Type: ID_FQDN, Data: []byte(name)}
}

func NewRFC822(addr string) Identification {
	return Identification{Type: ID_RFC822_ADDR, Data: []byte(addr)}
}

func NewIPAddr(ip net.IP) Identification {
	if v4 := ip.To4(); v4 != nil {
		return Identification{Type: ID_IPV4_ADDR, Data: append([]byte(nil), v4...)}
	}
	return Identification{Type: ID_IPV6_ADDR, Data: append([]byte(nil), ip.To16()...)}
}

// NewDN 使用 DER 编码的 Name 构造身份
func NewDN(rawSubject []byte) Identification {
	return Identification{Type: ID_DER_ASN1_DN, Data: append([]byte(nil), rawSubject...)}
}

func NewKeyID(keyID []byte) Identification {
	return Identification{Type: ID_KEY_ID, Data: append([]byte(nil), keyID...)}
}

func (id Identification) Equal(other Identification) bool {
	return id.Type == other.Type && bytes.Equal(id.Data, other.Data)
}

func (id Identification) IsEmpty() bool {
	return len(id.Data) == 0
}

func (id Identification) String() string {
	switch id.Type {
	case ID_FQDN, ID_RFC822_ADDR:
		return string(id.Data)
	case ID_IPV4_ADDR, ID_IPV6_ADDR:
		return net.IP(id.Data).String()
	case ID_DER_ASN1_DN:
		var rdn pkix.RDNSequence
		if rest, err := asn1.Unmarshal(id.Data, &rdn); err == nil && len(rest) == 0 {
			var name pkix.Name
			name.FillFromRDNSequence(&rdn)
			return name.String()
		}
	case ID_KEY_ID:
		return "keyid:" + hex.EncodeToString(id.Data)
	}
	return fmt.Sprintf("%d:%s", id.Type, hex.EncodeToString(id.Data))
}

// 身份标识载荷 (RFC 7296 3.5 节)
type EncryptedPayloadID struct {
	IDType      IDType
	Reserved    [3]byte // 参与 AUTH 计算，必须原样保留
	IDData      []byte
	IsInitiator bool // 辅助字段，用于确定 Type() 返回值
}

func NewPayloadID(id Identification, isInitiator bool) *EncryptedPayloadID {
	return &EncryptedPayloadID{
		IDType:      id.Type,
		IDData:      id.Data,
		IsInitiator: isInitiator,
	}
}

func (p *EncryptedPayloadID) Type() PayloadType {
	if p.IsInitiator {
		return IDi
	}
	return IDr
}

func (p *EncryptedPayloadID) Identification() Identification {
	return Identification{Type: p.IDType, Data: p.IDData}
}

func (p *EncryptedPayloadID) Encode() ([]byte, error) {
	// 头部: 1 字节 ID 类型 + 3 字节保留 + 数据
	buf := make([]byte, 4+len(p.IDData))
	buf[0] = uint8(p.IDType)
	copy(buf[1:4], p.Reserved[:])
	copy(buf[4:], p.IDData)
	return buf, nil
}

func DecodePayloadID(data []byte, isInitiator bool) (*EncryptedPayloadID, error) {
	if len(data) < 4 {
		return nil, errors.New("ID 载荷太短")
	}
	p := &EncryptedPayloadID{
		IDType:      IDType(data[0]),
		IDData:      append([]byte(nil), data[4:]...),
		IsInitiator: isInitiator,
	}
	copy(p.Reserved[:], data[1:4])
	return p, nil
}
