package ikev2

import "errors"

// Nonce 载荷 (RFC 7296 3.9 节)
type EncryptedPayloadNonce struct {
	NonceData []byte
}

func (p *EncryptedPayloadNonce) Type() PayloadType { return NiNr }

func (p *EncryptedPayloadNonce) Encode() ([]byte, error) {
	if len(p.NonceData) < 16 || len(p.NonceData) > 256 {
		return nil, errors.New("Nonce 长度必须在 16 到 256 字节之间")
	}
	return p.NonceData, nil
}

func DecodePayloadNonce(data []byte) (*EncryptedPayloadNonce, error) {
	if len(data) < 16 || len(data) > 256 {
		return nil, errors.New("Nonce 载荷长度无效")
	}
	return &EncryptedPayloadNonce{NonceData: append([]byte(nil), data...)}, nil
}
