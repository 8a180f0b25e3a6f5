package ikev2

import (
	"errors"
	"fmt"
)

// 认证方法 (RFC 7296 3.8 节, RFC 4754, RFC 7427)
type AuthMethod uint8

const (
	AuthMethodNone             AuthMethod = 0
	AuthMethodRSASig           AuthMethod = 1
	AuthMethodSharedKey        AuthMethod = 2
	AuthMethodDSSSig           AuthMethod = 3
	AuthMethodECDSA256         AuthMethod = 9
	AuthMethodECDSA384         AuthMethod = 10
	AuthMethodECDSA521         AuthMethod = 11
	AuthMethodDigitalSignature AuthMethod = 14
)

func (m AuthMethod) String() string {
	switch m {
	case AuthMethodNone:
		return "NONE"
	case AuthMethodRSASig:
		return "RSA signature"
	case AuthMethodSharedKey:
		return "pre-shared key"
	case AuthMethodDSSSig:
		return "DSS signature"
	case AuthMethodECDSA256:
		return "ECDSA-256 signature"
	case AuthMethodECDSA384:
		return "ECDSA-384 signature"
	case AuthMethodECDSA521:
		return "ECDSA-521 signature"
	case AuthMethodDigitalSignature:
		return "digital signature"
	}
	return fmt.Sprintf("AUTH_METHOD(%d)", uint8(m))
}

// 认证载荷 (RFC 7296 3.8 节)
// 数字签名方法 (14) 的 AuthData 以 RFC 7427 的 AlgorithmIdentifier 块开头，
// 其余方法的 AuthData 即为签名本身。
type EncryptedPayloadAuth struct {
	AuthMethod AuthMethod
	AuthData   []byte
}

func (p *EncryptedPayloadAuth) Type() PayloadType { return AUTH }

func (p *EncryptedPayloadAuth) Encode() ([]byte, error) {
	// 头部: 1 字节认证方法 + 3 字节保留 + 数据
	buf := make([]byte, 4+len(p.AuthData))
	buf[0] = uint8(p.AuthMethod)
	copy(buf[4:], p.AuthData)
	return buf, nil
}

func DecodePayloadAuth(data []byte) (*EncryptedPayloadAuth, error) {
	if len(data) < 4 {
		return nil, errors.New("认证载荷太短")
	}
	authData := make([]byte, len(data)-4)
	copy(authData, data[4:])
	return &EncryptedPayloadAuth{
		AuthMethod: AuthMethod(data[0]),
		AuthData:   authData,
	}, nil
}
