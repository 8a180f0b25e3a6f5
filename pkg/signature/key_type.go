package signature

import "fmt"

// KeyType 公钥算法类型
type KeyType uint8

const (
	KeyAny KeyType = iota
	KeyRSA
	KeyECDSA
	KeyEd25519
)

func (t KeyType) String() string {
	switch t {
	case KeyAny:
		return "ANY"
	case KeyRSA:
		return "RSA"
	case KeyECDSA:
		return "ECDSA"
	case KeyEd25519:
		return "ED25519"
	}
	return fmt.Sprintf("KEY(%d)", uint8(t))
}

// Matches 判断 t 是否满足 want，KeyAny 匹配任意类型
func (t KeyType) Matches(want KeyType) bool {
	return want == KeyAny || t == want
}
