package signature

import (
	"crypto"
	"encoding/asn1"
	"fmt"
)

// HashAlgorithm 签名哈希算法，取值为 IKEv2 Hash Algorithms 注册表 (RFC 7427 7 节)
type HashAlgorithm uint16

const (
	HashUnknown  HashAlgorithm = 0
	HashSHA1     HashAlgorithm = 1
	HashSHA256   HashAlgorithm = 2
	HashSHA384   HashAlgorithm = 3
	HashSHA512   HashAlgorithm = 4
	HashIdentity HashAlgorithm = 5 // RFC 8420，用于 EdDSA
)

var hashNames = map[HashAlgorithm]string{
	HashUnknown:  "HASH_UNKNOWN",
	HashSHA1:     "HASH_SHA1",
	HashSHA256:   "HASH_SHA2_256",
	HashSHA384:   "HASH_SHA2_384",
	HashSHA512:   "HASH_SHA2_512",
	HashIdentity: "HASH_IDENTITY",
}

func (h HashAlgorithm) String() string {
	if s, ok := hashNames[h]; ok {
		return s
	}
	return fmt.Sprintf("HASH(%d)", uint16(h))
}

// CryptoHash 返回对应的标准库哈希，Identity 和未知算法返回 0
func (h HashAlgorithm) CryptoHash() crypto.Hash {
	switch h {
	case HashSHA1:
		return crypto.SHA1
	case HashSHA256:
		return crypto.SHA256
	case HashSHA384:
		return crypto.SHA384
	case HashSHA512:
		return crypto.SHA512
	}
	return 0
}

// Size 摘要长度 (字节)
func (h HashAlgorithm) Size() int {
	if ch := h.CryptoHash(); ch != 0 {
		return ch.Size()
	}
	return 0
}

var (
	oidSHA1   = asn1.ObjectIdentifier{1, 3, 14, 3, 2, 26}
	oidSHA256 = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 1}
	oidSHA384 = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 2}
	oidSHA512 = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 3}
)

func (h HashAlgorithm) oid() (asn1.ObjectIdentifier, bool) {
	switch h {
	case HashSHA1:
		return oidSHA1, true
	case HashSHA256:
		return oidSHA256, true
	case HashSHA384:
		return oidSHA384, true
	case HashSHA512:
		return oidSHA512, true
	}
	return nil, false
}

func hashFromOID(oid asn1.ObjectIdentifier) HashAlgorithm {
	for _, h := range []HashAlgorithm{HashSHA1, HashSHA256, HashSHA384, HashSHA512} {
		if o, _ := h.oid(); o.Equal(oid) {
			return h
		}
	}
	return HashUnknown
}
