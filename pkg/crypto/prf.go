package crypto

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"errors"
	"fmt"
	"hash"
)

// PRF (伪随机函数) 接口
type PRF interface {
	Hash() hash.Hash
	KeyLen() int
}

type hmacPRF struct {
	name    string
	newHash func() hash.Hash
	keyLen  int
}

func (h *hmacPRF) Hash() hash.Hash { return h.newHash() }
func (h *hmacPRF) KeyLen() int     { return h.keyLen }
func (h *hmacPRF) String() string  { return h.name }

var (
	PRF_HMAC_SHA1     = &hmacPRF{name: "PRF_HMAC_SHA1", newHash: sha1.New, keyLen: 20}
	PRF_HMAC_SHA2_256 = &hmacPRF{name: "PRF_HMAC_SHA2_256", newHash: sha256.New, keyLen: 32}
	PRF_HMAC_SHA2_384 = &hmacPRF{name: "PRF_HMAC_SHA2_384", newHash: sha512.New384, keyLen: 48}
	PRF_HMAC_SHA2_512 = &hmacPRF{name: "PRF_HMAC_SHA2_512", newHash: sha512.New, keyLen: 64}
)

// Sum 计算 prf(key, data)
func Sum(prf PRF, key, data []byte) []byte {
	mac := hmac.New(prf.Hash, key)
	mac.Write(data)
	return mac.Sum(nil)
}

// RFC 7296 2.13 节. 生成密钥材料
// prf+ (K,S) = T1 | T2 | T3 | T4 | ...
// T1 = prf (K, S | 0x01)
// Tn = prf (K, Tn-1 | S | n)
func PrfPlus(prf PRF, key []byte, seed []byte, totalBytes int) ([]byte, error) {
	var result []byte
	var last []byte

	for n := 1; len(result) < totalBytes; n++ {
		if n > 255 {
			return nil, errors.New("PRF+ 溢出: 块太多")
		}
		mac := hmac.New(prf.Hash, key)
		mac.Write(last)
		mac.Write(seed)
		mac.Write([]byte{byte(n)})
		last = mac.Sum(nil)
		result = append(result, last...)
	}

	return result[:totalBytes], nil
}

// GetPRF 按 IKEv2 变换 ID (RFC 7296 3.3.2 节) 返回 PRF。
// PRF_HMAC_MD5 不再支持。
func GetPRF(id uint16) (PRF, error) {
	switch id {
	case 2:
		return PRF_HMAC_SHA1, nil
	case 5:
		return PRF_HMAC_SHA2_256, nil
	case 6:
		return PRF_HMAC_SHA2_384, nil
	case 7:
		return PRF_HMAC_SHA2_512, nil
	}
	return nil, fmt.Errorf("不支持的 PRF ID: %d", id)
}
