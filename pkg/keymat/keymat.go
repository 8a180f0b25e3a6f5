package keymat

import (
	"errors"
	"fmt"
	"sync"

	"github.com/iniwex5/ike-sigauth/pkg/crypto"
	"github.com/iniwex5/ike-sigauth/pkg/ikev2"
	"github.com/iniwex5/ike-sigauth/pkg/signature"
)

var ErrMissingInput = errors.New("计算 AUTH 八位字节缺少输入")

// Keymat IKE SA 的认证密钥材料和对端签名哈希能力
type Keymat struct {
	PRF  crypto.PRF
	SKpi []byte // 发起方认证载荷密钥
	SKpr []byte // 响应方认证载荷密钥
	// Initiator 本端是否为发起方
	Initiator bool

	mu     sync.RWMutex
	hashes map[signature.HashAlgorithm]struct{}
}

func New(prf crypto.PRF, skpi, skpr []byte, initiator bool) *Keymat {
	return &Keymat{
		PRF:       prf,
		SKpi:      append([]byte(nil), skpi...),
		SKpr:      append([]byte(nil), skpr...),
		Initiator: initiator,
		hashes:    make(map[signature.HashAlgorithm]struct{}),
	}
}

// 本端支持并在 SIGNATURE_HASH_ALGORITHMS 中通告的哈希
var localHashes = []signature.HashAlgorithm{
	signature.HashSHA256,
	signature.HashSHA384,
	signature.HashSHA512,
	signature.HashIdentity,
}

// HashAlgorithmSupported 对端是否通告了 h
func (k *Keymat) HashAlgorithmSupported(h signature.HashAlgorithm) bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	_, ok := k.hashes[h]
	return ok
}

func (k *Keymat) AddHashAlgorithm(h signature.HashAlgorithm) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.hashes == nil {
		k.hashes = make(map[signature.HashAlgorithm]struct{})
	}
	k.hashes[h] = struct{}{}
}

// ProcessSignatureHashNotify 记录对端 SIGNATURE_HASH_ALGORITHMS 通知中的哈希。
// 本端不认识的标识被忽略，返回记录的数量。
func (k *Keymat) ProcessSignatureHashNotify(n *ikev2.EncryptedPayloadNotify) (int, error) {
	ids, err := n.SignatureHashAlgorithms()
	if err != nil {
		return 0, err
	}
	count := 0
	for _, id := range ids {
		h := signature.HashAlgorithm(id)
		if h.CryptoHash() == 0 && h != signature.HashIdentity {
			continue
		}
		k.AddHashAlgorithm(h)
		count++
	}
	return count, nil
}

// SignatureHashNotify 构造本端的 SIGNATURE_HASH_ALGORITHMS 通知
func (k *Keymat) SignatureHashNotify() *ikev2.EncryptedPayloadNotify {
	ids := make([]uint16, 0, len(localHashes))
	for _, h := range localHashes {
		ids = append(ids, uint16(h))
	}
	return ikev2.NewSignatureHashAlgorithmsNotify(ids)
}

// AuthOctets 计算签名用的 AUTH 八位字节 (RFC 7296 2.15 节)
//
//	InitOctets = IKE_SA_INIT 消息 | 对方的 Nonce | prf(SK_px, IDType | RESERVED | IDData)
//
// verify 为 true 时签名方是对端。签名方是发起方时使用 SK_pi，否则使用 SK_pr。
// 返回的方案列表是实际生效的，调用方应以它为准。
func (k *Keymat) AuthOctets(verify bool, init, nonce []byte, id ikev2.Identification,
	reserved [3]byte, schemes []signature.Params) ([]byte, []signature.Params, error) {
	if len(init) == 0 || len(nonce) == 0 {
		return nil, nil, fmt.Errorf("%w: IKE_SA_INIT 消息或 Nonce 为空", ErrMissingInput)
	}
	if k.PRF == nil {
		return nil, nil, fmt.Errorf("%w: PRF 不可用", ErrMissingInput)
	}

	signerIsInitiator := k.Initiator != verify
	key := k.SKpr
	if signerIsInitiator {
		key = k.SKpi
	}
	if len(key) == 0 {
		return nil, nil, fmt.Errorf("%w: SK_p 不可用", ErrMissingInput)
	}

	// ID 载荷主体: IDType(1 byte) + Reserved(3 bytes) + IDData
	idBody := make([]byte, 4+len(id.Data))
	idBody[0] = uint8(id.Type)
	copy(idBody[1:4], reserved[:])
	copy(idBody[4:], id.Data)

	macedID := crypto.Sum(k.PRF, key, idBody)

	octets := make([]byte, 0, len(init)+len(nonce)+len(macedID))
	octets = append(octets, init...)
	octets = append(octets, nonce...)
	octets = append(octets, macedID...)

	return octets, append([]signature.Params(nil), schemes...), nil
}
