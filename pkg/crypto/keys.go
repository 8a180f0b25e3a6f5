package crypto

import (
	stdcrypto "crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"fmt"
	"math/big"

	"github.com/iniwex5/ike-sigauth/pkg/signature"
	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"
)

var (
	ErrInvalidSignature  = errors.New("签名无效")
	ErrSchemeMismatch    = errors.New("签名方案与密钥类型不匹配")
	ErrUnsupportedKey    = errors.New("不支持的密钥类型")
	// ErrUnsupportedParams 参数合法但本端无法实现，例如 MGF1 哈希与消息哈希不同
	ErrUnsupportedParams = errors.New("不支持的签名参数")
)

// PrivateKey 可按签名参数签名的私钥
type PrivateKey interface {
	Type() signature.KeyType
	// KeySize 密钥位数，RSA 为模数长度，ECDSA 为曲线阶长度
	KeySize() int
	Sign(p signature.Params, data []byte) ([]byte, error)
	Public() PublicKey
}

// PublicKey 可按签名参数验签的公钥
type PublicKey interface {
	Type() signature.KeyType
	KeySize() int
	Verify(p signature.Params, data, sig []byte) error
	Equal(other PublicKey) bool
	// Raw 返回标准库公钥对象
	Raw() stdcrypto.PublicKey
}

// NewPrivateKey 包装标准库私钥，支持 RSA、ECDSA 和 Ed25519
func NewPrivateKey(k stdcrypto.Signer) (PrivateKey, error) {
	switch v := k.(type) {
	case *rsa.PrivateKey:
		return &rsaPrivateKey{key: v}, nil
	case *ecdsa.PrivateKey:
		return &ecdsaPrivateKey{key: v}, nil
	case ed25519.PrivateKey:
		return &ed25519PrivateKey{key: v}, nil
	}
	return nil, fmt.Errorf("%w: %T", ErrUnsupportedKey, k)
}

// NewPublicKey 包装标准库公钥
func NewPublicKey(k stdcrypto.PublicKey) (PublicKey, error) {
	switch v := k.(type) {
	case *rsa.PublicKey:
		return &rsaPublicKey{key: v}, nil
	case *ecdsa.PublicKey:
		return &ecdsaPublicKey{key: v}, nil
	case ed25519.PublicKey:
		return &ed25519PublicKey{key: v}, nil
	}
	return nil, fmt.Errorf("%w: %T", ErrUnsupportedKey, k)
}

func digest(h signature.HashAlgorithm, data []byte) (stdcrypto.Hash, []byte, error) {
	ch := h.CryptoHash()
	if ch == 0 || !ch.Available() {
		return 0, nil, fmt.Errorf("不支持的哈希算法: %s", h)
	}
	hh := ch.New()
	hh.Write(data)
	return ch, hh.Sum(nil), nil
}

func checkKeyType(p signature.Params, kt signature.KeyType) error {
	if p == nil || p.Scheme().KeyType() != kt {
		return fmt.Errorf("%w: %v 用于 %s 密钥", ErrSchemeMismatch, p, kt)
	}
	return nil
}

// ---------------- RSA ----------------

type rsaPrivateKey struct {
	key *rsa.PrivateKey
}

func (k *rsaPrivateKey) Type() signature.KeyType { return signature.KeyRSA }
func (k *rsaPrivateKey) KeySize() int            { return k.key.N.BitLen() }
func (k *rsaPrivateKey) Public() PublicKey       { return &rsaPublicKey{key: &k.key.PublicKey} }

func (k *rsaPrivateKey) Sign(p signature.Params, data []byte) ([]byte, error) {
	if err := checkKeyType(p, signature.KeyRSA); err != nil {
		return nil, err
	}
	ch, d, err := digest(p.Hash(), data)
	if err != nil {
		return nil, err
	}
	if pss, ok := p.(signature.PSS); ok {
		opts, err := pssOptions(pss, ch)
		if err != nil {
			return nil, err
		}
		return rsa.SignPSS(rand.Reader, k.key, ch, d, opts)
	}
	return rsa.SignPKCS1v15(rand.Reader, k.key, ch, d)
}

// 标准库的 MGF1 固定使用消息哈希
func pssOptions(p signature.PSS, ch stdcrypto.Hash) (*rsa.PSSOptions, error) {
	if p.MGF1Hash != p.HashAlg {
		return nil, fmt.Errorf("%w: MGF1 哈希 %s 与消息哈希 %s 不同", ErrUnsupportedParams, p.MGF1Hash, p.HashAlg)
	}
	salt := p.SaltLen
	if salt == signature.SaltLenDefault {
		salt = rsa.PSSSaltLengthEqualsHash
	} else if salt == 0 {
		// 标准库中 0 表示自动，这里没有办法表达零长度盐
		return nil, fmt.Errorf("%w: 零长度 PSS 盐", ErrUnsupportedParams)
	}
	return &rsa.PSSOptions{SaltLength: salt, Hash: ch}, nil
}

type rsaPublicKey struct {
	key *rsa.PublicKey
}

func (k *rsaPublicKey) Type() signature.KeyType  { return signature.KeyRSA }
func (k *rsaPublicKey) KeySize() int             { return k.key.N.BitLen() }
func (k *rsaPublicKey) Raw() stdcrypto.PublicKey { return k.key }

func (k *rsaPublicKey) Equal(other PublicKey) bool {
	o, ok := other.(*rsaPublicKey)
	return ok && k.key.Equal(o.key)
}

func (k *rsaPublicKey) Verify(p signature.Params, data, sig []byte) error {
	if err := checkKeyType(p, signature.KeyRSA); err != nil {
		return err
	}
	ch, d, err := digest(p.Hash(), data)
	if err != nil {
		return err
	}
	if pss, ok := p.(signature.PSS); ok {
		opts, err := pssOptions(pss, ch)
		if err != nil {
			return err
		}
		err = rsa.VerifyPSS(k.key, ch, d, sig, opts)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
		}
		return nil
	}
	if err := rsa.VerifyPKCS1v15(k.key, ch, d, sig); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return nil
}

// ---------------- ECDSA ----------------

type ecdsaPrivateKey struct {
	key *ecdsa.PrivateKey
}

func (k *ecdsaPrivateKey) Type() signature.KeyType { return signature.KeyECDSA }
func (k *ecdsaPrivateKey) KeySize() int            { return k.key.Curve.Params().BitSize }
func (k *ecdsaPrivateKey) Public() PublicKey       { return &ecdsaPublicKey{key: &k.key.PublicKey} }

func (k *ecdsaPrivateKey) Sign(p signature.Params, data []byte) ([]byte, error) {
	if err := checkKeyType(p, signature.KeyECDSA); err != nil {
		return nil, err
	}
	raw, err := rawECDSACurve(p.Scheme())
	if err != nil {
		return nil, err
	}
	if raw != nil && raw != k.key.Curve {
		return nil, fmt.Errorf("%w: %s 需要 %s 曲线", ErrSchemeMismatch, p, raw.Params().Name)
	}
	_, d, err := digest(p.Hash(), data)
	if err != nil {
		return nil, err
	}
	der, err := ecdsa.SignASN1(rand.Reader, k.key, d)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return der, nil
	}
	return derToRaw(der, (raw.Params().BitSize+7)/8)
}

type ecdsaPublicKey struct {
	key *ecdsa.PublicKey
}

func (k *ecdsaPublicKey) Type() signature.KeyType  { return signature.KeyECDSA }
func (k *ecdsaPublicKey) KeySize() int             { return k.key.Curve.Params().BitSize }
func (k *ecdsaPublicKey) Raw() stdcrypto.PublicKey { return k.key }

func (k *ecdsaPublicKey) Equal(other PublicKey) bool {
	o, ok := other.(*ecdsaPublicKey)
	return ok && k.key.Equal(o.key)
}

func (k *ecdsaPublicKey) Verify(p signature.Params, data, sig []byte) error {
	if err := checkKeyType(p, signature.KeyECDSA); err != nil {
		return err
	}
	raw, err := rawECDSACurve(p.Scheme())
	if err != nil {
		return err
	}
	if raw != nil {
		if raw != k.key.Curve {
			return fmt.Errorf("%w: %s 需要 %s 曲线", ErrSchemeMismatch, p, raw.Params().Name)
		}
		if sig, err = rawToDER(sig, (raw.Params().BitSize+7)/8); err != nil {
			return err
		}
	}
	_, d, err := digest(p.Hash(), data)
	if err != nil {
		return err
	}
	if !ecdsa.VerifyASN1(k.key, d, sig) {
		return ErrInvalidSignature
	}
	return nil
}

// rawECDSACurve RFC 4754 定长方案对应的曲线，DER 方案返回 nil
func rawECDSACurve(s signature.Scheme) (elliptic.Curve, error) {
	switch s {
	case signature.ECDSA256:
		return elliptic.P256(), nil
	case signature.ECDSA384:
		return elliptic.P384(), nil
	case signature.ECDSA521:
		return elliptic.P521(), nil
	case signature.ECDSASHA256DER, signature.ECDSASHA384DER, signature.ECDSASHA512DER:
		return nil, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrSchemeMismatch, s)
}

// derToRaw Ecdsa-Sig-Value 转为定长 r||s
func derToRaw(der []byte, size int) ([]byte, error) {
	var r, s big.Int
	input := cryptobyte.String(der)
	var inner cryptobyte.String
	if !input.ReadASN1(&inner, cbasn1.SEQUENCE) || !input.Empty() ||
		!inner.ReadASN1Integer(&r) || !inner.ReadASN1Integer(&s) || !inner.Empty() {
		return nil, errors.New("ECDSA 签名 DER 格式错误")
	}
	out := make([]byte, 2*size)
	r.FillBytes(out[:size])
	s.FillBytes(out[size:])
	return out, nil
}

// rawToDER 定长 r||s 转为 Ecdsa-Sig-Value
func rawToDER(raw []byte, size int) ([]byte, error) {
	if len(raw) != 2*size {
		return nil, fmt.Errorf("%w: 签名长度 %d，期望 %d", ErrInvalidSignature, len(raw), 2*size)
	}
	r := new(big.Int).SetBytes(raw[:size])
	s := new(big.Int).SetBytes(raw[size:])
	var b cryptobyte.Builder
	b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1BigInt(r)
		b.AddASN1BigInt(s)
	})
	return b.Bytes()
}

// ---------------- Ed25519 ----------------

type ed25519PrivateKey struct {
	key ed25519.PrivateKey
}

func (k *ed25519PrivateKey) Type() signature.KeyType { return signature.KeyEd25519 }
func (k *ed25519PrivateKey) KeySize() int            { return 256 }

func (k *ed25519PrivateKey) Public() PublicKey {
	return &ed25519PublicKey{key: k.key.Public().(ed25519.PublicKey)}
}

func (k *ed25519PrivateKey) Sign(p signature.Params, data []byte) ([]byte, error) {
	if err := checkKeyType(p, signature.KeyEd25519); err != nil {
		return nil, err
	}
	return k.key.Sign(rand.Reader, data, stdcrypto.Hash(0))
}

type ed25519PublicKey struct {
	key ed25519.PublicKey
}

func (k *ed25519PublicKey) Type() signature.KeyType  { return signature.KeyEd25519 }
func (k *ed25519PublicKey) KeySize() int             { return 256 }
func (k *ed25519PublicKey) Raw() stdcrypto.PublicKey { return k.key }

func (k *ed25519PublicKey) Equal(other PublicKey) bool {
	o, ok := other.(*ed25519PublicKey)
	return ok && k.key.Equal(o.key)
}

func (k *ed25519PublicKey) Verify(p signature.Params, data, sig []byte) error {
	if err := checkKeyType(p, signature.KeyEd25519); err != nil {
		return err
	}
	if !ed25519.Verify(k.key, data, sig) {
		return ErrInvalidSignature
	}
	return nil
}
