package signature

import (
	"encoding/asn1"
	"errors"
	"fmt"

	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"
)

// RSASSA-PSS-params 的默认值 (RFC 4055 3.1 节)
const (
	pssDefaultSaltLen = 20
	pssTrailerField   = 1
)

var (
	tagPSSHash    = cbasn1.Tag(0).Constructed().ContextSpecific()
	tagPSSMGF     = cbasn1.Tag(1).Constructed().ContextSpecific()
	tagPSSSalt    = cbasn1.Tag(2).Constructed().ContextSpecific()
	tagPSSTrailer = cbasn1.Tag(3).Constructed().ContextSpecific()
)

// MarshalDER 编码 RSASSA-PSS-params。
// 与默认值相同的字段按 DER 规则省略：SHA-1 时必须省略 hashAlgorithm 和 maskGenAlgorithm。
func (p PSS) MarshalDER() ([]byte, error) {
	var hashOID, mgfOID asn1.ObjectIdentifier
	if p.HashAlg != HashSHA1 {
		oid, ok := p.HashAlg.oid()
		if !ok {
			return nil, fmt.Errorf("PSS 不支持的哈希算法: %s", p.HashAlg)
		}
		hashOID = oid
	}
	if p.MGF1Hash != HashSHA1 {
		oid, ok := p.MGF1Hash.oid()
		if !ok {
			return nil, fmt.Errorf("PSS 不支持的 MGF1 哈希算法: %s", p.MGF1Hash)
		}
		mgfOID = oid
	}

	salt := -1
	if p.SaltLen > SaltLenDefault {
		if p.SaltLen != pssDefaultSaltLen {
			salt = p.SaltLen
		}
	} else if p.HashAlg != HashSHA1 {
		salt = p.HashAlg.Size()
		if salt == 0 {
			return nil, fmt.Errorf("PSS 无法确定 %s 的摘要长度", p.HashAlg)
		}
	}

	var b cryptobyte.Builder
	b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
		if hashOID != nil {
			b.AddASN1(tagPSSHash, func(b *cryptobyte.Builder) {
				addAlgorithmIdentifier(b, hashOID, true)
			})
		}
		if mgfOID != nil {
			b.AddASN1(tagPSSMGF, func(b *cryptobyte.Builder) {
				b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
					b.AddASN1ObjectIdentifier(oidMGF1)
					addAlgorithmIdentifier(b, mgfOID, true)
				})
			})
		}
		if salt >= 0 {
			b.AddASN1(tagPSSSalt, func(b *cryptobyte.Builder) {
				b.AddASN1Int64(int64(salt))
			})
		}
	})
	return b.Bytes()
}

// ParsePSSParams 解码 RSASSA-PSS-params，省略的字段取默认值
func ParsePSSParams(der []byte) (PSS, error) {
	p := PSS{HashAlg: HashSHA1, MGF1Hash: HashSHA1, SaltLen: pssDefaultSaltLen}

	input := cryptobyte.String(der)
	var seq cryptobyte.String
	if !input.ReadASN1(&seq, cbasn1.SEQUENCE) {
		return p, errors.New("RSASSA-PSS 参数不是 SEQUENCE")
	}

	var field cryptobyte.String
	var present bool

	if !seq.ReadOptionalASN1(&field, &present, tagPSSHash) {
		return p, errors.New("RSASSA-PSS hashAlgorithm 格式错误")
	}
	if present {
		oid, _, err := readAlgorithmIdentifier(&field)
		if err != nil {
			return p, err
		}
		if p.HashAlg = hashFromOID(oid); p.HashAlg == HashUnknown {
			return p, fmt.Errorf("RSASSA-PSS 未知哈希算法 %s", oid)
		}
	}

	if !seq.ReadOptionalASN1(&field, &present, tagPSSMGF) {
		return p, errors.New("RSASSA-PSS maskGenAlgorithm 格式错误")
	}
	if present {
		oid, params, err := readAlgorithmIdentifier(&field)
		if err != nil {
			return p, err
		}
		if !oid.Equal(oidMGF1) {
			return p, fmt.Errorf("RSASSA-PSS 不支持的掩码生成函数 %s", oid)
		}
		hashOID, _, err := readAlgorithmIdentifier(&params)
		if err != nil {
			return p, err
		}
		if p.MGF1Hash = hashFromOID(hashOID); p.MGF1Hash == HashUnknown {
			return p, fmt.Errorf("RSASSA-PSS 未知 MGF1 哈希算法 %s", hashOID)
		}
	}

	if !seq.ReadOptionalASN1(&field, &present, tagPSSSalt) {
		return p, errors.New("RSASSA-PSS saltLength 格式错误")
	}
	if present {
		var salt int64
		if !field.ReadASN1Integer(&salt) || salt < 0 {
			return p, errors.New("RSASSA-PSS saltLength 无效")
		}
		p.SaltLen = int(salt)
	}

	if !seq.ReadOptionalASN1(&field, &present, tagPSSTrailer) {
		return p, errors.New("RSASSA-PSS trailerField 格式错误")
	}
	if present {
		var trailer int64
		if !field.ReadASN1Integer(&trailer) || trailer != pssTrailerField {
			return p, errors.New("RSASSA-PSS trailerField 必须为 1")
		}
	}

	if !seq.Empty() {
		return p, errors.New("RSASSA-PSS 参数包含多余字段")
	}
	return p, nil
}
