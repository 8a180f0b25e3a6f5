package signature

import (
	"encoding/asn1"
	"errors"
	"fmt"

	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"
)

// RFC 7427 3 节: 数字签名认证数据格式
//
//	+---------------+------------------------------+-----------+
//	| ASN.1 Length  | AlgorithmIdentifier (DER)    | Signature |
//	+---------------+------------------------------+-----------+

var (
	ErrMalformed         = errors.New("签名认证数据格式错误")
	ErrUnknownScheme     = errors.New("未知的签名算法标识")
	ErrMalformedParams   = errors.New("签名算法参数格式错误")
	ErrUnsupportedScheme = errors.New("签名方案没有算法标识")
	ErrUnsupportedParams = errors.New("不支持的签名算法参数")
)

// 长度前缀只有 1 字节
const maxAlgorithmIdBlockLen = 0xff

// ParseAuthData 解析数字签名认证数据的 AlgorithmIdentifier 前缀。
// 返回已消费的字节数 (含长度字节)，签名位于 data[consumed:]。
// 声明长度内 AlgorithmIdentifier 之后的多余字节被忽略。
func ParseAuthData(data []byte) (int, Params, KeyType, error) {
	if len(data) == 0 {
		return 0, nil, KeyAny, ErrMalformed
	}
	n := int(data[0])
	if 1+n > len(data) {
		return 0, nil, KeyAny, fmt.Errorf("%w: 声明长度 %d 超出剩余 %d 字节", ErrMalformed, n, len(data)-1)
	}

	block := cryptobyte.String(data[1 : 1+n])
	oid, params, err := readAlgorithmIdentifier(&block)
	if err != nil {
		return 0, nil, KeyAny, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	scheme := SchemeFromOID(oid)
	var p Params
	switch scheme {
	case SchemeUnknown:
		return 0, nil, KeyAny, fmt.Errorf("%w: %s", ErrUnknownScheme, oid)
	case RSAPSS:
		pss, err := ParsePSSParams(params)
		if err != nil {
			return 0, nil, KeyAny, fmt.Errorf("%w: %v", ErrMalformedParams, err)
		}
		p = pss
	default:
		p = Plain(scheme)
	}
	return 1 + n, p, scheme.KeyType(), nil
}

// BuildAuthData 在签名前加上长度前缀和 AlgorithmIdentifier
func BuildAuthData(p Params, sig []byte) ([]byte, error) {
	if p == nil {
		return nil, ErrUnsupportedScheme
	}
	scheme := p.Scheme()
	oid, ok := scheme.OID()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, scheme)
	}

	var b cryptobyte.Builder
	switch v := p.(type) {
	case PSS:
		der, err := v.MarshalDER()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnsupportedParams, err)
		}
		b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
			b.AddASN1ObjectIdentifier(oid)
			b.AddBytes(der)
		})
	default:
		if scheme == RSAPSS {
			return nil, fmt.Errorf("%w: RSASSA-PSS 缺少参数", ErrUnsupportedParams)
		}
		addAlgorithmIdentifier(&b, oid, schemes[scheme].nullParams)
	}

	algID, err := b.Bytes()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedParams, err)
	}
	if len(algID) > maxAlgorithmIdBlockLen {
		return nil, fmt.Errorf("%w: 算法标识长度 %d 超过 255", ErrUnsupportedParams, len(algID))
	}

	out := make([]byte, 0, 1+len(algID)+len(sig))
	out = append(out, byte(len(algID)))
	out = append(out, algID...)
	return append(out, sig...), nil
}

func addAlgorithmIdentifier(b *cryptobyte.Builder, oid asn1.ObjectIdentifier, nullParams bool) {
	b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1ObjectIdentifier(oid)
		if nullParams {
			b.AddASN1NULL()
		}
	})
}

// readAlgorithmIdentifier 读取 AlgorithmIdentifier，返回 OID 和原始参数 (可能为空)
func readAlgorithmIdentifier(s *cryptobyte.String) (asn1.ObjectIdentifier, cryptobyte.String, error) {
	var ai cryptobyte.String
	if !s.ReadASN1(&ai, cbasn1.SEQUENCE) {
		return nil, nil, errors.New("AlgorithmIdentifier 不是 SEQUENCE")
	}
	var oid asn1.ObjectIdentifier
	if !ai.ReadASN1ObjectIdentifier(&oid) {
		return nil, nil, errors.New("AlgorithmIdentifier 缺少 OID")
	}
	return oid, ai, nil
}
