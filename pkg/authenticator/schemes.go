package authenticator

import (
	"fmt"

	"github.com/iniwex5/ike-sigauth/pkg/auth"
	"github.com/iniwex5/ike-sigauth/pkg/crypto"
	"github.com/iniwex5/ike-sigauth/pkg/ikev2"
	"github.com/iniwex5/ike-sigauth/pkg/signature"
)

// Policy 本地签名策略
type Policy struct {
	// EnableRSAPSS 未显式配置签名方案时是否提议 RSASSA-PSS
	EnableRSAPSS bool
}

// SelectSchemes 选出用于 RFC 7427 签名的候选方案，按偏好排序，方案标签不重复。
//
// 配置了 RuleIKESignatureScheme 时只使用配置的方案 (保持配置顺序)，
// 过滤掉密钥类型不符或对端不支持哈希的方案，不追加任何回退方案。
// 否则按密钥类型和位数查默认方案表；RSA 密钥最后补上 PKCS1 SHA2-384 和 SHA2-256。
func SelectSchemes(key crypto.PrivateKey, cfg *auth.Config, supported func(signature.HashAlgorithm) bool, policy Policy) []signature.Params {
	keyType := key.Type()
	var selected []signature.Params
	add := func(p signature.Params) {
		if !signature.ContainsScheme(selected, p.Scheme()) {
			selected = append(selected, p)
		}
	}

	var configured []signature.Params
	if cfg != nil {
		configured = cfg.SignatureSchemes()
	}
	if len(configured) > 0 {
		for _, p := range configured {
			if p.Scheme().KeyType() == keyType && supported(p.Hash()) {
				add(p)
			}
		}
		return selected
	}

	for _, p := range signature.SchemesForKey(keyType, key.KeySize()) {
		if p.Scheme() == signature.RSAPSS && !policy.EnableRSAPSS {
			continue
		}
		if supported(p.Hash()) {
			add(p)
		}
	}

	// 至少尝试过 SHA-512，再补上常见的回退方案
	if keyType == signature.KeyRSA {
		for _, s := range []signature.Scheme{signature.RSAPKCS1SHA384, signature.RSAPKCS1SHA256} {
			if supported(s.Hash()) {
				add(signature.Plain(s))
			}
		}
	}
	return selected
}

// SelectClassic 为不支持 RFC 7427 的对端选择传统签名方案和认证方法
func SelectClassic(key crypto.PrivateKey) (signature.Params, ikev2.AuthMethod, error) {
	switch key.Type() {
	case signature.KeyRSA:
		return signature.Plain(signature.RSAPKCS1SHA1), ikev2.AuthMethodRSASig, nil
	case signature.KeyECDSA:
		// 由密钥长度决定方案
		switch key.KeySize() {
		case 256:
			return signature.Plain(signature.ECDSA256), ikev2.AuthMethodECDSA256, nil
		case 384:
			return signature.Plain(signature.ECDSA384), ikev2.AuthMethodECDSA384, nil
		case 521:
			return signature.Plain(signature.ECDSA521), ikev2.AuthMethodECDSA521, nil
		}
		return nil, ikev2.AuthMethodNone, fmt.Errorf("%w: %d 位", ErrUnsupportedKeySize, key.KeySize())
	}
	return nil, ikev2.AuthMethodNone, fmt.Errorf("%w: %s", ErrUnsupportedKey, key.Type())
}

// classicScheme 传统认证方法对应的签名方案和密钥类型
func classicScheme(method ikev2.AuthMethod) (signature.Params, signature.KeyType, bool) {
	switch method {
	case ikev2.AuthMethodRSASig:
		return signature.Plain(signature.RSAPKCS1SHA1), signature.KeyRSA, true
	case ikev2.AuthMethodECDSA256:
		return signature.Plain(signature.ECDSA256), signature.KeyECDSA, true
	case ikev2.AuthMethodECDSA384:
		return signature.Plain(signature.ECDSA384), signature.KeyECDSA, true
	case ikev2.AuthMethodECDSA521:
		return signature.Plain(signature.ECDSA521), signature.KeyECDSA, true
	}
	return nil, signature.KeyAny, false
}
