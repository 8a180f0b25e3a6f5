package signature

import (
	"encoding/asn1"
	"fmt"
)

// Scheme 签名方案
type Scheme uint8

const (
	SchemeUnknown Scheme = iota
	// RSASSA-PKCS1-v1_5
	RSAPKCS1SHA1
	RSAPKCS1SHA256
	RSAPKCS1SHA384
	RSAPKCS1SHA512
	// RSASSA-PSS，参数由 PSS 携带
	RSAPSS
	// RFC 4754 ECDSA，签名为定长 r||s，哈希由曲线决定
	ECDSA256
	ECDSA384
	ECDSA521
	// RFC 7427 ECDSA，签名为 DER 编码的 Ecdsa-Sig-Value
	ECDSASHA256DER
	ECDSASHA384DER
	ECDSASHA512DER
	// RFC 8420 Ed25519，对消息本身签名
	Ed25519
)

type schemeInfo struct {
	name    string
	keyType KeyType
	hash    HashAlgorithm
	oid     asn1.ObjectIdentifier
	// AlgorithmIdentifier 是否携带 NULL 参数 (RFC 4055 2.1 节)
	nullParams bool
}

var (
	oidSHA1WithRSA     = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 5}
	oidSHA256WithRSA   = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 11}
	oidSHA384WithRSA   = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 12}
	oidSHA512WithRSA   = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 13}
	oidRSASSAPSS       = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 10}
	oidMGF1            = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 8}
	oidECDSAWithSHA256 = asn1.ObjectIdentifier{1, 2, 840, 10045, 4, 3, 2}
	oidECDSAWithSHA384 = asn1.ObjectIdentifier{1, 2, 840, 10045, 4, 3, 3}
	oidECDSAWithSHA512 = asn1.ObjectIdentifier{1, 2, 840, 10045, 4, 3, 4}
	oidEd25519         = asn1.ObjectIdentifier{1, 3, 101, 112}
)

var schemes = map[Scheme]schemeInfo{
	SchemeUnknown:  {name: "UNKNOWN", keyType: KeyAny, hash: HashUnknown},
	RSAPKCS1SHA1:   {name: "RSA_EMSA_PKCS1_SHA1", keyType: KeyRSA, hash: HashSHA1, oid: oidSHA1WithRSA, nullParams: true},
	RSAPKCS1SHA256: {name: "RSA_EMSA_PKCS1_SHA2_256", keyType: KeyRSA, hash: HashSHA256, oid: oidSHA256WithRSA, nullParams: true},
	RSAPKCS1SHA384: {name: "RSA_EMSA_PKCS1_SHA2_384", keyType: KeyRSA, hash: HashSHA384, oid: oidSHA384WithRSA, nullParams: true},
	RSAPKCS1SHA512: {name: "RSA_EMSA_PKCS1_SHA2_512", keyType: KeyRSA, hash: HashSHA512, oid: oidSHA512WithRSA, nullParams: true},
	RSAPSS:         {name: "RSA_EMSA_PSS", keyType: KeyRSA, hash: HashUnknown, oid: oidRSASSAPSS},
	ECDSA256:       {name: "ECDSA_256", keyType: KeyECDSA, hash: HashSHA256},
	ECDSA384:       {name: "ECDSA_384", keyType: KeyECDSA, hash: HashSHA384},
	ECDSA521:       {name: "ECDSA_521", keyType: KeyECDSA, hash: HashSHA512},
	ECDSASHA256DER: {name: "ECDSA_WITH_SHA256_DER", keyType: KeyECDSA, hash: HashSHA256, oid: oidECDSAWithSHA256},
	ECDSASHA384DER: {name: "ECDSA_WITH_SHA384_DER", keyType: KeyECDSA, hash: HashSHA384, oid: oidECDSAWithSHA384},
	ECDSASHA512DER: {name: "ECDSA_WITH_SHA512_DER", keyType: KeyECDSA, hash: HashSHA512, oid: oidECDSAWithSHA512},
	Ed25519:        {name: "ED25519", keyType: KeyEd25519, hash: HashIdentity, oid: oidEd25519},
}

func (s Scheme) String() string {
	if info, ok := schemes[s]; ok {
		return info.name
	}
	return fmt.Sprintf("SCHEME(%d)", uint8(s))
}

// KeyType 方案所需的密钥类型，未知方案返回 KeyAny
func (s Scheme) KeyType() KeyType {
	return schemes[s].keyType
}

// Hash 方案固定使用的哈希算法。RSAPSS 的哈希由参数决定，此处返回 HashUnknown。
func (s Scheme) Hash() HashAlgorithm {
	return schemes[s].hash
}

// OID 返回 RFC 7427 AlgorithmIdentifier 使用的 OID。
// RFC 4754 定长 ECDSA 方案没有 OID。
func (s Scheme) OID() (asn1.ObjectIdentifier, bool) {
	info, ok := schemes[s]
	if !ok || info.oid == nil {
		return nil, false
	}
	return info.oid, true
}

// SchemeFromOID 按 OID 查找签名方案，无法映射时返回 SchemeUnknown
func SchemeFromOID(oid asn1.ObjectIdentifier) Scheme {
	for s, info := range schemes {
		if info.oid != nil && info.oid.Equal(oid) {
			return s
		}
	}
	return SchemeUnknown
}
