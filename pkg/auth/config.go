package auth

import (
	"crypto/x509"
	"fmt"
	"iter"
	"strings"

	"github.com/iniwex5/ike-sigauth/pkg/crypto"
	"github.com/iniwex5/ike-sigauth/pkg/ikev2"
	"github.com/iniwex5/ike-sigauth/pkg/signature"
)

// Rule 认证配置规则
type Rule uint8

const (
	// RuleIdentity 值为 ikev2.Identification
	RuleIdentity Rule = iota + 1
	// RuleAuthClass 值为 Class
	RuleAuthClass
	// RuleIKESignatureScheme 值为 signature.Params
	RuleIKESignatureScheme
	// RuleSubjectPublicKey 值为 crypto.PublicKey
	RuleSubjectPublicKey
	// RuleSubjectCert 值为 *x509.Certificate
	RuleSubjectCert
	RuleIntermediateCert
	RuleCACert
	// RuleCertValidationSuspended 值为 bool
	RuleCertValidationSuspended
)

var ruleNames = map[Rule]string{
	RuleIdentity:                "IDENTITY",
	RuleAuthClass:               "AUTH_CLASS",
	RuleIKESignatureScheme:      "IKE_SIGNATURE_SCHEME",
	RuleSubjectPublicKey:        "SUBJECT_PUBKEY",
	RuleSubjectCert:             "SUBJECT_CERT",
	RuleIntermediateCert:        "IM_CERT",
	RuleCACert:                  "CA_CERT",
	RuleCertValidationSuspended: "CERT_VALIDATION_SUSPENDED",
}

func (r Rule) String() string {
	if s, ok := ruleNames[r]; ok {
		return s
	}
	return fmt.Sprintf("RULE(%d)", uint8(r))
}

// Class 认证类别
type Class uint8

const (
	ClassAny Class = iota
	ClassPubkey
	ClassPSK
	ClassEAP
)

func (c Class) String() string {
	switch c {
	case ClassAny:
		return "any"
	case ClassPubkey:
		return "pubkey"
	case ClassPSK:
		return "psk"
	case ClassEAP:
		return "eap"
	}
	return fmt.Sprintf("class(%d)", uint8(c))
}

// Entry 一条规则
type Entry struct {
	Rule  Rule
	Value any
}

// Config 有序的认证规则列表。同一规则可以出现多次，顺序即偏好。
// 非并发安全。
type Config struct {
	entries []Entry
}

func NewConfig() *Config {
	return &Config{}
}

// Add 追加一条规则，值类型必须与规则匹配
func (c *Config) Add(rule Rule, value any) error {
	if err := checkValue(rule, value); err != nil {
		return err
	}
	c.entries = append(c.entries, Entry{Rule: rule, Value: value})
	return nil
}

func checkValue(rule Rule, value any) error {
	var ok bool
	switch rule {
	case RuleIdentity:
		_, ok = value.(ikev2.Identification)
	case RuleAuthClass:
		_, ok = value.(Class)
	case RuleIKESignatureScheme:
		_, ok = value.(signature.Params)
	case RuleSubjectPublicKey:
		_, ok = value.(crypto.PublicKey)
	case RuleSubjectCert, RuleIntermediateCert, RuleCACert:
		_, ok = value.(*x509.Certificate)
	case RuleCertValidationSuspended:
		_, ok = value.(bool)
	}
	if !ok {
		return fmt.Errorf("规则 %s 的值类型 %T 无效", rule, value)
	}
	return nil
}

// Get 返回规则的第一个值
func (c *Config) Get(rule Rule) (any, bool) {
	for _, e := range c.entries {
		if e.Rule == rule {
			return e.Value, true
		}
	}
	return nil, false
}

// All 按顺序遍历规则的所有值
func (c *Config) All(rule Rule) iter.Seq[any] {
	return func(yield func(any) bool) {
		for _, e := range c.entries {
			if e.Rule == rule && !yield(e.Value) {
				return
			}
		}
	}
}

func (c *Config) HasRule(rule Rule) bool {
	_, ok := c.Get(rule)
	return ok
}

func (c *Config) Len() int {
	return len(c.entries)
}

// Entries 返回所有规则的副本
func (c *Config) Entries() []Entry {
	return append([]Entry(nil), c.entries...)
}

// Merge 将 other 的规则追加到 c 之后
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}
	c.entries = append(c.entries, other.entries...)
}

func (c *Config) Clone() *Config {
	return &Config{entries: c.Entries()}
}

// SignatureSchemes 返回配置的签名方案，按配置顺序
func (c *Config) SignatureSchemes() []signature.Params {
	var out []signature.Params
	for v := range c.All(RuleIKESignatureScheme) {
		out = append(out, v.(signature.Params))
	}
	return out
}

// AuthClass 返回配置的认证类别，未配置时为 ClassAny
func (c *Config) AuthClass() Class {
	if v, ok := c.Get(RuleAuthClass); ok {
		return v.(Class)
	}
	return ClassAny
}

// Identity 返回配置的身份
func (c *Config) Identity() (ikev2.Identification, bool) {
	if v, ok := c.Get(RuleIdentity); ok {
		return v.(ikev2.Identification), true
	}
	return ikev2.Identification{}, false
}

// Certificates 按顺序返回规则对应的证书
func (c *Config) Certificates(rule Rule) []*x509.Certificate {
	var out []*x509.Certificate
	for v := range c.All(rule) {
		if cert, ok := v.(*x509.Certificate); ok {
			out = append(out, cert)
		}
	}
	return out
}

func (c *Config) String() string {
	parts := make([]string, 0, len(c.entries))
	for _, e := range c.entries {
		var v string
		switch val := e.Value.(type) {
		case *x509.Certificate:
			v = val.Subject.String()
		case crypto.PublicKey:
			v = fmt.Sprintf("%s-%d", val.Type(), val.KeySize())
		default:
			v = fmt.Sprint(val)
		}
		parts = append(parts, e.Rule.String()+"="+v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
