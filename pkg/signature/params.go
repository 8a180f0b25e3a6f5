package signature

import "fmt"

// Params 签名方案及其参数 (SignatureParams)。
// 只有 PSS 变体携带参数，其余方案使用 Plain。两种实现都是可比较的值类型，
// 复制即克隆，== 即相等。
type Params interface {
	Scheme() Scheme
	// Hash 签名所需的哈希算法
	Hash() HashAlgorithm
	String() string

	isParams()
}

// Plain 不带参数的签名方案，不应包含 RSAPSS
type Plain Scheme

func (p Plain) Scheme() Scheme      { return Scheme(p) }
func (p Plain) Hash() HashAlgorithm { return Scheme(p).Hash() }
func (p Plain) String() string      { return Scheme(p).String() }
func (Plain) isParams()             {}

// SaltLenDefault 盐长度等于哈希长度
const SaltLenDefault = -1

// PSS RSASSA-PSS 参数 (RFC 4055 3.1 节)
type PSS struct {
	HashAlg  HashAlgorithm
	MGF1Hash HashAlgorithm
	SaltLen  int
}

// NewPSS 返回 MGF1 与消息使用同一哈希、盐长度等于哈希长度的参数
func NewPSS(h HashAlgorithm) PSS {
	return PSS{HashAlg: h, MGF1Hash: h, SaltLen: SaltLenDefault}
}

func (p PSS) Scheme() Scheme      { return RSAPSS }
func (p PSS) Hash() HashAlgorithm { return p.HashAlg }
func (PSS) isParams()             {}

func (p PSS) String() string {
	return fmt.Sprintf("%s(%s,MGF1-%s,salt=%d)", RSAPSS, p.HashAlg, p.MGF1Hash, p.EffectiveSaltLen())
}

// EffectiveSaltLen 解析 SaltLenDefault 后的实际盐长度
func (p PSS) EffectiveSaltLen() int {
	if p.SaltLen == SaltLenDefault {
		return p.HashAlg.Size()
	}
	return p.SaltLen
}

// Equal 比较两个签名参数，nil 只与 nil 相等
func Equal(a, b Params) bool {
	return a == b
}

// ContainsScheme 判断列表中是否已有相同方案标签
func ContainsScheme(list []Params, s Scheme) bool {
	for _, p := range list {
		if p.Scheme() == s {
			return true
		}
	}
	return false
}
