package credentials

import (
	"bytes"
	"crypto/x509"
	"iter"
	"net"
	"slices"
	"strings"
	"sync"

	"github.com/iniwex5/ike-sigauth/pkg/auth"
	"github.com/iniwex5/ike-sigauth/pkg/crypto"
	"github.com/iniwex5/ike-sigauth/pkg/ikev2"
	"github.com/iniwex5/ike-sigauth/pkg/logger"
	"github.com/iniwex5/ike-sigauth/pkg/signature"
	"go.uber.org/zap"
)

type privateEntry struct {
	id  ikev2.Identification
	key crypto.PrivateKey
}

type publicEntry struct {
	id  ikev2.Identification
	key crypto.PublicKey
}

// MemoryStore 内存凭据存储，保存私钥、可信公钥和 X.509 证书
type MemoryStore struct {
	Logger *zap.Logger

	mu            sync.RWMutex
	privateKeys   []privateEntry
	publicKeys    []publicEntry
	certs         []*x509.Certificate
	intermediates []*x509.Certificate
	cas           []*x509.Certificate
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) log() *zap.Logger {
	if m.Logger != nil {
		return m.Logger
	}
	return logger.Named("credentials")
}

// AddPrivateKey 添加 id 的私钥。
// id 为空时私钥只能通过与之匹配的终端证书找到。
func (m *MemoryStore) AddPrivateKey(id ikev2.Identification, key crypto.PrivateKey) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.privateKeys = append(m.privateKeys, privateEntry{id: id, key: key})
}

// AddTrustedKey 添加 id 的可信原始公钥
func (m *MemoryStore) AddTrustedKey(id ikev2.Identification, key crypto.PublicKey) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.publicKeys = append(m.publicKeys, publicEntry{id: id, key: key})
}

// AddCertificate 添加终端证书，按证书中的身份匹配
func (m *MemoryStore) AddCertificate(cert *x509.Certificate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.certs = append(m.certs, cert)
}

func (m *MemoryStore) AddIntermediate(cert *x509.Certificate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.intermediates = append(m.intermediates, cert)
}

// AddCA 添加可信根证书
func (m *MemoryStore) AddCA(cert *x509.Certificate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cas = append(m.cas, cert)
}

func (m *MemoryStore) PrivateKey(kt signature.KeyType, id ikev2.Identification, cfg *auth.Config) (crypto.PrivateKey, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, e := range m.privateKeys {
		if e.key.Type().Matches(kt) && e.id.Equal(id) {
			return e.key, nil
		}
	}

	// 通过本端证书查找私钥
	for _, cert := range m.certs {
		if !certMatchesID(cert, id) {
			continue
		}
		pub, err := crypto.NewPublicKey(cert.PublicKey)
		if err != nil {
			continue
		}
		for _, e := range m.privateKeys {
			if e.key.Type().Matches(kt) && pub.Equal(e.key.Public()) {
				return e.key, nil
			}
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) PublicKeys(kt signature.KeyType, id ikev2.Identification, cfg *auth.Config, online bool) iter.Seq2[crypto.PublicKey, *auth.Config] {
	// 加锁复制候选列表，遍历期间不持有锁
	m.mu.RLock()
	var raw []crypto.PublicKey
	for _, e := range m.publicKeys {
		if e.key.Type().Matches(kt) && e.id.Equal(id) {
			raw = append(raw, e.key)
		}
	}
	var certs []*x509.Certificate
	for _, cert := range m.certs {
		if certMatchesID(cert, id) {
			certs = append(certs, cert)
		}
	}
	roots := x509.NewCertPool()
	for _, ca := range m.cas {
		roots.AddCert(ca)
	}
	intermediates := x509.NewCertPool()
	for _, im := range m.intermediates {
		intermediates.AddCert(im)
	}
	m.mu.RUnlock()

	var allowedCAs []*x509.Certificate
	if cfg != nil {
		allowedCAs = cfg.Certificates(auth.RuleCACert)
	}
	log := m.log()

	return func(yield func(crypto.PublicKey, *auth.Config) bool) {
		for _, key := range raw {
			meta := auth.NewConfig()
			_ = meta.Add(auth.RuleSubjectPublicKey, key)
			if !yield(key, meta) {
				return
			}
		}

		for _, cert := range certs {
			key, err := crypto.NewPublicKey(cert.PublicKey)
			if err != nil || !key.Type().Matches(kt) {
				continue
			}
			chain, err := verifyChain(cert, roots, intermediates, allowedCAs)
			if err != nil {
				log.Debug("证书链验证失败",
					logger.String("subject", cert.Subject.String()),
					logger.Err(err))
				continue
			}
			meta := auth.NewConfig()
			_ = meta.Add(auth.RuleSubjectCert, cert)
			if len(chain) > 2 {
				for _, im := range chain[1 : len(chain)-1] {
					_ = meta.Add(auth.RuleIntermediateCert, im)
				}
			}
			_ = meta.Add(auth.RuleCACert, chain[len(chain)-1])
			if !yield(key, meta) {
				return
			}
		}
	}
}

// verifyChain 返回以 allowed 中之一为根的第一条证书链，allowed 为空时不限制
func verifyChain(cert *x509.Certificate, roots, intermediates *x509.CertPool, allowed []*x509.Certificate) ([]*x509.Certificate, error) {
	chains, err := cert.Verify(x509.VerifyOptions{
		Roots:         roots,
		Intermediates: intermediates,
		KeyUsages:     []x509.ExtKeyUsage{x509.ExtKeyUsageAny},
	})
	if err != nil {
		return nil, err
	}
	for _, chain := range chains {
		root := chain[len(chain)-1]
		if len(allowed) == 0 || slices.ContainsFunc(allowed, root.Equal) {
			return chain, nil
		}
	}
	return nil, x509.UnknownAuthorityError{Cert: cert}
}

// certMatchesID 证书是否包含该身份
func certMatchesID(cert *x509.Certificate, id ikev2.Identification) bool {
	switch id.Type {
	case ikev2.ID_FQDN:
		return slices.ContainsFunc(cert.DNSNames, func(n string) bool {
			return strings.EqualFold(n, string(id.Data))
		})
	case ikev2.ID_RFC822_ADDR:
		return slices.ContainsFunc(cert.EmailAddresses, func(e string) bool {
			return strings.EqualFold(e, string(id.Data))
		})
	case ikev2.ID_IPV4_ADDR, ikev2.ID_IPV6_ADDR:
		return slices.ContainsFunc(cert.IPAddresses, func(ip net.IP) bool {
			return ip.Equal(net.IP(id.Data))
		})
	case ikev2.ID_DER_ASN1_DN:
		return bytes.Equal(cert.RawSubject, id.Data)
	case ikev2.ID_KEY_ID:
		return len(cert.SubjectKeyId) > 0 && bytes.Equal(cert.SubjectKeyId, id.Data)
	}
	return false
}
