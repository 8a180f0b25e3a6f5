package credentials

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/iniwex5/ike-sigauth/pkg/auth"
	"github.com/iniwex5/ike-sigauth/pkg/crypto"
	"github.com/iniwex5/ike-sigauth/pkg/ikev2"
	"github.com/iniwex5/ike-sigauth/pkg/signature"
)

var serial int64

func newCert(t *testing.T, cn string, isCA bool, dns []string, parent *x509.Certificate, parentKey *ecdsa.PrivateKey) (*x509.Certificate, *ecdsa.PrivateKey) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	serial++
	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(serial),
		Subject:               pkix.Name{CommonName: cn},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		DNSNames:              dns,
		BasicConstraintsValid: true,
		IsCA:                  isCA,
		KeyUsage:              x509.KeyUsageDigitalSignature,
	}
	if isCA {
		tmpl.KeyUsage |= x509.KeyUsageCertSign
	}
	if parent == nil {
		parent, parentKey = tmpl, key
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, parent, &key.PublicKey, parentKey)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	return cert, key
}

func collect(seq func(func(crypto.PublicKey, *auth.Config) bool)) ([]crypto.PublicKey, []*auth.Config) {
	var keys []crypto.PublicKey
	var metas []*auth.Config
	for k, m := range seq {
		keys = append(keys, k)
		metas = append(metas, m)
	}
	return keys, metas
}

func TestMemoryStoreRawKeys(t *testing.T) {
	store := NewMemoryStore()
	store.Logger = zaptest.NewLogger(t)

	k, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	require.NoError(t, err)
	priv, err := crypto.NewPrivateKey(k)
	require.NoError(t, err)

	id := ikev2.NewFQDN("moon.strongswan.org")
	store.AddPrivateKey(id, priv)
	store.AddTrustedKey(id, priv.Public())

	got, err := store.PrivateKey(signature.KeyECDSA, id, nil)
	require.NoError(t, err)
	require.Same(t, priv, got)

	_, err = store.PrivateKey(signature.KeyRSA, id, nil)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = store.PrivateKey(signature.KeyAny, ikev2.NewFQDN("sun.strongswan.org"), nil)
	require.ErrorIs(t, err, ErrNotFound)

	keys, metas := collect(store.PublicKeys(signature.KeyAny, id, nil, true))
	require.Len(t, keys, 1)
	require.True(t, keys[0].Equal(priv.Public()))
	v, ok := metas[0].Get(auth.RuleSubjectPublicKey)
	require.True(t, ok)
	require.Equal(t, keys[0], v)

	keys, _ = collect(store.PublicKeys(signature.KeyRSA, id, nil, true))
	require.Empty(t, keys)
}

func TestMemoryStoreCertificates(t *testing.T) {
	store := NewMemoryStore()
	store.Logger = zaptest.NewLogger(t)

	ca, caKey := newCert(t, "strongSwan Root CA", true, nil, nil, nil)
	im, imKey := newCert(t, "strongSwan Intermediate CA", true, nil, ca, caKey)
	leaf, leafKey := newCert(t, "moon", false, []string{"moon.strongswan.org"}, im, imKey)
	store.AddCA(ca)
	store.AddIntermediate(im)
	store.AddCertificate(leaf)

	priv, err := crypto.NewPrivateKey(leafKey)
	require.NoError(t, err)
	store.AddPrivateKey(ikev2.Identification{}, priv)

	id := ikev2.NewFQDN("MOON.strongswan.org")
	got, err := store.PrivateKey(signature.KeyECDSA, id, nil)
	require.NoError(t, err, "应通过证书找到私钥")
	require.Same(t, priv, got)

	keys, metas := collect(store.PublicKeys(signature.KeyECDSA, id, nil, true))
	require.Len(t, keys, 1)
	require.True(t, keys[0].Equal(priv.Public()))
	require.Equal(t, []*x509.Certificate{leaf}, metas[0].Certificates(auth.RuleSubjectCert))
	require.Equal(t, []*x509.Certificate{im}, metas[0].Certificates(auth.RuleIntermediateCert))
	require.Equal(t, []*x509.Certificate{ca}, metas[0].Certificates(auth.RuleCACert))

	dn := ikev2.NewDN(leaf.RawSubject)
	keys, _ = collect(store.PublicKeys(signature.KeyAny, dn, nil, false))
	require.Len(t, keys, 1, "DN 身份应匹配证书主题")
}

func TestMemoryStoreUntrustedChain(t *testing.T) {
	store := NewMemoryStore()
	store.Logger = zaptest.NewLogger(t)

	ca, _ := newCert(t, "Trusted CA", true, nil, nil, nil)
	other, otherKey := newCert(t, "Other CA", true, nil, nil, nil)
	leaf, _ := newCert(t, "sun", false, []string{"sun.strongswan.org"}, other, otherKey)
	store.AddCA(ca)
	store.AddCertificate(leaf)

	keys, _ := collect(store.PublicKeys(signature.KeyAny, ikev2.NewFQDN("sun.strongswan.org"), nil, true))
	require.Empty(t, keys, "不可信的证书链不应产生候选")
}

func TestMemoryStoreCAConstraint(t *testing.T) {
	store := NewMemoryStore()
	store.Logger = zaptest.NewLogger(t)

	caA, caAKey := newCert(t, "CA A", true, nil, nil, nil)
	caB, _ := newCert(t, "CA B", true, nil, nil, nil)
	leaf, _ := newCert(t, "carol", false, []string{"carol.strongswan.org"}, caA, caAKey)
	store.AddCA(caA)
	store.AddCA(caB)
	store.AddCertificate(leaf)
	id := ikev2.NewFQDN("carol.strongswan.org")

	cfg := auth.NewConfig()
	require.NoError(t, cfg.Add(auth.RuleCACert, caB))
	keys, _ := collect(store.PublicKeys(signature.KeyAny, id, cfg, true))
	require.Empty(t, keys, "链的根不是配置的 CA")

	cfg = auth.NewConfig()
	require.NoError(t, cfg.Add(auth.RuleCACert, caA))
	keys, _ = collect(store.PublicKeys(signature.KeyAny, id, cfg, true))
	require.Len(t, keys, 1)
}

func TestMemoryStoreEarlyStop(t *testing.T) {
	store := NewMemoryStore()
	id := ikev2.NewFQDN("dave.strongswan.org")
	for range 3 {
		k, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		require.NoError(t, err)
		priv, err := crypto.NewPrivateKey(k)
		require.NoError(t, err)
		store.AddTrustedKey(id, priv.Public())
	}

	n := 0
	for range store.PublicKeys(signature.KeyAny, id, nil, true) {
		n++
		if n == 2 {
			break
		}
	}
	require.Equal(t, 2, n)

	// 遍历期间可以修改存储
	for key := range store.PublicKeys(signature.KeyAny, id, nil, true) {
		store.AddTrustedKey(id, key)
	}
	keys, _ := collect(store.PublicKeys(signature.KeyAny, id, nil, true))
	require.Len(t, keys, 6)
}
