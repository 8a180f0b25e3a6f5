package sqlite_test

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/iniwex5/ike-sigauth/pkg/auth"
	"github.com/iniwex5/ike-sigauth/pkg/credentials"
	"github.com/iniwex5/ike-sigauth/pkg/credentials/sqlite"
	"github.com/iniwex5/ike-sigauth/pkg/crypto"
	"github.com/iniwex5/ike-sigauth/pkg/ikev2"
	"github.com/iniwex5/ike-sigauth/pkg/signature"
)

func newDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "creds.db"))
	require.NoError(t, err)
	db.Logger = zaptest.NewLogger(t)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestPrivateKeyRoundTrip(t *testing.T) {
	db := newDB(t)
	id := ikev2.NewFQDN("moon.strongswan.org")

	rsaKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	ecKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	require.NoError(t, db.AddPrivateKey(id, rsaKey))
	require.NoError(t, db.AddPrivateKey(id, ecKey))

	priv, err := db.PrivateKey(signature.KeyECDSA, id, nil)
	require.NoError(t, err)
	require.Equal(t, signature.KeyECDSA, priv.Type())
	want, err := crypto.NewPublicKey(&ecKey.PublicKey)
	require.NoError(t, err)
	require.True(t, priv.Public().Equal(want))

	priv, err = db.PrivateKey(signature.KeyAny, id, nil)
	require.NoError(t, err)
	require.Equal(t, signature.KeyRSA, priv.Type(), "KeyAny 返回最早添加的私钥")
	require.Equal(t, 2048, priv.KeySize())

	_, err = db.PrivateKey(signature.KeyEd25519, id, nil)
	require.ErrorIs(t, err, credentials.ErrNotFound)
	_, err = db.PrivateKey(signature.KeyAny, ikev2.NewFQDN("sun.strongswan.org"), nil)
	require.ErrorIs(t, err, credentials.ErrNotFound)
}

func TestTrustedKeys(t *testing.T) {
	db := newDB(t)
	id := ikev2.NewRFC822("carol@strongswan.org")

	edPub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	ecKey, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	require.NoError(t, err)
	require.NoError(t, db.AddTrustedKey(id, edPub))
	require.NoError(t, db.AddTrustedKey(id, &ecKey.PublicKey))
	require.NoError(t, db.AddTrustedKey(id, &ecKey.PublicKey), "重复添加被忽略")

	var types []signature.KeyType
	for key, meta := range db.PublicKeys(signature.KeyAny, id, nil, true) {
		types = append(types, key.Type())
		v, ok := meta.Get(auth.RuleSubjectPublicKey)
		require.True(t, ok)
		require.True(t, key.Equal(v.(crypto.PublicKey)))
	}
	require.Equal(t, []signature.KeyType{signature.KeyEd25519, signature.KeyECDSA}, types)

	n := 0
	for key := range db.PublicKeys(signature.KeyECDSA, id, nil, true) {
		require.Equal(t, 384, key.KeySize())
		n++
	}
	require.Equal(t, 1, n)
}

func TestPublicKeysEarlyStop(t *testing.T) {
	db := newDB(t)
	// 单连接时未关闭的结果集会阻塞后续查询
	db.DB().SetMaxOpenConns(1)
	id := ikev2.NewFQDN("dave.strongswan.org")
	for range 3 {
		pub, _, err := ed25519.GenerateKey(rand.Reader)
		require.NoError(t, err)
		require.NoError(t, db.AddTrustedKey(id, pub))
	}

	n := 0
	for range db.PublicKeys(signature.KeyAny, id, nil, true) {
		n++
		break
	}
	require.Equal(t, 1, n)

	_, err := db.PrivateKey(signature.KeyAny, id, nil)
	require.ErrorIs(t, err, credentials.ErrNotFound)
}
