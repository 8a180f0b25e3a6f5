package credentials

import (
	"errors"
	"iter"

	"github.com/iniwex5/ike-sigauth/pkg/auth"
	"github.com/iniwex5/ike-sigauth/pkg/crypto"
	"github.com/iniwex5/ike-sigauth/pkg/ikev2"
	"github.com/iniwex5/ike-sigauth/pkg/signature"
)

var ErrNotFound = errors.New("未找到凭据")

// Store 凭据存储
type Store interface {
	// PrivateKey 返回 id 的私钥，没有时返回 ErrNotFound。
	// 返回的私钥若实现了 io.Closer，调用方用完后必须关闭。
	PrivateKey(kt signature.KeyType, id ikev2.Identification, cfg *auth.Config) (crypto.PrivateKey, error)

	// PublicKeys 惰性遍历 id 的可信公钥及其附带的认证信息。
	// 遍历只能进行一次，提前结束时存储释放相关资源。
	// online 为 false 时不做在线吊销检查。
	PublicKeys(kt signature.KeyType, id ikev2.Identification, cfg *auth.Config, online bool) iter.Seq2[crypto.PublicKey, *auth.Config]
}
