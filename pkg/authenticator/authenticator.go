// Package authenticator 实现 IKEv2 公钥签名认证 (RFC 7296 2.15 节, RFC 7427)
package authenticator

import (
	"errors"
	"fmt"
	"io"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/iniwex5/ike-sigauth/pkg/auth"
	"github.com/iniwex5/ike-sigauth/pkg/credentials"
	"github.com/iniwex5/ike-sigauth/pkg/crypto"
	"github.com/iniwex5/ike-sigauth/pkg/ikesa"
	"github.com/iniwex5/ike-sigauth/pkg/ikev2"
	"github.com/iniwex5/ike-sigauth/pkg/logger"
	"github.com/iniwex5/ike-sigauth/pkg/signature"
)

// IKESA 认证器使用的 IKE SA 状态
type IKESA interface {
	MyID() ikev2.Identification
	OtherID() ikev2.Identification
	AuthConfig(local bool) *auth.Config
	SupportsExtension(ext ikesa.Extension) bool
	HasCondition(c ikesa.Condition) bool
	Keymat() ikesa.Keymat
}

var _ IKESA = (*ikesa.SA)(nil)

// Role 认证器角色，构造后不变
type Role uint8

const (
	RoleBuilder Role = iota + 1
	RoleVerifier
)

func (r Role) String() string {
	switch r {
	case RoleBuilder:
		return "builder"
	case RoleVerifier:
		return "verifier"
	}
	return fmt.Sprintf("role(%d)", uint8(r))
}

// Config 认证器配置
type Config struct {
	Policy Policy
	Logger *zap.Logger
}

// Authenticator 一次性的公钥认证器。
// Builder 对本端身份签名并添加 AUTH 载荷，Verifier 验证对端的 AUTH 载荷。
type Authenticator struct {
	role   Role
	sa     IKESA
	creds  credentials.Store
	policy Policy
	log    *zap.Logger

	// 对方生成的 Nonce 和 IKE_SA_INIT 消息
	nonce    []byte
	init     []byte
	reserved [3]byte
}

func newAuthenticator(role Role, sa IKESA, creds credentials.Store, nonce, init []byte, reserved [3]byte, cfg Config) *Authenticator {
	log := cfg.Logger
	if log == nil {
		log = logger.Named("auth")
	}
	return &Authenticator{
		role:     role,
		sa:       sa,
		creds:    creds,
		policy:   cfg.Policy,
		log:      log,
		nonce:    append([]byte(nil), nonce...),
		init:     append([]byte(nil), init...),
		reserved: reserved,
	}
}

// NewBuilder 创建签名方认证器，绑定收到的 Nonce 和本端发送的 IKE_SA_INIT 消息
func NewBuilder(sa IKESA, creds credentials.Store, receivedNonce, sentInit []byte, reserved [3]byte, cfg Config) *Authenticator {
	return newAuthenticator(RoleBuilder, sa, creds, receivedNonce, sentInit, reserved, cfg)
}

// NewVerifier 创建验证方认证器，绑定本端发送的 Nonce 和收到的 IKE_SA_INIT 消息
func NewVerifier(sa IKESA, creds credentials.Store, sentNonce, receivedInit []byte, reserved [3]byte, cfg Config) *Authenticator {
	return newAuthenticator(RoleVerifier, sa, creds, sentNonce, receivedInit, reserved, cfg)
}

func (a *Authenticator) Role() Role { return a.role }

// IsMutual 公钥认证不是双向的
func (a *Authenticator) IsMutual() bool { return false }

// Build 签名并向 msg 添加 AUTH 载荷。用 StatusOf 对返回的错误分类。
func (a *Authenticator) Build(msg *ikev2.IKEPacket) error {
	if a.role != RoleBuilder {
		return fmt.Errorf("%w: %s 不能构造 AUTH", ErrWrongRole, a.role)
	}

	id := a.sa.MyID()
	cfg := a.sa.AuthConfig(true)
	key, err := a.creds.PrivateKey(signature.KeyAny, id, cfg)
	if err != nil {
		a.log.Warn("未找到私钥", logger.Stringer("id", id), logger.Err(err))
		return fmt.Errorf("%w: '%s': %v", ErrNoPrivateKey, id, err)
	}
	defer release(key)

	var method ikev2.AuthMethod
	var data []byte
	if a.sa.SupportsExtension(ikesa.ExtSignatureAuth) {
		method = ikev2.AuthMethodDigitalSignature
		data, err = a.signSignatureAuth(key, id, cfg)
	} else {
		method, data, err = a.signClassic(key, id)
	}
	if err != nil {
		return err
	}

	msg.Add(&ikev2.EncryptedPayloadAuth{AuthMethod: method, AuthData: data})
	return nil
}

// release 释放私钥句柄
func release(key crypto.PrivateKey) {
	if c, ok := key.(io.Closer); ok {
		_ = c.Close()
	}
}

// signSignatureAuth 使用 RFC 7427 数字签名认证
func (a *Authenticator) signSignatureAuth(key crypto.PrivateKey, id ikev2.Identification, cfg *auth.Config) ([]byte, error) {
	km := a.sa.Keymat()
	if km == nil {
		return nil, fmt.Errorf("%w: 密钥材料不可用", ErrOctets)
	}

	schemes := SelectSchemes(key, cfg, km.HashAlgorithmSupported, a.policy)
	if len(schemes) == 0 {
		a.log.Info("没有共同的哈希算法，无法签名",
			logger.Stringer("key_type", key.Type()))
		return nil, fmt.Errorf("%w: %s 密钥", ErrNoCommonScheme, key.Type())
	}

	octets, schemes, err := km.AuthOctets(false, a.init, a.nonce, id, a.reserved, schemes)
	if err != nil {
		a.log.Info("本端认证失败", logger.Stringer("id", id), logger.Err(err))
		return nil, fmt.Errorf("%w: %v", ErrOctets, err)
	}
	if len(schemes) == 0 {
		return nil, fmt.Errorf("%w: %s 密钥", ErrNoCommonScheme, key.Type())
	}

	var errs error
	for _, p := range schemes {
		data, err := signAuthData(key, p, octets)
		if err == nil {
			a.log.Info("本端认证成功",
				logger.Stringer("id", id),
				logger.Stringer("scheme", p))
			return data, nil
		}
		a.log.Debug("无法创建签名",
			logger.Stringer("scheme", p),
			logger.Stringer("key_type", key.Type()),
			logger.Err(err))
		errs = multierr.Append(errs, fmt.Errorf("%s: %w", p, err))
	}

	a.log.Info("本端认证失败", logger.Stringer("id", id), logger.Err(errs))
	return nil, fmt.Errorf("%w: %w", ErrSignFailed, errs)
}

func signAuthData(key crypto.PrivateKey, p signature.Params, octets []byte) ([]byte, error) {
	sig, err := key.Sign(p, octets)
	if err != nil {
		return nil, err
	}
	return signature.BuildAuthData(p, sig)
}

// signClassic 使用 RFC 7296 传统签名认证
func (a *Authenticator) signClassic(key crypto.PrivateKey, id ikev2.Identification) (ikev2.AuthMethod, []byte, error) {
	params, method, err := SelectClassic(key)
	if err != nil {
		a.log.Info("私钥不支持传统签名认证", logger.Err(err))
		return method, nil, err
	}

	km := a.sa.Keymat()
	if km == nil {
		return method, nil, fmt.Errorf("%w: 密钥材料不可用", ErrOctets)
	}
	octets, schemes, err := km.AuthOctets(false, a.init, a.nonce, id, a.reserved, []signature.Params{params})
	if err != nil || len(schemes) == 0 {
		a.log.Info("本端认证失败",
			logger.Stringer("id", id),
			logger.Stringer("method", method),
			logger.Err(err))
		return method, nil, fmt.Errorf("%w: %v", ErrOctets, err)
	}

	sig, err := key.Sign(schemes[0], octets)
	if err != nil {
		a.log.Info("本端认证失败",
			logger.Stringer("id", id),
			logger.Stringer("method", method),
			logger.Err(err))
		return method, nil, fmt.Errorf("%w: %v", ErrSignFailed, err)
	}
	a.log.Info("本端认证成功",
		logger.Stringer("id", id),
		logger.Stringer("method", method))
	return method, sig, nil
}

// Process 验证 msg 中对端的 AUTH 载荷。
// 成功时将可信公钥的认证信息、认证类别和签名方案合并到对端认证配置。
func (a *Authenticator) Process(msg *ikev2.IKEPacket) error {
	if a.role != RoleVerifier {
		return fmt.Errorf("%w: %s 不能处理 AUTH", ErrWrongRole, a.role)
	}

	payload, ok := msg.Get(ikev2.AUTH).(*ikev2.EncryptedPayloadAuth)
	if !ok {
		return ErrMissingAuth
	}

	method := payload.AuthMethod
	sig := payload.AuthData
	params, keyType, ok := classicScheme(method)
	if !ok {
		if method != ikev2.AuthMethodDigitalSignature {
			a.log.Info("认证方法不支持", logger.Stringer("method", method))
			return fmt.Errorf("%w: %s", ErrUnsupportedMethod, method)
		}
		n, p, kt, err := signature.ParseAuthData(sig)
		if err != nil {
			a.log.Info("认证载荷无效", logger.Stringer("method", method), logger.Err(err))
			return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		params, keyType, sig = p, kt, sig[n:]
	}

	id := a.sa.OtherID()
	km := a.sa.Keymat()
	if km == nil {
		return fmt.Errorf("%w: 密钥材料不可用", ErrOctets)
	}
	octets, schemes, err := km.AuthOctets(true, a.init, a.nonce, id, a.reserved, []signature.Params{params})
	if err != nil || len(schemes) == 0 {
		return fmt.Errorf("%w: %v", ErrOctets, err)
	}
	// 以密钥材料确认的方案为准
	if !signature.Equal(schemes[0], params) {
		a.log.Debug("密钥材料调整了签名方案",
			logger.Stringer("received", params),
			logger.Stringer("effective", schemes[0]))
	}
	params = schemes[0]

	cfg := a.sa.AuthConfig(false)
	online := !a.sa.HasCondition(ikesa.CondOnlineValidationSuspended)

	tried := 0
	var errs error
	for key, meta := range a.creds.PublicKeys(keyType, id, cfg, online) {
		tried++
		if err := key.Verify(params, octets, sig); err != nil {
			if errors.Is(err, crypto.ErrUnsupportedParams) {
				a.log.Debug("本端无法验证该签名参数",
					logger.Stringer("scheme", params),
					logger.Err(err))
			}
			a.log.Info("签名验证失败，尝试下一个公钥", logger.Err(err))
			errs = multierr.Append(errs, err)
			continue
		}

		if method == ikev2.AuthMethodDigitalSignature {
			a.log.Info("对端认证成功", logger.Stringer("id", id), logger.Stringer("scheme", params))
		} else {
			a.log.Info("对端认证成功", logger.Stringer("id", id), logger.Stringer("method", method))
		}
		cfg.Merge(meta)
		_ = cfg.Add(auth.RuleAuthClass, auth.ClassPubkey)
		_ = cfg.Add(auth.RuleIKESignatureScheme, params)
		if !online {
			_ = cfg.Add(auth.RuleCertValidationSuspended, true)
		}
		return nil
	}

	if tried == 0 {
		a.log.Warn("未找到可信公钥",
			logger.Stringer("key_type", keyType),
			logger.Stringer("id", id))
		return fmt.Errorf("%w: %s '%s'", ErrNotFound, keyType, id)
	}
	return fmt.Errorf("%w: %d 个公钥均未通过: %w", ErrVerifyFailed, tried, errs)
}
