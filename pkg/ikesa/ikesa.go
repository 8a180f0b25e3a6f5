package ikesa

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/iniwex5/ike-sigauth/pkg/auth"
	"github.com/iniwex5/ike-sigauth/pkg/ikev2"
	"github.com/iniwex5/ike-sigauth/pkg/keymat"
	"github.com/iniwex5/ike-sigauth/pkg/logger"
	"github.com/iniwex5/ike-sigauth/pkg/signature"
)

// Extension 对端支持的 IKEv2 扩展
type Extension uint8

const (
	// ExtSignatureAuth RFC 7427 数字签名认证
	ExtSignatureAuth Extension = 1 << iota
	ExtMOBIKE
	ExtFragmentation
)

func (e Extension) String() string {
	switch e {
	case ExtSignatureAuth:
		return "SIGNATURE_AUTH"
	case ExtMOBIKE:
		return "MOBIKE"
	case ExtFragmentation:
		return "FRAGMENTATION"
	}
	return fmt.Sprintf("EXT(%#x)", uint8(e))
}

// Condition IKE SA 状态条件
type Condition uint8

const (
	// CondOnlineValidationSuspended 暂停在线证书状态检查
	CondOnlineValidationSuspended Condition = 1 << iota
)

// Keymat 签名认证使用的密钥材料
type Keymat interface {
	HashAlgorithmSupported(h signature.HashAlgorithm) bool
	AuthOctets(verify bool, init, nonce []byte, id ikev2.Identification,
		reserved [3]byte, schemes []signature.Params) ([]byte, []signature.Params, error)
}

// hashNotifyProcessor 可记录对端 SIGNATURE_HASH_ALGORITHMS 的 Keymat
type hashNotifyProcessor interface {
	ProcessSignatureHashNotify(n *ikev2.EncryptedPayloadNotify) (int, error)
}

var (
	_ Keymat              = (*keymat.Keymat)(nil)
	_ hashNotifyProcessor = (*keymat.Keymat)(nil)
)

// SA IKE SA 中认证所需的状态
type SA struct {
	Initiator bool
	Logger    *zap.Logger

	mu         sync.RWMutex
	myID       ikev2.Identification
	otherID    ikev2.Identification
	localAuth  *auth.Config
	remoteAuth *auth.Config
	extensions Extension
	conditions Condition
	keymat     Keymat
}

func New(initiator bool, km Keymat) *SA {
	return &SA{
		Initiator:  initiator,
		localAuth:  auth.NewConfig(),
		remoteAuth: auth.NewConfig(),
		keymat:     km,
	}
}

func (s *SA) log() *zap.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return logger.Named("ikesa")
}

func (s *SA) MyID() ikev2.Identification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.myID
}

func (s *SA) SetMyID(id ikev2.Identification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.myID = id
}

func (s *SA) OtherID() ikev2.Identification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.otherID
}

func (s *SA) SetOtherID(id ikev2.Identification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.otherID = id
}

// AuthConfig 返回本端 (local 为 true) 或对端当前认证轮次的配置
func (s *SA) AuthConfig(local bool) *auth.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if local {
		return s.localAuth
	}
	return s.remoteAuth
}

// SetAuthConfig 替换认证配置
func (s *SA) SetAuthConfig(local bool, cfg *auth.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if local {
		s.localAuth = cfg
	} else {
		s.remoteAuth = cfg
	}
}

func (s *SA) SupportsExtension(ext Extension) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.extensions&ext != 0
}

func (s *SA) EnableExtension(ext Extension) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.extensions |= ext
}

func (s *SA) HasCondition(c Condition) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conditions&c != 0
}

func (s *SA) SetCondition(c Condition, enable bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if enable {
		s.conditions |= c
	} else {
		s.conditions &^= c
	}
}

func (s *SA) Keymat() Keymat {
	return s.keymat
}

// ProcessNotify 处理 IKE_SA_INIT 中的扩展通知
func (s *SA) ProcessNotify(n *ikev2.EncryptedPayloadNotify) error {
	switch n.NotifyType {
	case ikev2.SIGNATURE_HASH_ALGORITHMS:
		km, ok := s.keymat.(hashNotifyProcessor)
		if !ok {
			return nil
		}
		count, err := km.ProcessSignatureHashNotify(n)
		if err != nil {
			return fmt.Errorf("解析 SIGNATURE_HASH_ALGORITHMS 失败: %v", err)
		}
		if count > 0 {
			s.EnableExtension(ExtSignatureAuth)
		}
		s.log().Debug("对端支持签名认证", logger.Int("hashes", count))
	case ikev2.MOBIKE_SUPPORTED:
		s.EnableExtension(ExtMOBIKE)
	case ikev2.IKEV2_FRAGMENTATION_SUPPORTED:
		s.EnableExtension(ExtFragmentation)
	}
	return nil
}

// ProcessInit 处理 IKE_SA_INIT 消息中的所有通知
func (s *SA) ProcessInit(msg *ikev2.IKEPacket) error {
	for _, pl := range msg.Payloads {
		if n, ok := pl.(*ikev2.EncryptedPayloadNotify); ok {
			if err := s.ProcessNotify(n); err != nil {
				return err
			}
		}
	}
	return nil
}
