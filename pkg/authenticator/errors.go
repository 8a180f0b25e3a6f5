package authenticator

import (
	"errors"
	"fmt"
)

var (
	ErrWrongRole          = errors.New("认证器角色不支持该操作")
	ErrNoPrivateKey       = errors.New("未找到私钥")
	ErrNoCommonScheme     = errors.New("没有可用于签名的共同哈希算法")
	ErrUnsupportedKey     = errors.New("不支持的私钥类型")
	ErrUnsupportedKeySize = errors.New("不支持的 ECDSA 私钥长度")
	ErrSignFailed         = errors.New("签名失败")
	ErrMissingAuth        = errors.New("消息缺少 AUTH 载荷")
	ErrMalformedPayload   = errors.New("AUTH 载荷无效")
	ErrUnsupportedMethod  = errors.New("不支持的认证方法")
	ErrOctets             = errors.New("计算 AUTH 八位字节失败")
	ErrVerifyFailed       = errors.New("签名验证失败")
	ErrNotFound           = errors.New("未找到可信公钥")
)

// Status 认证结果的分类
type Status uint8

const (
	StatusSuccess Status = iota
	StatusFailed
	StatusNotFound
	StatusInvalidArg
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "SUCCESS"
	case StatusFailed:
		return "FAILED"
	case StatusNotFound:
		return "NOT_FOUND"
	case StatusInvalidArg:
		return "INVALID_ARG"
	}
	return fmt.Sprintf("STATUS(%d)", uint8(s))
}

// StatusOf 将 Build/Process 返回的错误映射为结果分类
func StatusOf(err error) Status {
	switch {
	case err == nil:
		return StatusSuccess
	case errors.Is(err, ErrNoPrivateKey), errors.Is(err, ErrNotFound):
		return StatusNotFound
	case errors.Is(err, ErrMalformedPayload), errors.Is(err, ErrUnsupportedMethod):
		return StatusInvalidArg
	}
	return StatusFailed
}
