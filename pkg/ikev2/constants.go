package ikev2

import "fmt"

// IKEv2 RFC 7296 常量

// 载荷类型
type PayloadType uint8

const (
	NoNextPayload     PayloadType = 0
	SA                PayloadType = 33
	KE                PayloadType = 34
	IDi               PayloadType = 35
	IDr               PayloadType = 36
	CERT              PayloadType = 37
	CERTREQ           PayloadType = 38
	AUTH              PayloadType = 39
	NiNr              PayloadType = 40
	N                 PayloadType = 41
	D                 PayloadType = 42
	V                 PayloadType = 43
	TSI               PayloadType = 44
	TSR               PayloadType = 45
	SK                PayloadType = 46
	CP                PayloadType = 47
	EAP               PayloadType = 48
	EncryptedFragment PayloadType = 53 // RFC 7383
)

var payloadTypeNames = map[PayloadType]string{
	NoNextPayload: "NONE",
	SA:            "SA",
	KE:            "KE",
	IDi:           "IDi",
	IDr:           "IDr",
	CERT:          "CERT",
	CERTREQ:       "CERTREQ",
	AUTH:          "AUTH",
	NiNr:          "No",
	N:             "N",
	D:             "D",
	V:             "V",
	TSI:           "TSi",
	TSR:           "TSr",
	SK:            "SK",
	CP:            "CP",
	EAP:           "EAP",

	EncryptedFragment: "SKF",
}

func (t PayloadType) String() string {
	if s, ok := payloadTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("PAYLOAD(%d)", uint8(t))
}

// 交换类型
type ExchangeType uint8

const (
	IKE_SA_INIT     ExchangeType = 34
	IKE_AUTH        ExchangeType = 35
	CREATE_CHILD_SA ExchangeType = 36
	INFORMATIONAL   ExchangeType = 37
)

func (t ExchangeType) String() string {
	switch t {
	case IKE_SA_INIT:
		return "IKE_SA_INIT"
	case IKE_AUTH:
		return "IKE_AUTH"
	case CREATE_CHILD_SA:
		return "CREATE_CHILD_SA"
	case INFORMATIONAL:
		return "INFORMATIONAL"
	}
	return fmt.Sprintf("EXCHANGE(%d)", uint8(t))
}

// 协议 ID
type ProtocolID uint8

const (
	ProtoIKE ProtocolID = 1
	ProtoAH  ProtocolID = 2
	ProtoESP ProtocolID = 3
)

// 通知消息类型 - 错误类型
const (
	UNSUPPORTED_CRITICAL_PAYLOAD uint16 = 1
	INVALID_SYNTAX               uint16 = 7
	AUTHENTICATION_FAILED        uint16 = 24
)

// 通知消息类型 - 状态类型
const (
	INITIAL_CONTACT         uint16 = 16384
	MOBIKE_SUPPORTED        uint16 = 16396 // RFC 4555: 移动性支持能力协商
	EAP_ONLY_AUTHENTICATION uint16 = 16417 // RFC 5998: 仅 EAP 认证

	// IKE Fragmentation (RFC 7383)
	IKEV2_FRAGMENTATION_SUPPORTED uint16 = 16430

	// RFC 7427: 对端支持的签名哈希算法列表，同时表示支持数字签名认证
	SIGNATURE_HASH_ALGORITHMS uint16 = 16431
)
