package ikev2

import (
	"bytes"
	"crypto/x509/pkix"
	"encoding/asn1"
	"net"
	"strings"
	"testing"
)

func TestPayloadAuthRoundTrip(t *testing.T) {
	p := &EncryptedPayloadAuth{AuthMethod: AuthMethodECDSA384, AuthData: bytes.Repeat([]byte{0x5a}, 96)}
	raw, err := p.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if raw[0] != 10 || !bytes.Equal(raw[1:4], []byte{0, 0, 0}) {
		t.Fatalf("auth header mismatch: %x", raw[:4])
	}
	decoded, err := DecodePayloadAuth(raw)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if decoded.AuthMethod != AuthMethodECDSA384 || !bytes.Equal(decoded.AuthData, p.AuthData) {
		t.Fatalf("auth mismatch: %s", decoded.AuthMethod)
	}

	// 解码结果不引用输入缓冲区
	raw[4] = 0
	if decoded.AuthData[0] != 0x5a {
		t.Fatalf("auth data aliases input")
	}

	if _, err := DecodePayloadAuth([]byte{1, 0, 0}); err == nil {
		t.Fatalf("short auth payload should fail")
	}
}

func TestAuthMethodString(t *testing.T) {
	cases := map[AuthMethod]string{
		AuthMethodRSASig:           "RSA signature",
		AuthMethodSharedKey:        "pre-shared key",
		AuthMethodECDSA521:         "ECDSA-521 signature",
		AuthMethodDigitalSignature: "digital signature",
		AuthMethod(42):             "AUTH_METHOD(42)",
	}
	for m, want := range cases {
		if m.String() != want {
			t.Fatalf("%d: got %q, want %q", uint8(m), m.String(), want)
		}
	}
}

func TestPayloadIDRoundTrip(t *testing.T) {
	p := NewPayloadID(NewIPAddr(net.ParseIP("192.168.0.1")), false)
	if p.Type() != IDr {
		t.Fatalf("type mismatch: %s", p.Type())
	}
	raw, err := p.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	decoded, err := DecodePayloadID(raw, false)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if decoded.IDType != ID_IPV4_ADDR || len(decoded.IDData) != 4 {
		t.Fatalf("IPv4 identity mismatch: %d %x", decoded.IDType, decoded.IDData)
	}
	if decoded.Identification().String() != "192.168.0.1" {
		t.Fatalf("string mismatch: %s", decoded.Identification())
	}

	if _, err := DecodePayloadID([]byte{2, 0}, true); err == nil {
		t.Fatalf("short ID payload should fail")
	}
}

func TestIdentification(t *testing.T) {
	v6 := NewIPAddr(net.ParseIP("fec0::1"))
	if v6.Type != ID_IPV6_ADDR || len(v6.Data) != 16 || v6.String() != "fec0::1" {
		t.Fatalf("IPv6 identity mismatch: %s", v6)
	}

	a := NewFQDN("moon.strongswan.org")
	if !a.Equal(NewFQDN("moon.strongswan.org")) || a.Equal(NewRFC822("moon.strongswan.org")) {
		t.Fatalf("Equal mismatch")
	}
	if a.IsEmpty() || !(Identification{}).IsEmpty() {
		t.Fatalf("IsEmpty mismatch")
	}

	name := pkix.Name{Country: []string{"CH"}, Organization: []string{"strongSwan"}, CommonName: "moon"}
	der, err := asn1.Marshal(name.ToRDNSequence())
	if err != nil {
		t.Fatalf("marshal DN failed: %v", err)
	}
	dn := NewDN(der)
	if s := dn.String(); !strings.Contains(s, "CN=moon") || !strings.Contains(s, "O=strongSwan") {
		t.Fatalf("DN string mismatch: %s", s)
	}

	if s := NewKeyID([]byte{0xde, 0xad}).String(); s != "keyid:dead" {
		t.Fatalf("key id string mismatch: %s", s)
	}
	if s := (Identification{Type: ID_DER_ASN1_GN, Data: []byte{0x01}}).String(); s != "10:01" {
		t.Fatalf("fallback string mismatch: %s", s)
	}
}

func TestPayloadNonce(t *testing.T) {
	nonce := bytes.Repeat([]byte{0x11}, 32)
	p := &EncryptedPayloadNonce{NonceData: nonce}
	raw, err := p.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	decoded, err := DecodePayloadNonce(raw)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !bytes.Equal(decoded.NonceData, nonce) {
		t.Fatalf("nonce mismatch")
	}

	for _, size := range []int{15, 257} {
		if _, err := (&EncryptedPayloadNonce{NonceData: make([]byte, size)}).Encode(); err == nil {
			t.Fatalf("nonce length %d should fail", size)
		}
		if _, err := DecodePayloadNonce(make([]byte, size)); err == nil {
			t.Fatalf("nonce length %d should fail", size)
		}
	}
}

func TestSignatureHashAlgorithmsNotify(t *testing.T) {
	n := NewSignatureHashAlgorithmsNotify([]uint16{2, 3, 4, 5})
	raw, err := n.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	// 协议 ID 0, SPI 长度 0, 通知类型 16431
	if !bytes.Equal(raw[:4], []byte{0, 0, 0x40, 0x2f}) {
		t.Fatalf("notify header mismatch: %x", raw[:4])
	}
	if !bytes.Equal(raw[4:], []byte{0, 2, 0, 3, 0, 4, 0, 5}) {
		t.Fatalf("notify data mismatch: %x", raw[4:])
	}

	decoded, err := DecodePayloadNotify(raw)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	ids, err := decoded.SignatureHashAlgorithms()
	if err != nil {
		t.Fatalf("SignatureHashAlgorithms failed: %v", err)
	}
	if len(ids) != 4 || ids[0] != 2 || ids[3] != 5 {
		t.Fatalf("hash ids mismatch: %v", ids)
	}

	odd := &EncryptedPayloadNotify{NotifyType: SIGNATURE_HASH_ALGORITHMS, NotifyData: []byte{0, 2, 0}}
	if _, err := odd.SignatureHashAlgorithms(); err == nil {
		t.Fatalf("odd length should fail")
	}
	other := &EncryptedPayloadNotify{NotifyType: MOBIKE_SUPPORTED}
	if _, err := other.SignatureHashAlgorithms(); err == nil {
		t.Fatalf("wrong notify type should fail")
	}
}

func TestPayloadNotifySPI(t *testing.T) {
	n := &EncryptedPayloadNotify{
		ProtocolID: ProtoESP,
		SPI:        []byte{0xca, 0xfe, 0xba, 0xbe},
		NotifyType: AUTHENTICATION_FAILED,
		NotifyData: []byte{0x01},
	}
	raw, err := n.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	decoded, err := DecodePayloadNotify(raw)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if decoded.ProtocolID != ProtoESP || !bytes.Equal(decoded.SPI, n.SPI) ||
		decoded.NotifyType != AUTHENTICATION_FAILED || !bytes.Equal(decoded.NotifyData, n.NotifyData) {
		t.Fatalf("notify mismatch: %+v", decoded)
	}

	if _, err := DecodePayloadNotify([]byte{3, 8, 0, 24, 1}); err == nil {
		t.Fatalf("short SPI should fail")
	}
	if _, err := (&EncryptedPayloadNotify{SPI: make([]byte, 256)}).Encode(); err == nil {
		t.Fatalf("long SPI should fail")
	}
}
