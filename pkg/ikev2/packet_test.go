package ikev2

import (
	"bytes"
	"testing"
)

func TestPacketRoundTrip(t *testing.T) {
	msg := NewIKEPacket(IKE_AUTH, 1)
	msg.Header.SPIi = 0x0102030405060708
	msg.Header.SPIr = 0x1112131415161718
	msg.Header.Flags = FlagInitiator

	id := NewPayloadID(NewFQDN("carol@strongswan.org"), true)
	id.Reserved = [3]byte{1, 2, 3}
	msg.Add(id)
	msg.Add(&EncryptedPayloadAuth{AuthMethod: AuthMethodDigitalSignature, AuthData: []byte{0x01, 0x02, 0x03}})
	msg.Add(&RawPayload{PType: CERT, Critical: true, Data: []byte{0x04, 0xaa}})
	msg.Add(NewSignatureHashAlgorithmsNotify([]uint16{2, 3, 4}))

	raw, err := msg.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if int(msg.Header.Length) != len(raw) {
		t.Fatalf("header length %d, encoded %d", msg.Header.Length, len(raw))
	}

	decoded, err := DecodePacket(raw)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if decoded.Header.ExchangeType != IKE_AUTH || decoded.Header.MessageID != 1 {
		t.Fatalf("header mismatch: %s", decoded.Header)
	}
	if !decoded.Header.IsInitiator() || decoded.Header.IsResponse() {
		t.Fatalf("flags mismatch: %b", decoded.Header.Flags)
	}
	if decoded.Header.SPIi != msg.Header.SPIi || decoded.Header.SPIr != msg.Header.SPIr {
		t.Fatalf("SPI mismatch: %s", decoded.Header)
	}
	if len(decoded.Payloads) != 4 {
		t.Fatalf("payload count mismatch: %d", len(decoded.Payloads))
	}

	gotID, ok := decoded.Get(IDi).(*EncryptedPayloadID)
	if !ok {
		t.Fatalf("IDi missing")
	}
	if gotID.Reserved != id.Reserved {
		t.Fatalf("reserved bytes mismatch: %x", gotID.Reserved)
	}
	if !gotID.Identification().Equal(id.Identification()) {
		t.Fatalf("identity mismatch: %s", gotID.Identification())
	}

	auth, ok := decoded.Get(AUTH).(*EncryptedPayloadAuth)
	if !ok {
		t.Fatalf("AUTH missing")
	}
	if auth.AuthMethod != AuthMethodDigitalSignature || !bytes.Equal(auth.AuthData, []byte{0x01, 0x02, 0x03}) {
		t.Fatalf("AUTH mismatch: %s %x", auth.AuthMethod, auth.AuthData)
	}

	cert, ok := decoded.Get(CERT).(*RawPayload)
	if !ok || !cert.Critical || !bytes.Equal(cert.Data, []byte{0x04, 0xaa}) {
		t.Fatalf("raw payload mismatch: %+v", decoded.Get(CERT))
	}

	n := decoded.Notify(SIGNATURE_HASH_ALGORITHMS)
	if n == nil {
		t.Fatalf("notify missing")
	}
	if decoded.Notify(MOBIKE_SUPPORTED) != nil {
		t.Fatalf("unexpected MOBIKE notify")
	}
	if decoded.Get(NiNr) != nil {
		t.Fatalf("unexpected nonce payload")
	}
}

func TestPacketEmpty(t *testing.T) {
	raw, err := NewIKEPacket(INFORMATIONAL, 7).Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if len(raw) != IKE_HEADER_LEN {
		t.Fatalf("length mismatch: %d", len(raw))
	}
	decoded, err := DecodePacket(raw)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if decoded.Header.NextPayload != NoNextPayload || len(decoded.Payloads) != 0 {
		t.Fatalf("unexpected payloads: %s", decoded.Header)
	}
}

func TestDecodePacketInvalid(t *testing.T) {
	msg := NewIKEPacket(IKE_AUTH, 1)
	msg.Add(&EncryptedPayloadAuth{AuthMethod: AuthMethodRSASig, AuthData: make([]byte, 8)})
	raw, err := msg.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	if _, err := DecodePacket(raw[:IKE_HEADER_LEN-1]); err == nil {
		t.Fatalf("short header should fail")
	}

	badVersion := append([]byte(nil), raw...)
	badVersion[17] = 0x10
	if _, err := DecodePacket(badVersion); err == nil {
		t.Fatalf("IKEv1 version should fail")
	}

	// 头部长度超过实际数据
	if _, err := DecodePacket(raw[:len(raw)-1]); err == nil {
		t.Fatalf("truncated packet should fail")
	}

	// 载荷长度超出
	badLen := append([]byte(nil), raw...)
	badLen[IKE_HEADER_LEN+3] = 0xff
	if _, err := DecodePacket(badLen); err == nil {
		t.Fatalf("payload length overflow should fail")
	}

	// 载荷长度小于通用头部
	badLen[IKE_HEADER_LEN+2], badLen[IKE_HEADER_LEN+3] = 0, 2
	if _, err := DecodePacket(badLen); err == nil {
		t.Fatalf("payload length underflow should fail")
	}
}

func TestPayloadTypeString(t *testing.T) {
	if AUTH.String() != "AUTH" || N.String() != "N" {
		t.Fatalf("unexpected names: %s %s", AUTH, N)
	}
	if PayloadType(200).String() != "PAYLOAD(200)" {
		t.Fatalf("unexpected name: %s", PayloadType(200))
	}
	if IKE_SA_INIT.String() != "IKE_SA_INIT" || ExchangeType(99).String() != "EXCHANGE(99)" {
		t.Fatalf("unexpected exchange names")
	}
}
