package signature

// 密钥类型到候选签名方案的默认映射，按偏好排序。
// maxKeySize 为 0 表示不限，否则只有密钥位数不超过该值时才适用。
var schemeTable = []struct {
	keyType    KeyType
	maxKeySize int
	params     Params
}{
	{KeyRSA, 0, NewPSS(HashSHA512)},
	{KeyRSA, 7680, NewPSS(HashSHA384)},
	{KeyRSA, 3072, NewPSS(HashSHA256)},
	{KeyRSA, 0, Plain(RSAPKCS1SHA512)},
	{KeyRSA, 7680, Plain(RSAPKCS1SHA384)},
	{KeyRSA, 3072, Plain(RSAPKCS1SHA256)},
	// ECDSA 优先使用与曲线强度匹配的哈希
	{KeyECDSA, 256, Plain(ECDSASHA256DER)},
	{KeyECDSA, 384, Plain(ECDSASHA384DER)},
	{KeyECDSA, 0, Plain(ECDSASHA512DER)},
	{KeyEd25519, 0, Plain(Ed25519)},
}

// SchemesForKey 返回适用于给定密钥类型和位数的签名方案
func SchemesForKey(keyType KeyType, keySize int) []Params {
	var out []Params
	for _, e := range schemeTable {
		if e.keyType != keyType {
			continue
		}
		if e.maxKeySize != 0 && keySize > e.maxKeySize {
			continue
		}
		out = append(out, e.params)
	}
	return out
}
