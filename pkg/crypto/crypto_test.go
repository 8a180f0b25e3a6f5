package crypto

import (
	"bytes"
	"encoding/hex"
	"testing"
)

// TestPrfPlus 测试 PRF+ 密钥派生函数
func TestPrfPlus(t *testing.T) {
	prf := PRF_HMAC_SHA2_256
	key := []byte("test-key-1234567890")
	seed := []byte("test-seed-data")

	result, err := PrfPlus(prf, key, seed, 100)
	if err != nil {
		t.Fatalf("PrfPlus 失败: %v", err)
	}
	if len(result) != 100 {
		t.Errorf("结果长度错误: got %d, want 100", len(result))
	}

	// T1 = prf(K, S | 0x01)
	t1 := Sum(prf, key, append(append([]byte(nil), seed...), 0x01))
	if !bytes.Equal(result[:32], t1) {
		t.Error("T1 计算错误")
	}
	// T2 = prf(K, T1 | S | 0x02)
	in := append(append(append([]byte(nil), t1...), seed...), 0x02)
	if !bytes.Equal(result[32:64], Sum(prf, key, in)) {
		t.Error("T2 计算错误")
	}

	short, err := PrfPlus(prf, key, seed, 40)
	if err != nil {
		t.Fatalf("PrfPlus 失败: %v", err)
	}
	if !bytes.Equal(short, result[:40]) {
		t.Error("较短输出应是较长输出的前缀")
	}

	if _, err := PrfPlus(prf, key, seed, 256*32); err == nil {
		t.Error("超过 255 个块应失败")
	}
}

// TestSum RFC 4231 测试用例 2
func TestSum(t *testing.T) {
	got := Sum(PRF_HMAC_SHA2_256, []byte("Jefe"), []byte("what do ya want for nothing?"))
	want := "5bdcc146bf60754e6a042426089575c75a003f089d2739839dec58b964ec3843"
	if hex.EncodeToString(got) != want {
		t.Errorf("HMAC-SHA-256 错误: got %x", got)
	}
}

// TestGetPRF 测试变换 ID 查找
func TestGetPRF(t *testing.T) {
	for id, want := range map[uint16]int{2: 20, 5: 32, 6: 48, 7: 64} {
		prf, err := GetPRF(id)
		if err != nil {
			t.Fatalf("GetPRF(%d) 失败: %v", id, err)
		}
		if prf.KeyLen() != want || prf.Hash().Size() != want {
			t.Errorf("GetPRF(%d): 密钥长度 %d, want %d", id, prf.KeyLen(), want)
		}
	}
	for _, id := range []uint16{0, 1, 4, 8} {
		if _, err := GetPRF(id); err == nil {
			t.Errorf("GetPRF(%d) 应失败", id)
		}
	}
}
