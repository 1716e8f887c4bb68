package crypto

import (
	"encoding/base64"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCrypto_String(t *testing.T) {
	samples := "abcdefghijklmnopqrstuv"
	for i := 0; i <= 10; i++ {
		ln := 50
		random, err := String(ln, samples)
		if err != nil {
			t.Fatal("failed to generate random string", err)
		}
		if len(random) != 50 {
			t.Error("incorrect character count", cmp.Diff(
				len(random), 50,
			))
		}
		for _, v := range random {
			s := string(v)
			if !strings.Contains(samples, s) {
				t.Errorf("invalid character used in random string: %s", s)
			}
		}
	}
}

func TestCrypto_StringB64(t *testing.T) {
	b64str, err := StringB64(32)
	if err != nil {
		t.Error("error generating random string", err)
	}

	b, err := base64.RawURLEncoding.DecodeString(b64str)
	if err != nil {
		t.Error("failed to decode base64 encoded string")
	}
	if len(b) != 32 {
		t.Error("incorrect byte count", cmp.Diff(len(b), 32))
	}
}

func TestCrypto_Digits(t *testing.T) {
	tt := []struct {
		name     string
		width    int
		hasError bool
	}{
		{
			name:     "Six digit code",
			width:    6,
			hasError: false,
		},
		{
			name:     "Single digit code",
			width:    1,
			hasError: false,
		},
		{
			name:     "Zero width failure",
			width:    0,
			hasError: true,
		},
		{
			name:     "Overflow width failure",
			width:    19,
			hasError: true,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			for i := 0; i < 50; i++ {
				code, err := Digits(tc.width)
				if tc.hasError {
					if err == nil {
						t.Fatal("expected error, received nil")
					}
					return
				}
				if err != nil {
					t.Fatal("failed to generate code:", err)
				}
				if len(code) != tc.width {
					t.Fatalf("incorrect code width, want %v got %v", tc.width, len(code))
				}
				if _, err = strconv.ParseUint(code, 10, 64); err != nil {
					t.Fatalf("code is not numeric: %s", code)
				}
			}
		})
	}
}

func TestCrypto_Hash(t *testing.T) {
	str := "the quick brown fox"
	hash, err := Hash(str)
	if err != nil {
		t.Error("error generating hash", err)
	}

	if str == hash {
		t.Error("string not hashed")
	}

	hash2, err := Hash(str)
	if err != nil {
		t.Error("error generating hash", err)
	}

	if hash != hash2 {
		t.Error("hashes do not match", cmp.Diff(hash, hash2))
	}
}
