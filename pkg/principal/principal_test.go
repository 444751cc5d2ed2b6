package principal

import "testing"

func TestNormalize(t *testing.T) {
	got, err := Normalize("0xAbCdEf0123456789aBcDeF0123456789AbCdEf01")
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if got != "0xabcdef0123456789abcdef0123456789abcdef01" {
		t.Fatalf("got %s", got)
	}

	for _, bad := range []string{"", "0x123", "not-an-address", "0xZZcdef0123456789abcdef0123456789abcdef01"} {
		if _, err := Normalize(bad); err != ErrInvalid {
			t.Errorf("Normalize(%q) err=%v, want ErrInvalid", bad, err)
		}
	}
}

func TestSame(t *testing.T) {
	a := "0xabcdef0123456789abcdef0123456789abcdef01"
	b := "0xABCDEF0123456789ABCDEF0123456789ABCDEF01"
	if !Same(a, b) {
		t.Fatal("case-insensitive addresses should match")
	}
	if Same(a, "0x0000000000000000000000000000000000000001") {
		t.Fatal("different addresses should not match")
	}
	if Same("bad", "bad") {
		t.Fatal("invalid addresses never match")
	}
}
