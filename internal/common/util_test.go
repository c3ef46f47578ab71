package common

import (
	"encoding/hex"
	"testing"
)

func TestMakeRandHexString_LengthAndHex(t *testing.T) {
	const n = 32
	s, err := MakeRandHexString(n)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s) != n*2 {
		t.Fatalf("expected hex length %d, got %d", n*2, len(s))
	}
	if _, err := hex.DecodeString(s); err != nil {
		t.Fatalf("string is not valid hex: %v", err)
	}
}

func TestMakeRandHexString_ZeroSize(t *testing.T) {
	s, err := MakeRandHexString(0)
	if err != nil {
		t.Fatalf("unexpected error for size=0: %v", err)
	}
	if s != "" {
		t.Fatalf("expected empty string for size=0, got %q", s)
	}
}

func TestMakeRandHexString_Distinct(t *testing.T) {
	a, err := MakeRandHexString(32)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := MakeRandHexString(32)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a == b {
		t.Fatalf("two 256-bit tokens are identical: %s", a)
	}
}

func TestIsValidRole(t *testing.T) {
	for _, r := range []string{RoleUser, RoleAdmin} {
		if !IsValidRole(r) {
			t.Fatalf("expected %q to be valid", r)
		}
	}
	for _, r := range []string{"", "root", "Admin"} {
		if IsValidRole(r) {
			t.Fatalf("expected %q to be invalid", r)
		}
	}
}

func TestIsValidDifficulty(t *testing.T) {
	for _, d := range []string{"easy", "medium", "hard"} {
		if !IsValidDifficulty(d) {
			t.Fatalf("expected %q to be valid", d)
		}
	}
	if IsValidDifficulty("extreme") {
		t.Fatal("expected extreme to be invalid")
	}
}
