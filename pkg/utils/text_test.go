package utils

import (
	"math"
	"testing"
)

func TestTruncate(t *testing.T) {
	if Truncate("hello", 10) != "hello" {
		t.Error("short string unchanged")
	}
	if Truncate("hello world", 5) != "hello..." {
		t.Errorf("got %s", Truncate("hello world", 5))
	}
	if Truncate("x", 0) != "x" {
		t.Error("maxLen 0 returns as-is")
	}
	if got := Truncate("héllo wörld", 4); got != "héll..." {
		t.Errorf("rune-safe truncate: got %s", got)
	}
}

func TestJoinNonEmpty(t *testing.T) {
	got := JoinNonEmpty([]string{" Go ", "", "  ", "Rust"}, ", ")
	if got != "Go, Rust" {
		t.Errorf("JoinNonEmpty = %q", got)
	}
	if JoinNonEmpty(nil, ", ") != "" {
		t.Error("nil input should give empty string")
	}
}

func TestNormalizeL2(t *testing.T) {
	x := []float32{3, 4}
	NormalizeL2(x)
	if math.Abs(float64(x[0])-0.6) > 1e-6 || math.Abs(float64(x[1])-0.8) > 1e-6 {
		t.Errorf("NormalizeL2 = %v", x)
	}
	zero := []float32{0, 0}
	NormalizeL2(zero)
	if zero[0] != 0 || zero[1] != 0 {
		t.Error("zero vector should stay unchanged")
	}
	if Norm([]float32{3, 4}) != 5 {
		t.Errorf("Norm = %f", Norm([]float32{3, 4}))
	}
}
