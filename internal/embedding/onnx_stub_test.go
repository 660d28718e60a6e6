//go:build !cgo

package embedding

import (
	"errors"
	"strings"
	"testing"

	"github.com/hyperjump/resumatch/internal/config"
)

func TestNew_ONNXWithoutCGO(t *testing.T) {
	for _, provider := range []string{"", "onnx"} {
		_, err := New(config.EmbeddingConfig{Provider: provider, Dimensions: 8})
		if !errors.Is(err, ErrONNXUnavailable) {
			t.Fatalf("provider %q: err = %v, want ErrONNXUnavailable", provider, err)
		}
		if !strings.Contains(err.Error(), `embedding.provider to "mock"`) {
			t.Errorf("provider %q: error should point at the mock provider: %v", provider, err)
		}
	}
}
