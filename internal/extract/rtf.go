package extract

import (
	"fmt"

	"github.com/lu4p/cat"
)

// extractRTF converts RTF to text with cat, which detects the format from the content.
func extractRTF(content []byte) (string, error) {
	text, err := cat.FromBytes(content)
	if err != nil {
		return "", fmt.Errorf("extract RTF: %w", err)
	}
	return text, nil
}
