package parser

import (
	"encoding/json"
	"strings"
)

// Status is the outcome of decoding one model reply.
type Status int

const (
	// StatusParsed means the reply decoded into the target type.
	StatusParsed Status = iota
	// StatusNeedsRepair means the reply was not valid JSON for the target type.
	StatusNeedsRepair
	// StatusFailed means no usable value could be produced.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusParsed:
		return "parsed"
	case StatusNeedsRepair:
		return "needs_repair"
	default:
		return "failed"
	}
}

// Result carries a decoded value, or the raw reply and decode error when decoding failed.
type Result[T any] struct {
	Status Status
	Value  *T
	Raw    string
	Err    error
}

// Decode strips code fences from raw and unmarshals it into T.
func Decode[T any](raw string) Result[T] {
	clean := CleanJSON(raw)
	if clean == "" {
		return Result[T]{Status: StatusNeedsRepair, Raw: raw, Err: errEmptyReply}
	}
	var v T
	if err := json.Unmarshal([]byte(clean), &v); err != nil {
		return Result[T]{Status: StatusNeedsRepair, Raw: raw, Err: err}
	}
	return Result[T]{Status: StatusParsed, Value: &v, Raw: raw}
}

// CleanJSON removes a surrounding ``` or ```json fence and whitespace.
func CleanJSON(input string) string {
	clean := strings.TrimSpace(input)
	switch {
	case strings.HasPrefix(clean, "```json"):
		clean = strings.TrimPrefix(clean, "```json")
	case strings.HasPrefix(clean, "```JSON"):
		clean = strings.TrimPrefix(clean, "```JSON")
	case strings.HasPrefix(clean, "```"):
		clean = strings.TrimPrefix(clean, "```")
	}
	clean = strings.TrimSuffix(strings.TrimSpace(clean), "```")
	return strings.TrimSpace(clean)
}
