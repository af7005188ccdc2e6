package backlog

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"scoreservice.app/review/internal/model"
)

// NormalizeDocumentID turns a caller supplied identifier into the canonical
// string used for URL segments and cycle detection. Numbers must be positive
// integers; strings must not be blank and are trimmed.
func NormalizeDocumentID(v any) (string, error) {
	switch id := v.(type) {
	case string:
		return normalizeStringID(id)
	case model.DocumentID:
		return normalizeStringID(string(id))
	case json.Number:
		if n, err := id.Int64(); err == nil {
			return normalizeInt(n)
		}
		if f, err := id.Float64(); err == nil {
			return normalizeFloat(f)
		}
		return "", invalidIdentifier(v)
	case int:
		return normalizeInt(int64(id))
	case int32:
		return normalizeInt(int64(id))
	case int64:
		return normalizeInt(id)
	case uint:
		return normalizeUint(uint64(id))
	case uint32:
		return normalizeUint(uint64(id))
	case uint64:
		return normalizeUint(id)
	case float64:
		return normalizeFloat(id)
	case float32:
		return normalizeFloat(float64(id))
	default:
		return "", fmt.Errorf("%w: must be a string or number, got %T", ErrInvalidIdentifier, v)
	}
}

func normalizeStringID(s string) (string, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return "", invalidIdentifier(s)
	}
	return trimmed, nil
}

func normalizeInt(n int64) (string, error) {
	if n <= 0 {
		return "", invalidIdentifier(n)
	}
	return strconv.FormatInt(n, 10), nil
}

func normalizeUint(n uint64) (string, error) {
	if n == 0 {
		return "", invalidIdentifier(n)
	}
	return strconv.FormatUint(n, 10), nil
}

func normalizeFloat(f float64) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || f <= 0 || f > math.MaxInt64 {
		return "", invalidIdentifier(f)
	}
	return strconv.FormatInt(int64(f), 10), nil
}

func invalidIdentifier(v any) error {
	return fmt.Errorf("%w: %q must be a positive integer or a non-empty string", ErrInvalidIdentifier, fmt.Sprint(v))
}
