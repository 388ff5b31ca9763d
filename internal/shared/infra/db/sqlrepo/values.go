package sqlrepo

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Coercion helpers for binder constructors: NewEntity data maps mix
// caller-supplied values (strings, numbers, typed values) with generated
// defaults (uuid.UUID, time.Time).

func StringValue(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	default:
		return "", fmt.Errorf("expected string, got %T", v)
	}
}

func FloatValue(v any) (float64, error) {
	switch t := v.(type) {
	case nil:
		return 0, nil
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	default:
		return 0, fmt.Errorf("expected number, got %T", v)
	}
}

func TimeValue(v any) (time.Time, error) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return t, nil
	case string:
		return time.Parse(time.RFC3339, t)
	default:
		return time.Time{}, fmt.Errorf("expected time, got %T", v)
	}
}

func TimePtrValue(v any) (*time.Time, error) {
	if v == nil {
		return nil, nil
	}
	if p, ok := v.(*time.Time); ok {
		return p, nil
	}
	t, err := TimeValue(v)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func UUIDValue(v any) (uuid.UUID, error) {
	switch t := v.(type) {
	case nil:
		return uuid.Nil, nil
	case uuid.UUID:
		return t, nil
	case string:
		return uuid.Parse(t)
	default:
		return uuid.Nil, fmt.Errorf("expected uuid, got %T", v)
	}
}
