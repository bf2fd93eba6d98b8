package logger

import "time"

// Standard field key constants for structured logging.
const (
	FieldComponent  = "component"
	FieldKey        = "key"
	FieldScope      = "scope"
	FieldScopeID    = "scope_id"
	FieldStage      = "stage"
	FieldResolution = "resolution_id"
	FieldOperation  = "operation"
	FieldStatus     = "status"
	FieldError      = "error"
	FieldDuration   = "duration_ms"
	FieldCacheHit   = "cache_hit"
	FieldShared     = "shared"
)

// Fields builds a map[string]interface{} from alternating key-value pairs.
//
//	logger.Info("stage done", logger.Fields("stage", 2, "nodes", 3))
func Fields(kvs ...interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(kvs)/2)
	for i := 0; i < len(kvs)-1; i += 2 {
		if key, ok := kvs[i].(string); ok {
			m[key] = kvs[i+1]
		}
	}
	return m
}

// ErrorFields creates fields for an operation that failed.
func ErrorFields(op string, err error) map[string]interface{} {
	return map[string]interface{}{
		FieldOperation: op,
		FieldError:     err.Error(),
	}
}

// DurationFields creates fields for a timed operation.
func DurationFields(op string, d time.Duration) map[string]interface{} {
	return map[string]interface{}{
		FieldOperation: op,
		FieldDuration:  d.Milliseconds(),
	}
}
