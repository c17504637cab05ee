package store

import (
	"encoding/json"
	"fmt"

	"github.com/Program-Trace-Optimisation/PTO/internal/ir"
	"github.com/Program-Trace-Optimisation/PTO/internal/trace"
)

// marshalObject converts an ir.Object to canonical JSON TEXT for storage.
// A nil object is stored as "{}".
func marshalObject(obj ir.Object) (string, error) {
	if obj == nil {
		obj = ir.Object{}
	}
	data, err := ir.MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("marshal object: %w", err)
	}
	return string(data), nil
}

// unmarshalObject parses canonical JSON TEXT to an ir.Object.
func unmarshalObject(data string) (ir.Object, error) {
	if data == "" || data == "{}" {
		return ir.Object{}, nil
	}
	v, err := ir.UnmarshalCanonical([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshal object: %w", err)
	}
	obj, ok := v.(ir.Object)
	if !ok {
		return nil, fmt.Errorf("unmarshal object: got %T", v)
	}
	return obj, nil
}

// marshalTrace converts a trace to canonical JSON TEXT and its fingerprint.
func marshalTrace(t *trace.Trace) (data, fingerprint string, err error) {
	raw, err := json.Marshal(t)
	if err != nil {
		return "", "", fmt.Errorf("marshal trace: %w", err)
	}
	fp, err := t.Fingerprint()
	if err != nil {
		return "", "", fmt.Errorf("fingerprint trace: %w", err)
	}
	return string(raw), fp, nil
}

// unmarshalTrace parses canonical JSON TEXT to a trace.
func unmarshalTrace(data string) (*trace.Trace, error) {
	t := trace.NewTrace()
	if err := json.Unmarshal([]byte(data), t); err != nil {
		return nil, fmt.Errorf("unmarshal trace: %w", err)
	}
	return t, nil
}
