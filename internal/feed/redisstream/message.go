package redisstream

import (
	"encoding/json"
	"fmt"

	v1 "github.com/trunkstore-lab/trunkstore/internal/api/v1"
	"github.com/trunkstore-lab/trunkstore/internal/normalize"
)

// Message field names.
const (
	FieldKind    = "kind"
	FieldCallID  = "call_id"
	FieldPayload = "payload"
)

// Message kinds.
const (
	KindCall     = "call"
	KindFreqList = "freqlist"
	KindSrcList  = "srclist"
)

// decodeMessage turns the fields of one stream entry into a payload. A call
// message may omit call_id when the record carries enough to derive it.
func decodeMessage(values map[string]interface{}) (*v1.Payload, error) {
	kind, err := stringField(values, FieldKind, true)
	if err != nil {
		return nil, err
	}
	callID, err := stringField(values, FieldCallID, kind != KindCall)
	if err != nil {
		return nil, err
	}
	raw, err := stringField(values, FieldPayload, true)
	if err != nil {
		return nil, err
	}

	var p *v1.Payload
	switch kind {
	case KindCall:
		var rec v1.CallRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("decode call record: %w", err)
		}
		if callID == "" {
			if callID, err = normalize.Filename(&rec); err != nil {
				return nil, err
			}
		}
		p = v1.NewCallPayload(callID, &rec)
	case KindFreqList:
		var entries []v1.FreqEntry
		if err := json.Unmarshal([]byte(raw), &entries); err != nil {
			return nil, fmt.Errorf("decode freqlist: %w", err)
		}
		p = &v1.Payload{CallID: callID, FreqList: entries}
	case KindSrcList:
		var entries []v1.SrcEntry
		if err := json.Unmarshal([]byte(raw), &entries); err != nil {
			return nil, fmt.Errorf("decode srclist: %w", err)
		}
		p = &v1.Payload{CallID: callID, SrcList: entries}
	default:
		return nil, fmt.Errorf("unknown message kind %q", kind)
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func stringField(values map[string]interface{}, name string, required bool) (string, error) {
	v, ok := values[name]
	if !ok || v == nil {
		if required {
			return "", fmt.Errorf("message field %q is missing", name)
		}
		return "", nil
	}
	switch s := v.(type) {
	case string:
		if s == "" && required {
			return "", fmt.Errorf("message field %q is empty", name)
		}
		return s, nil
	case []byte:
		return string(s), nil
	default:
		return "", fmt.Errorf("message field %q has type %T", name, v)
	}
}
