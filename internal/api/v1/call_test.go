package v1

import (
	"encoding/json"
	"testing"
)

func TestPayload_Validate(t *testing.T) {
	tests := []struct {
		name    string
		payload Payload
		wantErr bool
	}{
		{
			name:    "call only",
			payload: Payload{CallID: "c1", Call: &CallRecord{}},
		},
		{
			name:    "freqlist only",
			payload: Payload{CallID: "c1", FreqList: []FreqEntry{{}}},
		},
		{
			name:    "missing call id",
			payload: Payload{FreqList: []FreqEntry{{}}},
			wantErr: true,
		},
		{
			name:    "no records",
			payload: Payload{CallID: "c1", FreqList: []FreqEntry{}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.payload.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCallRecord_UnmarshalListKeys(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantFreqs int
		wantSrcs  int
	}{
		{
			name:      "camelCase",
			body:      `{"freqList": [{"freq": 1}], "srcList": [{"src": 1}, {"src": 2}]}`,
			wantFreqs: 1,
			wantSrcs:  2,
		},
		{
			name:      "snake_case",
			body:      `{"freq_list": [{"freq": 1}, {"freq": 2}], "src_list": [{"src": 1}]}`,
			wantFreqs: 2,
			wantSrcs:  1,
		},
		{
			name: "no lists",
			body: `{"short_name": "county-p25"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rec CallRecord
			if err := json.Unmarshal([]byte(tt.body), &rec); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if len(rec.FreqList) != tt.wantFreqs || len(rec.SrcList) != tt.wantSrcs {
				t.Errorf("got %d freqs and %d srcs, want %d and %d",
					len(rec.FreqList), len(rec.SrcList), tt.wantFreqs, tt.wantSrcs)
			}
		})
	}
}

func TestNewCallPayload_LiftsLists(t *testing.T) {
	rec := &CallRecord{
		Filename: "c1",
		FreqList: []FreqEntry{{}, {}},
		SrcList:  []SrcEntry{{}},
	}

	p := NewCallPayload("c1", rec)

	if p.Call != rec {
		t.Fatal("payload must carry the call record")
	}
	if len(p.FreqList) != 2 || len(p.SrcList) != 1 {
		t.Fatalf("lists not lifted: %d freqs, %d srcs", len(p.FreqList), len(p.SrcList))
	}
	if rec.FreqList != nil || rec.SrcList != nil {
		t.Fatal("call record must keep the summary only")
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}
