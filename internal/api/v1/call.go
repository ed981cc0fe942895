package v1

import (
	"encoding/json"
	"fmt"
)

// CallRecord is the call summary emitted by the recorder when a call ends.
// Numeric fields are pointers so a missing field is distinguishable from zero.
//
// Booleans arrive as 0/1, timestamps as Unix seconds and positions as float
// seconds, matching the recorder's JSON.
type CallRecord struct {
	// Filename is the call identifier. When empty it is derived from
	// AudioFile, ShortName and StartTime.
	Filename  string `json:"filename,omitempty"`
	AudioFile string `json:"audio_file,omitempty"`

	Freq        *int64 `json:"freq"`
	FreqError   *int64 `json:"freq_error"`
	Signal      *int64 `json:"signal"`
	Noise       *int64 `json:"noise"`
	SourceNum   *int64 `json:"source_num"`
	RecorderNum *int64 `json:"recorder_num"`
	TDMASlot    *int64 `json:"tdma_slot"`
	Phase2TDMA  *int64 `json:"phase2_tdma"`
	StartTime   *int64 `json:"start_time"`
	StopTime    *int64 `json:"stop_time"`
	Emergency   *int64 `json:"emergency"`
	Priority    *int64 `json:"priority"`
	Mode        *int64 `json:"mode"`
	Duplex      *int64 `json:"duplex"`
	Encrypted   *int64 `json:"encrypted"`
	CallLength  *int64 `json:"call_length"`

	Talkgroup            *int64 `json:"talkgroup"`
	TalkgroupTag         string `json:"talkgroup_tag,omitempty"`
	TalkgroupDescription string `json:"talkgroup_description,omitempty"`
	TalkgroupGroupTag    string `json:"talkgroup_group_tag,omitempty"`
	TalkgroupGroup       string `json:"talkgroup_group,omitempty"`

	AudioType     string `json:"audio_type"`
	ShortName     string `json:"short_name"`
	Transcription string `json:"transcription,omitempty"`

	FreqList []FreqEntry `json:"freqList,omitempty"`
	SrcList  []SrcEntry  `json:"srcList,omitempty"`
}

// UnmarshalJSON accepts both the camelCase and snake_case list keys.
func (r *CallRecord) UnmarshalJSON(data []byte) error {
	type plain CallRecord
	aux := struct {
		*plain
		FreqListSnake []FreqEntry `json:"freq_list"`
		SrcListSnake  []SrcEntry  `json:"src_list"`
	}{plain: (*plain)(r)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if len(r.FreqList) == 0 && len(aux.FreqListSnake) > 0 {
		r.FreqList = aux.FreqListSnake
	}
	if len(r.SrcList) == 0 && len(aux.SrcListSnake) > 0 {
		r.SrcList = aux.SrcListSnake
	}
	return nil
}

// FreqEntry is one raw frequency hop observation.
type FreqEntry struct {
	Freq       *int64   `json:"freq" yaml:"freq"`
	Time       *int64   `json:"time" yaml:"time"`
	Pos        *float64 `json:"pos" yaml:"pos"`
	Len        *float64 `json:"len" yaml:"len"`
	ErrorCount *int64   `json:"error_count" yaml:"error_count"`
	SpikeCount *int64   `json:"spike_count" yaml:"spike_count"`
}

// SrcEntry is one raw signal source observation. Tag describes the source
// itself and is only used when reference rows are synced from payloads.
type SrcEntry struct {
	Src          *int64   `json:"src" yaml:"src"`
	Time         *int64   `json:"time" yaml:"time"`
	Pos          *float64 `json:"pos" yaml:"pos"`
	Emergency    *int64   `json:"emergency" yaml:"emergency"`
	SignalSystem string   `json:"signal_system,omitempty" yaml:"signal_system,omitempty"`
	Tag          string   `json:"tag,omitempty" yaml:"tag,omitempty"`
}

// Payload is the unit handed to the pipeline: an optional call record plus
// zero or more observations, all owned by CallID.
type Payload struct {
	CallID   string      `json:"call_id" yaml:"call_id"`
	Call     *CallRecord `json:"call,omitempty" yaml:"call,omitempty"`
	FreqList []FreqEntry `json:"freq_list,omitempty" yaml:"freq_list,omitempty"`
	SrcList  []SrcEntry  `json:"src_list,omitempty" yaml:"src_list,omitempty"`
}

// Validate checks the envelope attributes the pipeline routes on.
func (p *Payload) Validate() error {
	if p.CallID == "" {
		return fmt.Errorf("call_id is required")
	}
	if p.Call == nil && len(p.FreqList) == 0 && len(p.SrcList) == 0 {
		return fmt.Errorf("payload for call %q carries no records", p.CallID)
	}
	return nil
}

// NewCallPayload lifts the lists embedded in rec into a payload for callID.
// rec keeps the call summary only.
func NewCallPayload(callID string, rec *CallRecord) *Payload {
	p := &Payload{CallID: callID, Call: rec, FreqList: rec.FreqList, SrcList: rec.SrcList}
	rec.FreqList, rec.SrcList = nil, nil
	return p
}
