// Package model holds the normalized entities written to the call store.
package model

import "time"

// Call is one recorded radio transmission. Filename is the primary key and
// never changes once committed.
type Call struct {
	Filename      string
	Freq          int32
	FreqError     int16
	Signal        int16
	Noise         int16
	SourceNum     int16
	RecorderNum   int16
	TDMASlot      int16
	Phase2TDMA    int16
	StartTime     time.Time
	StopTime      time.Time
	Emergency     bool
	Priority      int16
	Mode          int16
	Duplex        int16
	Encrypted     bool
	CallLength    int16
	Talkgroup     int32
	AudioType     AudioType
	ShortName     string
	Transcription *string
}

// Equal compares every stored column. Timestamps compare by instant.
func (c Call) Equal(o Call) bool {
	return c.Filename == o.Filename &&
		c.Freq == o.Freq &&
		c.FreqError == o.FreqError &&
		c.Signal == o.Signal &&
		c.Noise == o.Noise &&
		c.SourceNum == o.SourceNum &&
		c.RecorderNum == o.RecorderNum &&
		c.TDMASlot == o.TDMASlot &&
		c.Phase2TDMA == o.Phase2TDMA &&
		c.StartTime.Equal(o.StartTime) &&
		c.StopTime.Equal(o.StopTime) &&
		c.Emergency == o.Emergency &&
		c.Priority == o.Priority &&
		c.Mode == o.Mode &&
		c.Duplex == o.Duplex &&
		c.Encrypted == o.Encrypted &&
		c.CallLength == o.CallLength &&
		c.Talkgroup == o.Talkgroup &&
		c.AudioType == o.AudioType &&
		c.ShortName == o.ShortName &&
		equalOptional(c.Transcription, o.Transcription)
}

// FrequencyLogEntry is one frequency hop observed during a call.
type FrequencyLogEntry struct {
	CallID     string
	Hash       int64
	Freq       int32
	Time       time.Time
	Pos        time.Duration
	Len        time.Duration
	ErrorCount int16
	SpikeCount int16
}

// Equal reports whether both entries describe the same logical event and payload.
func (e FrequencyLogEntry) Equal(o FrequencyLogEntry) bool {
	return e.CallID == o.CallID &&
		e.Hash == o.Hash &&
		e.Freq == o.Freq &&
		e.Time.Equal(o.Time) &&
		e.Pos == o.Pos &&
		e.Len == o.Len &&
		e.ErrorCount == o.ErrorCount &&
		e.SpikeCount == o.SpikeCount
}

// SourceLogEntry is one signal source observed during a call.
type SourceLogEntry struct {
	CallID       string
	Hash         int64
	Src          int32
	Time         time.Time
	Pos          time.Duration
	Emergency    bool
	SignalSystem *string
}

// Equal reports whether both entries describe the same logical event and payload.
func (e SourceLogEntry) Equal(o SourceLogEntry) bool {
	return e.CallID == o.CallID &&
		e.Hash == o.Hash &&
		e.Src == o.Src &&
		e.Time.Equal(o.Time) &&
		e.Pos == o.Pos &&
		e.Emergency == o.Emergency &&
		equalOptional(e.SignalSystem, o.SignalSystem)
}

// Talkgroup is an externally maintained logical radio group.
type Talkgroup struct {
	Talkgroup   int32
	Tag         string
	Description string
	GroupTag    string
	Group       string
}

// Source is an externally maintained radio unit.
type Source struct {
	Src int32
	Tag *string
}

func equalOptional(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
