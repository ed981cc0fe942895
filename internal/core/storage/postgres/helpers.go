package postgres

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/trunkstore-lab/trunkstore/internal/model"
)

type scanner interface {
	Scan(dest ...interface{}) error
}

// scanCall reads a row produced by querySelectCall.
func scanCall(row scanner) (model.Call, error) {
	var c model.Call
	var transcription sql.NullString

	err := row.Scan(
		&c.Filename,
		&c.Freq,
		&c.FreqError,
		&c.Signal,
		&c.Noise,
		&c.SourceNum,
		&c.RecorderNum,
		&c.TDMASlot,
		&c.Phase2TDMA,
		&c.StartTime,
		&c.StopTime,
		&c.Emergency,
		&c.Priority,
		&c.Mode,
		&c.Duplex,
		&c.Encrypted,
		&c.CallLength,
		&c.Talkgroup,
		&c.AudioType,
		&c.ShortName,
		&transcription,
	)
	if err != nil {
		return model.Call{}, fmt.Errorf("failed to scan call row: %w", err)
	}
	c.Transcription = optionalString(transcription)
	return c, nil
}

// scanFreq reads a row produced by querySelectFreq.
func scanFreq(row scanner) (model.FrequencyLogEntry, error) {
	var e model.FrequencyLogEntry
	var pos, length int64

	err := row.Scan(
		&e.CallID,
		&e.Hash,
		&e.Freq,
		&e.Time,
		&pos,
		&length,
		&e.ErrorCount,
		&e.SpikeCount,
	)
	if err != nil {
		return model.FrequencyLogEntry{}, fmt.Errorf("failed to scan freqlist row: %w", err)
	}
	e.Pos = time.Duration(pos) * time.Microsecond
	e.Len = time.Duration(length) * time.Microsecond
	return e, nil
}

// scanSrc reads a row produced by querySelectSrc.
func scanSrc(row scanner) (model.SourceLogEntry, error) {
	var e model.SourceLogEntry
	var pos int64
	var system sql.NullString

	err := row.Scan(
		&e.CallID,
		&e.Hash,
		&e.Src,
		&e.Time,
		&pos,
		&e.Emergency,
		&system,
	)
	if err != nil {
		return model.SourceLogEntry{}, fmt.Errorf("failed to scan srclist row: %w", err)
	}
	e.Pos = time.Duration(pos) * time.Microsecond
	e.SignalSystem = optionalString(system)
	return e, nil
}

func optionalString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}
