// Package normalize turns raw recorder call records into store entities.
// Nothing here performs I/O; reference existence is checked by the caller.
package normalize

import (
	"math"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	v1 "github.com/trunkstore-lab/trunkstore/internal/api/v1"
	ingesterr "github.com/trunkstore-lab/trunkstore/internal/core/errors"
	"github.com/trunkstore-lab/trunkstore/internal/model"
)

var microsPerSecond = decimal.NewFromInt(1_000_000)

// Call validates raw and maps it to a model.Call.
func Call(raw *v1.CallRecord) (model.Call, error) {
	if raw == nil {
		return model.Call{}, ingesterr.Validation("", "call", "record is empty")
	}

	filename, err := Filename(raw)
	if err != nil {
		return model.Call{}, err
	}

	f := Fields{CallID: filename}
	call := model.Call{
		Filename:    filename,
		Freq:        f.Positive32("freq", raw.Freq),
		FreqError:   f.Int16("freq_error", raw.FreqError),
		Signal:      f.Int16("signal", raw.Signal),
		Noise:       f.Int16("noise", raw.Noise),
		SourceNum:   f.Int16("source_num", raw.SourceNum),
		RecorderNum: f.Int16("recorder_num", raw.RecorderNum),
		TDMASlot:    f.Int16("tdma_slot", raw.TDMASlot),
		Phase2TDMA:  f.Int16("phase2_tdma", raw.Phase2TDMA),
		StartTime:   f.Epoch("start_time", raw.StartTime),
		StopTime:    f.Epoch("stop_time", raw.StopTime),
		Emergency:   f.Flag("emergency", raw.Emergency),
		Priority:    f.Int16("priority", raw.Priority),
		Mode:        f.Int16("mode", raw.Mode),
		Duplex:      f.Int16("duplex", raw.Duplex),
		Encrypted:   f.Flag("encrypted", raw.Encrypted),
		CallLength:  f.NonNegative16("call_length", raw.CallLength),
		ShortName:   raw.ShortName,
	}
	if err := f.Err(); err != nil {
		return model.Call{}, err
	}

	if raw.ShortName == "" {
		return model.Call{}, ingesterr.Validation(filename, "short_name", "is required")
	}
	if call.StopTime.Before(call.StartTime) {
		return model.Call{}, ingesterr.Validation(filename, "stop_time", "precedes start_time")
	}

	audioType, ok := model.ParseAudioType(raw.AudioType)
	if !ok {
		return model.Call{}, &ingesterr.Error{
			Kind:   ingesterr.KindUnknownAudioType,
			CallID: filename,
			Field:  "audio_type",
			Msg:    "unrecognized tag " + strconv.Quote(raw.AudioType),
		}
	}
	call.AudioType = audioType

	if raw.Talkgroup == nil || *raw.Talkgroup <= 0 || *raw.Talkgroup > math.MaxInt32 {
		return model.Call{}, &ingesterr.Error{
			Kind:   ingesterr.KindReferenceNotFound,
			CallID: filename,
			Field:  "talkgroup",
			Msg:    "missing or out of range",
		}
	}
	call.Talkgroup = int32(*raw.Talkgroup)

	if raw.Transcription != "" {
		text := raw.Transcription
		call.Transcription = &text
	}

	return call, nil
}

// Filename returns the call identifier. An explicit filename wins; otherwise
// it is built as <system>/<YYYY>/<MM>/<DD>/<audio file>, where system is the
// last '-' segment of short_name and the date is the UTC start time.
func Filename(raw *v1.CallRecord) (string, error) {
	if raw.Filename != "" {
		return raw.Filename, nil
	}
	if raw.AudioFile == "" {
		return "", ingesterr.Validation("", "filename", "is required when audio_file is absent")
	}
	if raw.ShortName == "" {
		return "", ingesterr.Validation("", "short_name", "is required to derive filename")
	}
	if raw.StartTime == nil {
		return "", ingesterr.Validation("", "start_time", "is required to derive filename")
	}

	segments := strings.Split(raw.ShortName, "-")
	system := segments[len(segments)-1]
	if system == "" {
		return "", ingesterr.Validation("", "short_name", "has an empty system segment")
	}

	date := time.Unix(*raw.StartTime, 0).UTC().Format("2006/01/02")
	return system + "/" + date + "/" + path.Base(raw.AudioFile), nil
}

// Talkgroup returns the reference row carried by raw, if it names one.
func Talkgroup(raw *v1.CallRecord) (model.Talkgroup, bool) {
	if raw == nil || raw.Talkgroup == nil || *raw.Talkgroup <= 0 || *raw.Talkgroup > math.MaxInt32 {
		return model.Talkgroup{}, false
	}
	return model.Talkgroup{
		Talkgroup:   int32(*raw.Talkgroup),
		Tag:         raw.TalkgroupTag,
		Description: raw.TalkgroupDescription,
		GroupTag:    raw.TalkgroupGroupTag,
		Group:       raw.TalkgroupGroup,
	}, true
}

// Sources returns the distinct source rows named by raws, in first-seen order.
func Sources(raws []v1.SrcEntry) []model.Source {
	seen := make(map[int32]struct{}, len(raws))
	out := make([]model.Source, 0, len(raws))
	for _, r := range raws {
		if r.Src == nil || *r.Src <= 0 || *r.Src > math.MaxInt32 {
			continue
		}
		src := int32(*r.Src)
		if _, ok := seen[src]; ok {
			continue
		}
		seen[src] = struct{}{}
		s := model.Source{Src: src}
		if r.Tag != "" {
			tag := r.Tag
			s.Tag = &tag
		}
		out = append(out, s)
	}
	return out
}

// MaxEpochSeconds is the last accepted timestamp, 9999-12-31T23:59:59Z.
// Microsecond timestamps up to it fit an int64.
const MaxEpochSeconds int64 = 253402300799

// EpochSeconds converts Unix seconds to a UTC timestamp.
func EpochSeconds(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}

// Seconds converts float seconds to a duration with microsecond precision.
// The conversion is decimal so 0.1 maps to exactly 100ms.
func Seconds(sec float64) (time.Duration, error) {
	if math.IsNaN(sec) || math.IsInf(sec, 0) {
		return 0, errNotFinite
	}
	micros := decimal.NewFromFloat(sec).Mul(microsPerSecond).Round(0)
	if !micros.IsInteger() || micros.Abs().GreaterThan(decimal.NewFromInt(math.MaxInt64/int64(time.Microsecond))) {
		return 0, errOutOfRange
	}
	return time.Duration(micros.IntPart()) * time.Microsecond, nil
}
