package normalize

import (
	"errors"
	"math"
	"time"

	ingesterr "github.com/trunkstore-lab/trunkstore/internal/core/errors"
)

var (
	errNotFinite  = errors.New("is not a finite number")
	errOutOfRange = errors.New("is out of range")
)

// Fields converts raw numeric fields and keeps the first validation failure.
// Once a failure is recorded later conversions return zero values.
type Fields struct {
	CallID string
	Hash   int64
	err    error
}

// Err returns the first recorded failure.
func (f *Fields) Err() error {
	return f.err
}

func (f *Fields) fail(field, msg string) {
	if f.err != nil {
		return
	}
	e := ingesterr.Validation(f.CallID, field, msg)
	e.Hash = f.Hash
	f.err = e
}

func (f *Fields) required(field string, v *int64) (int64, bool) {
	if f.err != nil {
		return 0, false
	}
	if v == nil {
		f.fail(field, "is required")
		return 0, false
	}
	return *v, true
}

// Int16 requires v and checks it fits a smallint.
func (f *Fields) Int16(field string, v *int64) int16 {
	n, ok := f.required(field, v)
	if !ok {
		return 0
	}
	if n < math.MinInt16 || n > math.MaxInt16 {
		f.fail(field, errOutOfRange.Error())
		return 0
	}
	return int16(n)
}

// NonNegative16 is Int16 that also rejects negative values.
func (f *Fields) NonNegative16(field string, v *int64) int16 {
	n := f.Int16(field, v)
	if n < 0 {
		f.fail(field, "must not be negative")
		return 0
	}
	return n
}

// Positive32 requires v in (0, MaxInt32].
func (f *Fields) Positive32(field string, v *int64) int32 {
	n, ok := f.required(field, v)
	if !ok {
		return 0
	}
	if n <= 0 || n > math.MaxInt32 {
		f.fail(field, "must be a positive 32-bit integer")
		return 0
	}
	return int32(n)
}

// Flag requires v to be 0 or 1.
func (f *Fields) Flag(field string, v *int64) bool {
	n, ok := f.required(field, v)
	if !ok {
		return false
	}
	if n != 0 && n != 1 {
		f.fail(field, "must be 0 or 1")
		return false
	}
	return n == 1
}

// Epoch requires v and converts Unix seconds to UTC. Epochs before 1970 or
// after MaxEpochSeconds are rejected.
func (f *Fields) Epoch(field string, v *int64) time.Time {
	n, ok := f.required(field, v)
	if !ok {
		return time.Time{}
	}
	if n < 0 {
		f.fail(field, "must not precede the Unix epoch")
		return time.Time{}
	}
	if n > MaxEpochSeconds {
		f.fail(field, "must not be after 9999-12-31T23:59:59Z")
		return time.Time{}
	}
	return EpochSeconds(n)
}

// Duration requires v and converts non-negative float seconds.
func (f *Fields) Duration(field string, v *float64) time.Duration {
	if f.err != nil {
		return 0
	}
	if v == nil {
		f.fail(field, "is required")
		return 0
	}
	d, err := Seconds(*v)
	if err != nil {
		f.fail(field, err.Error())
		return 0
	}
	if d < 0 {
		f.fail(field, "must not be negative")
		return 0
	}
	return d
}
