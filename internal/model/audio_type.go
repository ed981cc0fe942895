package model

import (
	"database/sql/driver"
	"fmt"
)

// AudioType is the closed set of audio encodings a call can carry.
// The zero value is AudioTypeUnknown and is never written to the store.
type AudioType int

const (
	AudioTypeUnknown AudioType = iota
	AudioTypeAnalog
	AudioTypeDigital
	AudioTypeDigitalTDMA
)

var audioTypeTags = map[string]AudioType{
	"analog":       AudioTypeAnalog,
	"digital":      AudioTypeDigital,
	"digital_tdma": AudioTypeDigitalTDMA,
}

// ParseAudioType maps a raw tag to its enum value. Every input yields a value;
// unrecognized tags map to AudioTypeUnknown with ok=false.
func ParseAudioType(tag string) (t AudioType, ok bool) {
	t, ok = audioTypeTags[tag]
	if !ok {
		return AudioTypeUnknown, false
	}
	return t, true
}

// String returns the schema label of the audio type.
func (t AudioType) String() string {
	switch t {
	case AudioTypeAnalog:
		return "analog"
	case AudioTypeDigital:
		return "digital"
	case AudioTypeDigitalTDMA:
		return "digital_tdma"
	default:
		return "unknown"
	}
}

// Valid reports whether t is one of the storable variants.
func (t AudioType) Valid() bool {
	return t != AudioTypeUnknown && t.String() != "unknown"
}

// Value implements driver.Valuer so the enum is sent as its audiotype label.
func (t AudioType) Value() (driver.Value, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("audio type %d is not storable", int(t))
	}
	return t.String(), nil
}

// Scan implements sql.Scanner for the audiotype column.
func (t *AudioType) Scan(src interface{}) error {
	var tag string
	switch v := src.(type) {
	case string:
		tag = v
	case []byte:
		tag = string(v)
	default:
		return fmt.Errorf("cannot scan %T into AudioType", src)
	}
	parsed, ok := ParseAudioType(tag)
	if !ok {
		return fmt.Errorf("unknown audio type %q", tag)
	}
	*t = parsed
	return nil
}
