package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseAudioType(t *testing.T) {
	tests := []struct {
		tag    string
		want   AudioType
		wantOK bool
	}{
		{tag: "analog", want: AudioTypeAnalog, wantOK: true},
		{tag: "digital", want: AudioTypeDigital, wantOK: true},
		{tag: "digital_tdma", want: AudioTypeDigitalTDMA, wantOK: true},
		{tag: "Digital", want: AudioTypeUnknown},
		{tag: "p25", want: AudioTypeUnknown},
		{tag: "", want: AudioTypeUnknown},
	}

	for _, tc := range tests {
		t.Run(tc.tag, func(t *testing.T) {
			got, ok := ParseAudioType(tc.tag)
			require.Equal(t, tc.wantOK, ok)
			require.Equal(t, tc.want, got)
			if ok {
				require.Equal(t, tc.tag, got.String())
			}
		})
	}
}

func TestAudioType_ValueRejectsUnknown(t *testing.T) {
	_, err := AudioTypeUnknown.Value()
	require.Error(t, err)

	v, err := AudioTypeDigitalTDMA.Value()
	require.NoError(t, err)
	require.Equal(t, "digital_tdma", v)
}

func TestAudioType_Scan(t *testing.T) {
	var at AudioType
	require.NoError(t, at.Scan([]byte("digital")))
	require.Equal(t, AudioTypeDigital, at)

	require.Error(t, at.Scan("fm"))
	require.Error(t, at.Scan(42))
}

func TestCall_EqualComparesInstants(t *testing.T) {
	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	a := Call{Filename: "f", StartTime: start, StopTime: start.Add(time.Second)}
	b := a
	b.StartTime = start.In(time.FixedZone("X", 3600))
	require.True(t, a.Equal(b))

	text := "hello"
	b.Transcription = &text
	require.False(t, a.Equal(b))
}
