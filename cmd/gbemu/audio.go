package main

import (
	"encoding/binary"

	"github.com/greyhollow-dev/gbcore/internal/machine"
)

// apuStream adapts Machine's pull-mode audio (the fallback to the §6
// audio_push callback, used here since ebiten's player model is itself
// pull-based) into the io.Reader ebiten's audio.Player expects: 16-bit
// little-endian stereo frames at the APU's configured sample rate.
type apuStream struct {
	m *machine.Machine
}

func (s *apuStream) Read(p []byte) (int, error) {
	frames := len(p) / 4
	if frames == 0 {
		return 0, nil
	}
	samples := s.m.PullAudio(frames)
	n := 0
	for i := 0; i+1 < len(samples) && n+3 < len(p); i += 2 {
		binary.LittleEndian.PutUint16(p[n:], uint16(samples[i]))
		binary.LittleEndian.PutUint16(p[n+2:], uint16(samples[i+1]))
		n += 4
	}
	for ; n+3 < len(p); n += 4 {
		binary.LittleEndian.PutUint16(p[n:], 0)
		binary.LittleEndian.PutUint16(p[n+2:], 0)
	}
	return len(p), nil
}
