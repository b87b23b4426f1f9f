package cart

import (
	"bytes"
	"encoding/gob"
)

// encodeGob/decodeGob back each variant's opaque SaveState blob,
// matching the teacher's choice of encoding/gob for save-state
// snapshots (internal/bus.Bus.SaveState in the teacher repo).
func encodeGob(v any) []byte {
	var buf bytes.Buffer
	_ = gob.NewEncoder(&buf).Encode(v)
	return buf.Bytes()
}

func decodeGob(data []byte, v any) bool {
	if len(data) == 0 {
		return false
	}
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v) == nil
}
