package codec

import (
	"encoding/json"
)

// JSON is the standard-library JSON codec.
//
// Notes:
// - Results and partial aggregate states are plain structs; JSON is stable
//   and portable for them.
// - If you need custom encoding (e.g. protobuf/msgpack), implement Codec and
//   pass it wherever a codec is accepted.
//
// Performance note:
//   - If you need the most portable/lowest-dependency option, use JSON.
//   - The default codec may change over time; envelopes always record the
//     codec name so the payload can be decoded on the receiving side.
type JSON struct{}

// Marshal encodes the value to JSON.
func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// Unmarshal decodes the JSON data into v.
func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// Name returns the unique name of the codec ("json").
func (JSON) Name() string { return "json" }

// Default is the default codec used by the library.
var Default Codec = GoJSON{}
