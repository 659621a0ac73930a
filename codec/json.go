package codec

import (
	"encoding/json"
)

// JSON is the standard-library JSON codec.
//
// It is the most portable option and handles the map/slice/struct shapes used
// by derived tables and item attributes. Implement Codec yourself if you need
// a custom encoding (e.g. protobuf/msgpack).
type JSON struct{}

// Marshal encodes the value to JSON.
func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// Unmarshal decodes the JSON data into v.
func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// Name returns the unique name of the codec ("json").
func (JSON) Name() string { return "json" }

// Default is the codec used when none is configured.
//
// This affects newly-written entries only; existing entries are
// self-describing and are decoded by selecting their codec by name.
var Default Codec = GoJSON{}
