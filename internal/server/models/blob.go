package models

import (
	"encoding/json"
	"errors"
)

// Blob is an opaque image payload. On the wire it is a JSON string whose
// bytes are kept verbatim; the client owns the encoding.
type Blob []byte

var errBlobNotString = errors.New("image must be a string")

func (b Blob) MarshalJSON() ([]byte, error) {
	if b == nil {
		return []byte("null"), nil
	}
	return json.Marshal(string(b))
}

func (b *Blob) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*b = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errBlobNotString
	}
	*b = Blob(s)
	return nil
}
