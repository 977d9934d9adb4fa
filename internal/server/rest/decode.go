package rest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/lostify/lostify/internal/common"
	"github.com/lostify/lostify/internal/server/models"
)

// maxBodySize bounds request bodies; images travel inline.
const maxBodySize = 8 << 20

const typeMismatch = "Type mismatch for JSON field(s) in request"

// object is a JSON request body split into its top-level fields. A field
// holding null counts as absent.
type object map[string]json.RawMessage

func badRequest(msg string) error {
	return common.NewError(common.ErrorBadRequest, msg)
}

func missing(key string) error {
	return badRequest(fmt.Sprintf("Field '%s' is required", key))
}

// readObject decodes the request body. An empty body is an empty object.
func readObject(r *http.Request) (object, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize+1))
	if err != nil {
		return nil, badRequest("Unreadable request body")
	}
	if len(body) > maxBodySize {
		return nil, common.NewError(common.ErrorPayloadTooLarge, "Request body too large")
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return object{}, nil
	}

	var o object
	if err := json.Unmarshal(body, &o); err != nil {
		return nil, badRequest("Request body must be a JSON object")
	}
	if o == nil {
		o = object{}
	}
	return o, nil
}

func (o object) raw(key string) (json.RawMessage, bool) {
	v, ok := o[key]
	if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
		return nil, false
	}
	return v, true
}

func (o object) has(key string) bool {
	_, ok := o.raw(key)
	return ok
}

func decodeField[T any](o object, key string) (*T, error) {
	v, ok := o.raw(key)
	if !ok {
		return nil, nil
	}
	var out T
	if err := json.Unmarshal(v, &out); err != nil {
		return nil, badRequest(typeMismatch)
	}
	return &out, nil
}

func required[T any](o object, key string) (T, error) {
	v, err := decodeField[T](o, key)
	if err != nil {
		var zero T
		return zero, err
	}
	if v == nil {
		var zero T
		return zero, missing(key)
	}
	return *v, nil
}

func (o object) requiredString(key string) (string, error) { return required[string](o, key) }
func (o object) requiredInt(key string) (int64, error)     { return required[int64](o, key) }
func (o object) requiredBool(key string) (bool, error)     { return required[bool](o, key) }

func (o object) optionalString(key string) (*string, error) { return decodeField[string](o, key) }
func (o object) optionalInt(key string) (*int64, error)     { return decodeField[int64](o, key) }
func (o object) optionalBlob(key string) (*models.Blob, error) {
	return decodeField[models.Blob](o, key)
}

func (o object) requiredObject(key string) (object, error) {
	v, ok := o.raw(key)
	if !ok {
		return nil, missing(key)
	}
	var out object
	if err := json.Unmarshal(v, &out); err != nil || out == nil {
		return nil, badRequest(typeMismatch)
	}
	return out, nil
}

// intOrNil parses key as a JSON integer; anything else is nil.
func (o object) intOrNil(key string) *int64 {
	v, err := o.optionalInt(key)
	if err != nil {
		return nil
	}
	return v
}

// firstError returns the first non-nil error.
func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
