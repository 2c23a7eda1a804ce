package htlc

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

var (
	// ErrFieldMissing is wrapped in a ParseError when a required field is
	// absent from a response.
	ErrFieldMissing = errors.New("field missing")

	errInvalidJSON = errors.New("invalid JSON document")
)

// ExtractField looks up a single field of a JSON document by gjson path and
// returns its string value. An invalid document or absent field yields a
// *ParseError, never an empty value.
func ExtractField(raw, path string) (string, error) {
	if !gjson.Valid(raw) {
		return "", &ParseError{Err: errInvalidJSON}
	}

	res := gjson.Get(raw, path)
	if !res.Exists() {
		return "", &ParseError{Field: path, Err: ErrFieldMissing}
	}
	return res.String(), nil
}

// Decode decodes lncli output into T. Every path in required must be present
// in the document.
func Decode[T any](raw string, required ...string) (*T, error) {
	if !gjson.Valid(raw) {
		return nil, &ParseError{Err: errInvalidJSON}
	}

	for _, path := range required {
		if !gjson.Get(raw, path).Exists() {
			return nil, &ParseError{Field: path, Err: ErrFieldMissing}
		}
	}

	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, &ParseError{Err: err}
	}
	return &v, nil
}

// Int64 decodes both JSON numbers and the quoted 64 bit integers lncli
// prints.
type Int64 int64

func (i *Int64) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*i = 0
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return err
	}
	*i = Int64(v)
	return nil
}

func (i Int64) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(int64(i), 10)), nil
}
