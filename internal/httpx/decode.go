package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/sundayezeilo/linkstore/internal/errx"
)

const (
	// MaxRequestBodySize is the maximum allowed request body size (64KB).
	MaxRequestBodySize = 64 << 10
)

// DecodeJSON decodes a single JSON object from the request body into T.
// Every failure is returned as an errx.Invalid error so handlers can answer
// 400 without inspecting the cause.
func DecodeJSON[T any](r *http.Request) (T, error) {
	const op = "httpx.DecodeJSON"
	var zeroValue T

	r.Body = http.MaxBytesReader(nil, r.Body, MaxRequestBodySize)
	defer func() {
		_ = r.Body.Close()
	}()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	var v T
	if err := decoder.Decode(&v); err != nil {
		return zeroValue, errx.E(op, errx.Invalid, describeDecodeError(err))
	}

	// Ensure there's no additional data after the JSON object
	if decoder.More() {
		return zeroValue, errx.E(op, errx.Invalid, errors.New("request body contains multiple JSON objects"))
	}

	return v, nil
}

func describeDecodeError(err error) error {
	var syntaxErr *json.SyntaxError
	var unmarshalErr *json.UnmarshalTypeError
	var maxBytesErr *http.MaxBytesError

	switch {
	case errors.As(err, &syntaxErr):
		return fmt.Errorf("malformed JSON at position %d", syntaxErr.Offset)
	case errors.As(err, &unmarshalErr):
		return fmt.Errorf("invalid value for field %q", unmarshalErr.Field)
	case errors.As(err, &maxBytesErr):
		return fmt.Errorf("request body too large (max %d bytes)", MaxRequestBodySize)
	case errors.Is(err, io.EOF):
		return errors.New("request body is empty")
	case errors.Is(err, io.ErrUnexpectedEOF):
		return errors.New("malformed JSON: unexpected end of input")
	default:
		return fmt.Errorf("failed to decode JSON: %w", err)
	}
}
