package httpx

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sundayezeilo/linkstore/internal/errx"
)

const (
	// LastModifiedHeader carries a resource's version token on responses.
	LastModifiedHeader = "Last-Modified"
	// IfUnmodifiedSinceHeader carries the client's version token on mutations.
	IfUnmodifiedSinceHeader = "If-Unmodified-Since"
)

// FormatVersion renders t in the HTTP date format. The format has one-second
// resolution; sub-second parts of t are dropped.
func FormatVersion(t time.Time) string {
	return t.UTC().Format(http.TimeFormat)
}

// SetVersion writes t as the Last-Modified header.
func SetVersion(w http.ResponseWriter, t time.Time) {
	w.Header().Set(LastModifiedHeader, FormatVersion(t))
}

// ParseVersion reads the If-Unmodified-Since header. A missing header is an
// errx.PreconditionRequired error and an unparseable one is errx.Invalid.
// RFC 1123, RFC 850 and ANSI C dates are accepted; the result is UTC.
func ParseVersion(r *http.Request) (time.Time, error) {
	const op = "httpx.ParseVersion"

	raw := r.Header.Get(IfUnmodifiedSinceHeader)
	if raw == "" {
		return time.Time{}, errx.E(op, errx.PreconditionRequired,
			errors.New(IfUnmodifiedSinceHeader+" header is required"))
	}

	t, err := http.ParseTime(raw)
	if err != nil {
		return time.Time{}, errx.E(op, errx.Invalid,
			fmt.Errorf("malformed %s header %q", IfUnmodifiedSinceHeader, raw))
	}
	return t.UTC(), nil
}
