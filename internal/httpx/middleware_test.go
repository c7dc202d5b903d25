package httpx

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/sundayezeilo/linkstore/internal/metrics"
)

func TestGetRequestID(t *testing.T) {
	if got := GetRequestID(context.Background()); got != "" {
		t.Errorf("GetRequestID() on empty context = %q, want empty", got)
	}

	ctx := WithRequestID(context.Background(), "req-123")
	if got := GetRequestID(ctx); got != "req-123" {
		t.Errorf("GetRequestID() = %q, want req-123", got)
	}
}

func TestChain(t *testing.T) {
	var calls []string
	trace := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls = append(calls, name+"-before")
				next.ServeHTTP(w, r)
				calls = append(calls, name+"-after")
			})
		}
	}

	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, "handler")
	})

	Chain(trace("m1"), trace("m2"))(final).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	expected := []string{"m1-before", "m2-before", "handler", "m2-after", "m1-after"}
	if len(calls) != len(expected) {
		t.Fatalf("expected %d calls, got %d: %v", len(expected), len(calls), calls)
	}
	for i, want := range expected {
		if calls[i] != want {
			t.Errorf("call %d: expected %q, got %q", i, want, calls[i])
		}
	}
}

func TestChain_Empty(t *testing.T) {
	called := false
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })

	Chain()(final).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	if !called {
		t.Error("expected final handler to be called")
	}
}

func TestRequestID(t *testing.T) {
	t.Run("generates a UUID when header is absent", func(t *testing.T) {
		var seen string
		h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = GetRequestID(r.Context())
		}))

		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest("GET", "/links", nil))

		if _, err := uuid.Parse(seen); err != nil {
			t.Errorf("request id %q is not a UUID: %v", seen, err)
		}
		if got := rr.Header().Get(RequestIDHeader); got != seen {
			t.Errorf("response header = %q, want %q", got, seen)
		}
	})

	t.Run("reuses incoming header", func(t *testing.T) {
		var seen string
		h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = GetRequestID(r.Context())
		}))

		req := httptest.NewRequest("GET", "/links", nil)
		req.Header.Set(RequestIDHeader, "client-id")
		h.ServeHTTP(httptest.NewRecorder(), req)

		if seen != "client-id" {
			t.Errorf("request id = %q, want client-id", seen)
		}
	})
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	h := Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPreconditionFailed)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("PUT", "/links/abc", nil))

	out := buf.String()
	for _, want := range []string{`"msg":"http request"`, `"status":412`, `"path":"/links/abc"`, `"method":"PUT"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log output %s missing %s", out, want)
		}
	}
}

func TestMetrics_RecordsRoutePattern(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("DELETE /links/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	counter := metrics.RequestTotal.WithLabelValues("DELETE", "DELETE /links/{id}", "204")
	before := testutil.ToFloat64(counter)

	Metrics(mux).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("DELETE", "/links/123", nil))

	if got := testutil.ToFloat64(counter); got != before+1 {
		t.Errorf("request counter = %v, want %v", got, before+1)
	}
}

func TestMetrics_UnmatchedRoute(t *testing.T) {
	counter := metrics.RequestTotal.WithLabelValues("GET", "unmatched", "404")
	before := testutil.ToFloat64(counter)

	Metrics(http.NotFoundHandler()).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/nope", nil))

	if got := testutil.ToFloat64(counter); got != before+1 {
		t.Errorf("request counter = %v, want %v", got, before+1)
	}
}

func TestRecovery(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
	h := Recovery(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/links", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusInternalServerError)
	}
	if !strings.Contains(rr.Body.String(), "internal_error") {
		t.Errorf("body = %s, want internal_error", rr.Body.String())
	}
}

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("allows all origins when list is empty", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/links", nil)
		req.Header.Set("Origin", "https://app.example.com")
		CORS(nil)(next).ServeHTTP(rr, req)

		if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "*" {
			t.Errorf("Allow-Origin = %q, want *", got)
		}
		if got := rr.Header().Get("Access-Control-Expose-Headers"); !strings.Contains(got, "Last-Modified") {
			t.Errorf("Expose-Headers = %q, want Last-Modified exposed", got)
		}
		if got := rr.Header().Get("Access-Control-Allow-Headers"); !strings.Contains(got, IfUnmodifiedSinceHeader) {
			t.Errorf("Allow-Headers = %q, want %s allowed", got, IfUnmodifiedSinceHeader)
		}
	})

	t.Run("echoes only listed origins", func(t *testing.T) {
		allowed := []string{"https://app.example.com"}

		rr := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/links", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		CORS(allowed)(next).ServeHTTP(rr, req)
		if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("Allow-Origin = %q, want empty", got)
		}

		rr = httptest.NewRecorder()
		req.Header.Set("Origin", "https://app.example.com")
		CORS(allowed)(next).ServeHTTP(rr, req)
		if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
			t.Errorf("Allow-Origin = %q, want https://app.example.com", got)
		}
	})

	t.Run("answers preflight without calling next", func(t *testing.T) {
		called := false
		h := CORS(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))

		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodOptions, "/links/1", nil))

		if called {
			t.Error("next handler should not run for preflight")
		}
		if rr.Code != http.StatusNoContent {
			t.Errorf("status = %d, want %d", rr.Code, http.StatusNoContent)
		}
	})
}

func TestResponseWriter_CapturesStatusCode(t *testing.T) {
	for _, code := range []int{http.StatusOK, http.StatusNoContent, http.StatusGone, http.StatusPreconditionFailed} {
		rr := httptest.NewRecorder()
		wrapped := &responseWriter{ResponseWriter: rr, statusCode: http.StatusOK}
		wrapped.WriteHeader(code)

		if wrapped.statusCode != code {
			t.Errorf("expected status code %d, got %d", code, wrapped.statusCode)
		}
	}
}
