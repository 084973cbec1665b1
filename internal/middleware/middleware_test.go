package middleware

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestLogging(t *testing.T) {
	tests := []struct {
		name      string
		method    string
		path      string
		requestID string
		handler   http.HandlerFunc
		want      []string
	}{
		{
			name:   "explicit status",
			method: "GET",
			path:   "/orders/docx",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
			want: []string{"method=GET", "path=/orders/docx", "status=502", "user_agent=worklist-test"},
		},
		{
			name:   "implicit 200",
			method: "GET",
			path:   "/orders",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("[]"))
			},
			want: []string{"status=200"},
		},
		{
			name:      "request id attached",
			method:    "GET",
			path:      "/orders/all",
			requestID: "abc-123",
			handler:   func(w http.ResponseWriter, r *http.Request) {},
			want:      []string{"request_id=abc-123"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, nil))
			handler := Chain(RequestID(), Logging(logger))(tt.handler)

			req := httptest.NewRequest(tt.method, tt.path, nil)
			req.Header.Set("User-Agent", "worklist-test")
			if tt.requestID != "" {
				req.Header.Set(RequestIDHeader, tt.requestID)
			}
			handler.ServeHTTP(httptest.NewRecorder(), req)

			logged := buf.String()
			for _, want := range tt.want {
				if !strings.Contains(logged, want) {
					t.Errorf("Log missing %q: %s", want, logged)
				}
			}
		})
	}
}

func TestRecovery(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantStatus int
		wantBody   string
		wantLog    string
	}{
		{
			name: "panic before response",
			handler: func(w http.ResponseWriter, r *http.Request) {
				panic("nil product")
			},
			wantStatus: http.StatusInternalServerError,
			wantBody:   "Internal Server Error\n",
			wantLog:    "nil product",
		},
		{
			name: "panic after headers sent",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusAccepted)
				panic("late panic")
			},
			wantStatus: http.StatusAccepted,
			wantBody:   "",
			wantLog:    "late panic",
		},
		{
			name: "no panic",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("ok"))
			},
			wantStatus: http.StatusOK,
			wantBody:   "ok",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, nil))

			req := httptest.NewRequest("GET", "/orders/docx", nil)
			w := httptest.NewRecorder()
			Recovery(logger)(tt.handler).ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Status = %d, want %d", w.Code, tt.wantStatus)
			}
			if w.Body.String() != tt.wantBody {
				t.Errorf("Body = %q, want %q", w.Body.String(), tt.wantBody)
			}

			logged := buf.String()
			if tt.wantLog == "" {
				if logged != "" {
					t.Errorf("unexpected log output: %s", logged)
				}
				return
			}
			if !strings.Contains(logged, "panic recovered") || !strings.Contains(logged, tt.wantLog) {
				t.Errorf("Log = %s, want panic recovered with %q", logged, tt.wantLog)
			}
		})
	}
}

func TestChain(t *testing.T) {
	var trace []string
	tag := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				trace = append(trace, name+">")
				next.ServeHTTP(w, r)
				trace = append(trace, "<"+name)
			})
		}
	}

	handler := Chain(tag("recovery"), tag("logging"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		trace = append(trace, "handler")
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/orders", nil))

	want := []string{"recovery>", "logging>", "handler", "<logging", "<recovery"}
	if !slices.Equal(trace, want) {
		t.Errorf("trace = %v, want %v", trace, want)
	}
}

func TestResponseWriter(t *testing.T) {
	t.Run("first status wins", func(t *testing.T) {
		w := httptest.NewRecorder()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		rw.WriteHeader(http.StatusBadGateway)
		rw.WriteHeader(http.StatusOK)

		if rw.status != http.StatusBadGateway || w.Code != http.StatusBadGateway {
			t.Errorf("status = %d (recorded %d), want %d", rw.status, w.Code, http.StatusBadGateway)
		}
	})

	t.Run("write implies 200", func(t *testing.T) {
		rw := &responseWriter{ResponseWriter: httptest.NewRecorder(), status: http.StatusOK}
		rw.Write([]byte("[]"))

		if !rw.wroteHeader || rw.status != http.StatusOK {
			t.Errorf("wroteHeader = %v, status = %d, want true/200", rw.wroteHeader, rw.status)
		}
	})

	t.Run("flush reaches underlying writer", func(t *testing.T) {
		w := httptest.NewRecorder()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		var _ http.Flusher = rw
		rw.Flush()

		if !w.Flushed {
			t.Error("Flush() should reach the underlying writer")
		}
	})

	t.Run("unwrap", func(t *testing.T) {
		w := httptest.NewRecorder()
		rw := &responseWriter{ResponseWriter: w}
		if rw.Unwrap() != w {
			t.Error("Unwrap() should return the wrapped writer")
		}
	})
}

func TestRequestID(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{"generated", "", false},
		{"caller id kept", "batch-42", true},
		{"oversized id replaced", strings.Repeat("x", maxRequestIDLen+1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			handler := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = GetRequestID(r.Context())
			}))

			req := httptest.NewRequest("GET", "/orders", nil)
			if tt.incoming != "" {
				req.Header.Set(RequestIDHeader, tt.incoming)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if got := w.Header().Get(RequestIDHeader); got != seen {
				t.Errorf("%s = %q, want %q", RequestIDHeader, got, seen)
			}
			if tt.keep {
				if seen != tt.incoming {
					t.Errorf("request id = %q, want %q", seen, tt.incoming)
				}
				return
			}
			if _, err := uuid.Parse(seen); err != nil {
				t.Errorf("generated id %q is not a UUID: %v", seen, err)
			}
		})
	}
}

func TestGetRequestIDMissing(t *testing.T) {
	if id := GetRequestID(context.Background()); id != "" {
		t.Errorf("GetRequestID() = %q, want empty", id)
	}
}
