package providers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewUpstreamErrorTruncatesBody(t *testing.T) {
	long := strings.Repeat("x", 500)
	err := NewUpstreamError("claude", http.StatusBadGateway, []byte(long))

	if len(err.Body) != 200 {
		t.Errorf("Body length = %d, want 200", len(err.Body))
	}
	if err.Status != http.StatusBadGateway {
		t.Errorf("Status = %d", err.Status)
	}
	if !strings.Contains(err.Error(), "502") {
		t.Errorf("Error() = %q, want status in message", err.Error())
	}
}

func TestParseErrorUnwrap(t *testing.T) {
	inner := errors.New("unexpected end of JSON input")
	err := &ParseError{Provider: "codex", Err: inner}

	if !errors.Is(err, inner) {
		t.Error("ParseError does not unwrap to inner error")
	}
	if !strings.Contains(err.Error(), "codex") {
		t.Errorf("Error() = %q, want provider name", err.Error())
	}
}

func TestDecodeResponse(t *testing.T) {
	t.Run("OK", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]string{"plan_type": "pro"})
		}))
		defer srv.Close()

		resp, err := http.Get(srv.URL)
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()

		var out struct {
			PlanType string `json:"plan_type"`
		}
		if err := DecodeResponse("test", resp, &out); err != nil {
			t.Fatalf("DecodeResponse() error = %v", err)
		}
		if out.PlanType != "pro" {
			t.Errorf("PlanType = %q", out.PlanType)
		}
	})

	t.Run("Non2xx", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", http.StatusForbidden)
		}))
		defer srv.Close()

		resp, err := http.Get(srv.URL)
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()

		var out map[string]any
		err = DecodeResponse("test", resp, &out)

		var upstream *UpstreamError
		if !errors.As(err, &upstream) {
			t.Fatalf("DecodeResponse() error = %v, want UpstreamError", err)
		}
		if upstream.Status != http.StatusForbidden {
			t.Errorf("Status = %d", upstream.Status)
		}
	})

	t.Run("MalformedJSON", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("{not json"))
		}))
		defer srv.Close()

		resp, err := http.Get(srv.URL)
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()

		var out map[string]any
		err = DecodeResponse("test", resp, &out)

		var parse *ParseError
		if !errors.As(err, &parse) {
			t.Fatalf("DecodeResponse() error = %v, want ParseError", err)
		}
	})
}
