package upstream

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestInvokeForwardsBodyAndCredential(t *testing.T) {
	var gotBody []byte
	var gotHeader, gotContentType, gotMethod string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotHeader = r.Header.Get(DefaultAPIKeyHeader)
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"output":"hello"}`))
	}))
	defer server.Close()

	client, err := New(Config{URL: server.URL, APIKey: "secret-key"})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	body := []byte(`{"messages":[{"role":"user","content":"hi"}]}`)
	resp, err := client.Invoke(context.Background(), body)
	if err != nil {
		t.Fatalf("Invoke() error: %v", err)
	}

	if gotMethod != http.MethodPost {
		t.Errorf("method = %q, want POST", gotMethod)
	}
	if string(gotBody) != string(body) {
		t.Errorf("forwarded body = %q, want %q", gotBody, body)
	}
	if gotHeader != "secret-key" {
		t.Errorf("credential header = %q, want %q", gotHeader, "secret-key")
	}
	if gotContentType != "application/json" {
		t.Errorf("content type = %q", gotContentType)
	}
	if resp.StatusCode != http.StatusOK || string(resp.Body) != `{"output":"hello"}` {
		t.Errorf("response = %d %q", resp.StatusCode, resp.Body)
	}
	if !resp.OK() {
		t.Error("OK() = false for 200")
	}
}

func TestInvokeReturnsErrorStatusVerbatim(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("agent crashed"))
	}))
	defer server.Close()

	client, err := New(Config{URL: server.URL})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	resp, err := client.Invoke(context.Background(), []byte(`{}`))
	if err != nil {
		t.Fatalf("Invoke() error: %v, non-2xx must not be a transport error", err)
	}
	if resp.StatusCode != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", resp.StatusCode)
	}
	if string(resp.Body) != "agent crashed" {
		t.Errorf("body = %q", resp.Body)
	}
	if resp.OK() {
		t.Error("OK() = true for 502")
	}
}

func TestInvokeUnreachableEndpoint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client, err := New(Config{URL: url})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	_, err = client.Invoke(context.Background(), []byte(`{}`))
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Invoke() error = %v, want ErrUnavailable", err)
	}
}

func TestInvokeCustomHeader(t *testing.T) {
	var got string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("x-service-token")
	}))
	defer server.Close()

	client, err := New(Config{URL: server.URL, APIKey: "tok", APIKeyHeader: "x-service-token"})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if _, err := client.Invoke(context.Background(), []byte(`{}`)); err != nil {
		t.Fatalf("Invoke() error: %v", err)
	}
	if got != "tok" {
		t.Errorf("custom header = %q, want %q", got, "tok")
	}
}

func TestNewRequiresURL(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("New() with empty URL expected error")
	}
}
