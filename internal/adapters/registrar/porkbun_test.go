package registrar

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jnMetaCode/available-domains/internal/domain"
)

func TestPorkbun_CheckAvailability(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		var req porkbunRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.APIKey != "pk" || req.SecretKey != "sk" {
			t.Errorf("credentials = %q/%q, want pk/sk", req.APIKey, req.SecretKey)
		}

		switch {
		case strings.HasSuffix(r.URL.Path, "/free.com"):
			w.Write([]byte(`{"status":"SUCCESS","response":{"avail":"yes","price":"9.13"}}`))
		case strings.HasSuffix(r.URL.Path, "/taken.com"):
			w.Write([]byte(`{"status":"SUCCESS","response":{"avail":"no"}}`))
		default:
			w.Write([]byte(`{"status":"ERROR","message":"weird"}`))
		}
	}))
	defer ts.Close()

	p := NewPorkbun(Config{Endpoint: ts.URL, APIKey: "pk", APISecret: "sk"}, ts.Client())

	available, note, err := p.CheckAvailability(context.Background(), "free.com")
	if err != nil {
		t.Fatalf("free.com: %v", err)
	}
	if !available {
		t.Error("free.com not reported available")
	}
	if note != "price 9.13" {
		t.Errorf("note = %q, want price 9.13", note)
	}

	available, _, err = p.CheckAvailability(context.Background(), "taken.com")
	if err != nil {
		t.Fatalf("taken.com: %v", err)
	}
	if available {
		t.Error("taken.com reported available")
	}
}

func TestPorkbun_RateLimitBodyIsTransient(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"status":"ERROR","message":"Can only check within 10 seconds used"}`))
	}))
	defer ts.Close()

	p := NewPorkbun(Config{Endpoint: ts.URL, APIKey: "pk"}, ts.Client())
	_, _, err := p.CheckAvailability(context.Background(), "x.com")
	if err == nil {
		t.Fatal("expected error")
	}
	if !domain.IsTransient(err) {
		t.Errorf("error %v not transient", err)
	}
}

func TestPorkbun_AuthFailureIsPermanent(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	p := NewPorkbun(Config{Endpoint: ts.URL, APIKey: "bad"}, ts.Client())
	_, _, err := p.CheckAvailability(context.Background(), "x.com")
	if err == nil {
		t.Fatal("expected error")
	}
	if !domain.IsPermanent(err) {
		t.Errorf("error %v not permanent", err)
	}
}

func TestPorkbun_MissingKeyIsPermanent(t *testing.T) {
	p := NewPorkbun(Config{}, http.DefaultClient)
	_, _, err := p.CheckAvailability(context.Background(), "x.com")
	if !domain.IsPermanent(err) {
		t.Errorf("error %v not permanent", err)
	}
}

func TestPorkbun_ServerErrorIsTransient(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	p := NewPorkbun(Config{Endpoint: ts.URL, APIKey: "pk"}, ts.Client())
	_, _, err := p.CheckAvailability(context.Background(), "x.com")
	if !domain.IsTransient(err) {
		t.Errorf("error %v not transient", err)
	}
}
