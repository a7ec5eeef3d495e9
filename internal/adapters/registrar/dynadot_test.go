package registrar

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jnMetaCode/available-domains/internal/domain"
)

func TestDynadot_CheckAvailability(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("key") != "dk" {
			t.Errorf("key = %q, want dk", q.Get("key"))
		}
		if q.Get("command") != "search" {
			t.Errorf("command = %q, want search", q.Get("command"))
		}

		switch q.Get("domain0") {
		case "free.com":
			w.Write([]byte(`{"SearchResponse":{"SearchResults":[{"Available":"yes","Price":"10.99","Currency":"USD"}]}}`))
		case "taken.com":
			w.Write([]byte(`{"SearchResponse":{"SearchResults":[{"Available":"no"}]}}`))
		default:
			w.Write([]byte(`{"SearchResponse":{"Error":"invalid domain"}}`))
		}
	}))
	defer ts.Close()

	d := NewDynadot(Config{Endpoint: ts.URL, APIKey: "dk"}, ts.Client())

	available, note, err := d.CheckAvailability(context.Background(), "free.com")
	if err != nil {
		t.Fatalf("free.com: %v", err)
	}
	if !available {
		t.Error("free.com not reported available")
	}
	if note != "price 10.99 USD" {
		t.Errorf("note = %q, want price 10.99 USD", note)
	}

	available, _, err = d.CheckAvailability(context.Background(), "taken.com")
	if err != nil {
		t.Fatalf("taken.com: %v", err)
	}
	if available {
		t.Error("taken.com reported available")
	}
}

func TestDynadot_KeyErrorIsPermanent(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":"invalid api key"}`))
	}))
	defer ts.Close()

	d := NewDynadot(Config{Endpoint: ts.URL, APIKey: "bad"}, ts.Client())
	_, _, err := d.CheckAvailability(context.Background(), "x.com")
	if err == nil {
		t.Fatal("expected error")
	}
	if !domain.IsPermanent(err) {
		t.Errorf("error %v not permanent", err)
	}
}

func TestDynadot_TooManyRequestsIsTransient(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	d := NewDynadot(Config{Endpoint: ts.URL, APIKey: "dk"}, ts.Client())
	_, _, err := d.CheckAvailability(context.Background(), "x.com")
	if !domain.IsTransient(err) {
		t.Errorf("error %v not transient", err)
	}
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Errorf("error %v not rate limited", err)
	}
}

func TestDynadot_EmptyResultsIsTransient(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"SearchResponse":{"SearchResults":[]}}`))
	}))
	defer ts.Close()

	d := NewDynadot(Config{Endpoint: ts.URL, APIKey: "dk"}, ts.Client())
	_, _, err := d.CheckAvailability(context.Background(), "x.com")
	if !domain.IsTransient(err) {
		t.Errorf("error %v not transient", err)
	}
}
