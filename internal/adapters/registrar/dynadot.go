package registrar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/jnMetaCode/available-domains/internal/domain"
	"github.com/jnMetaCode/available-domains/internal/ports"
)

// DefaultDynadotEndpoint is Dynadot's JSON search API.
const DefaultDynadotEndpoint = "https://api.dynadot.com/api3.json"

// Dynadot checks availability through Dynadot's JSON API.
type Dynadot struct {
	endpoint string
	apiKey   string
	client   ports.HTTPClient
}

// NewDynadot creates a Dynadot adapter from config.
func NewDynadot(cfg Config, client ports.HTTPClient) *Dynadot {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultDynadotEndpoint
	}
	return &Dynadot{endpoint: endpoint, apiKey: cfg.APIKey, client: client}
}

// Name implements ports.Provider.
func (d *Dynadot) Name() string { return "dynadot" }

type dynadotResponse struct {
	Error          string `json:"error"`
	SearchResponse struct {
		Error         string `json:"Error"`
		SearchResults []struct {
			Available string `json:"Available"`
			Price     string `json:"Price"`
			Currency  string `json:"Currency"`
		} `json:"SearchResults"`
	} `json:"SearchResponse"`
}

// CheckAvailability implements ports.Provider.
func (d *Dynadot) CheckAvailability(ctx context.Context, fqdn string) (bool, string, error) {
	if d.apiKey == "" {
		return false, "", domain.Permanent(fmt.Errorf("dynadot: api key missing"))
	}

	// The search command requires the parameter name domain0.
	q := url.Values{}
	q.Set("key", d.apiKey)
	q.Set("command", "search")
	q.Set("domain0", fqdn)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return false, "", domain.Permanent(fmt.Errorf("dynadot: build request: %w", err))
	}

	resp, err := d.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return false, "", ctx.Err()
		}
		return false, "", domain.Transient(fmt.Errorf("dynadot: %w", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return false, "", domain.Transient(fmt.Errorf("dynadot: read response: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return false, "", classifyHTTPStatus("dynadot", resp.StatusCode)
	}

	var dr dynadotResponse
	if err := json.Unmarshal(raw, &dr); err != nil {
		return false, "", domain.Transient(fmt.Errorf("dynadot: decode response: %w", err))
	}

	apiErr := dr.Error
	if apiErr == "" {
		apiErr = dr.SearchResponse.Error
	}
	if apiErr != "" {
		if strings.Contains(strings.ToLower(apiErr), "key") {
			return false, "", domain.Permanent(fmt.Errorf("dynadot: %s", apiErr))
		}
		return false, "", domain.Transient(fmt.Errorf("dynadot: %s", apiErr))
	}

	results := dr.SearchResponse.SearchResults
	if len(results) == 0 {
		return false, "", domain.Transient(fmt.Errorf("dynadot: empty search results"))
	}

	r := results[0]
	available := strings.EqualFold(r.Available, "yes")
	note := ""
	if available && r.Price != "" {
		currency := r.Currency
		if currency == "" {
			currency = "USD"
		}
		note = "price " + r.Price + " " + currency
	}
	return available, note, nil
}
