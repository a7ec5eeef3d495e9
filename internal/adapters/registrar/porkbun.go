package registrar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/jnMetaCode/available-domains/internal/domain"
	"github.com/jnMetaCode/available-domains/internal/ports"
)

// DefaultPorkbunEndpoint is the production checkDomain URL; the domain
// is appended as a path segment.
const DefaultPorkbunEndpoint = "https://api.porkbun.com/api/json/v3/domain/checkDomain"

// Porkbun checks availability through Porkbun's JSON API. The API
// allows one domain check per 10 seconds per key, so its limiter
// interval should stay above that.
type Porkbun struct {
	endpoint  string
	apiKey    string
	apiSecret string
	client    ports.HTTPClient
}

// NewPorkbun creates a Porkbun adapter from config.
func NewPorkbun(cfg Config, client ports.HTTPClient) *Porkbun {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultPorkbunEndpoint
	}
	return &Porkbun{
		endpoint:  strings.TrimRight(endpoint, "/"),
		apiKey:    cfg.APIKey,
		apiSecret: cfg.APISecret,
		client:    client,
	}
}

// Name implements ports.Provider.
func (p *Porkbun) Name() string { return "porkbun" }

type porkbunRequest struct {
	APIKey    string `json:"apikey"`
	SecretKey string `json:"secretapikey,omitempty"`
}

type porkbunResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Response struct {
		Avail string `json:"avail"`
		Price string `json:"price"`
	} `json:"response"`
}

// CheckAvailability implements ports.Provider.
func (p *Porkbun) CheckAvailability(ctx context.Context, fqdn string) (bool, string, error) {
	if p.apiKey == "" {
		return false, "", domain.Permanent(fmt.Errorf("porkbun: api key missing"))
	}

	body, err := json.Marshal(porkbunRequest{APIKey: p.apiKey, SecretKey: p.apiSecret})
	if err != nil {
		return false, "", domain.Permanent(fmt.Errorf("porkbun: encode request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint+"/"+fqdn, bytes.NewReader(body))
	if err != nil {
		return false, "", domain.Permanent(fmt.Errorf("porkbun: build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return false, "", ctx.Err()
		}
		return false, "", domain.Transient(fmt.Errorf("porkbun: %w", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return false, "", domain.Transient(fmt.Errorf("porkbun: read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		// Porkbun signals its per-key quota with a 400 and a telltale
		// body rather than a 429.
		if resp.StatusCode == http.StatusBadRequest && bytes.Contains(raw, []byte("within 10 seconds used")) {
			return false, "", domain.Transient(fmt.Errorf("porkbun: %w", domain.ErrRateLimited))
		}
		return false, "", classifyHTTPStatus("porkbun", resp.StatusCode)
	}

	var pr porkbunResponse
	if err := json.Unmarshal(raw, &pr); err != nil {
		return false, "", domain.Transient(fmt.Errorf("porkbun: decode response: %w", err))
	}
	if pr.Status != "SUCCESS" {
		msg := pr.Message
		if msg == "" {
			msg = "unknown error"
		}
		if strings.Contains(strings.ToLower(msg), "invalid api") {
			return false, "", domain.Permanent(fmt.Errorf("porkbun: %s", msg))
		}
		return false, "", domain.Transient(fmt.Errorf("porkbun: %s", msg))
	}

	available := pr.Response.Avail == "yes"
	note := ""
	if available && pr.Response.Price != "" {
		note = "price " + pr.Response.Price
	}
	return available, note, nil
}
