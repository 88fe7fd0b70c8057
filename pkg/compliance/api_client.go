package compliance

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"
)

// Client talks to the external compliance service that owns KYC/accreditation
// state. The syndication core only consumes a single boolean precondition.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a compliance API client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type accreditationResponse struct {
	InvestorID uint `json:"investor_id"`
	Valid      bool `json:"valid"`
}

// CheckAccreditation returns whether the investor currently holds a valid
// accreditation.
func (c *Client) CheckAccreditation(investorID uint) (bool, error) {
	url := fmt.Sprintf("%s/investors/%d/accreditation", c.baseURL, investorID)

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("compliance request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("compliance service returned status %d", resp.StatusCode)
	}

	var body accreditationResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, fmt.Errorf("failed to decode compliance response: %w", err)
	}
	return body.Valid, nil
}

// AccreditationValid checks the accreditation precondition using the client
// configured through COMPLIANCE_API_URL / COMPLIANCE_API_KEY. When no service
// is configured the gate is treated as satisfied, mirroring how the rest of
// the infrastructure treats optional collaborators.
func AccreditationValid(investorID uint) (bool, error) {
	baseURL := os.Getenv("COMPLIANCE_API_URL")
	if baseURL == "" {
		return true, nil
	}
	return NewClient(baseURL, os.Getenv("COMPLIANCE_API_KEY")).CheckAccreditation(investorID)
}
