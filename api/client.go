package api

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/anchorageoss/visualsign-kadena/transport"
)

// HTTPClient interface for dependency injection
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client sends raw packets to a device served over HTTP. It implements
// transport.Exchanger.
type Client struct {
	HostURI    string
	HTTPClient HTTPClient
}

// NewClient creates a client for the device at hostURI
func NewClient(hostURI string, httpClient HTTPClient) *Client {
	return &Client{HostURI: hostURI, HTTPClient: httpClient}
}

// Exchange posts one command and returns the raw response.
func (c *Client) Exchange(ctx context.Context, command []byte) ([]byte, error) {
	reqJSON, err := json.Marshal(transport.APDURequest{Data: hex.EncodeToString(command)})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal APDU request: %w", err)
	}

	url := fmt.Sprintf("%s/apdu", c.HostURI)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(reqJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to device: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("device returned non-OK HTTP status: %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	var apduResp transport.APDUResponse
	if err := json.Unmarshal(bodyBytes, &apduResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if apduResp.Error != "" {
		return nil, fmt.Errorf("device returned error: %s", apduResp.Error)
	}
	raw, err := hex.DecodeString(apduResp.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode response hex: %w", err)
	}
	return raw, nil
}

var _ transport.Exchanger = (*Client)(nil)
