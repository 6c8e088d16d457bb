package broker

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/fleetops/device-provisioning-backend/api"
)

// ProvisioningClient implements api.ProvisioningProvider against a
// remote provisioning server.
type ProvisioningClient struct {
	// ServerAddr is the base URL of the provisioning server.
	ServerAddr string

	// HTTPClient overrides the client used for requests. Defaults to
	// http.DefaultClient.
	HTTPClient *http.Client
}

// Provision submits an enrollment request and decodes the response.
// Error-status responses are returned as responses, not as errors: the
// body is well-formed JSON for every outcome. The error return is
// reserved for transport failures and undecodable bodies.
func (p *ProvisioningClient) Provision(req *api.ProvisioningRequest) (*api.ProvisioningResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/api/v1/provision", p.ServerAddr)
	httpReq, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	client := p.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	httpResp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("could not request provisioning endpoint: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read provisioning response: %w", err)
	}

	var parsed api.ProvisioningResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("could not parse provisioning response (status %d): %w", httpResp.StatusCode, err)
	}

	return &parsed, nil
}
