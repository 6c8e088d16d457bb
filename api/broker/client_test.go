package broker

import (
	"net/http/httptest"
	"testing"

	"github.com/fleetops/device-provisioning-backend/api"
	"github.com/fleetops/device-provisioning-backend/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestClientDecodesErrorResponses(t *testing.T) {
	env := newTestEnv(t, staticVerifier(false))
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	client := &ProvisioningClient{ServerAddr: srv.URL}
	resp, err := client.Provision(&api.ProvisioningRequest{ThingName: "device-001", ThingNameSig: "c2ln"})
	require.NoError(t, err)
	assert.Equal(t, api.StatusError, resp.Status)
	assert.Equal(t, "wrong sig", resp.Message)
}

func TestClientDecodesSuccessResponses(t *testing.T) {
	env := newTestEnv(t, staticVerifier(true))
	env.registry.On("Status", mock.Anything, mock.Anything).
		Return(interfaces.StatusUnprovisioned, nil)
	env.locator.On("Locate", mock.Anything, mock.Anything).
		Return(interfaces.GeoPoint{}, false, nil)
	env.issuer.On("Issue", mock.Anything, mock.Anything, "eu-west-2", mock.Anything).
		Return(issuedCredential(true), nil)
	env.registry.On("MarkProvisioned", mock.Anything, mock.Anything, "eu-west-2", mock.Anything).
		Return(nil)

	srv := httptest.NewServer(env.router)
	defer srv.Close()

	client := &ProvisioningClient{ServerAddr: srv.URL}
	resp, err := client.Provision(&api.ProvisioningRequest{ThingName: "device-001", ThingNameSig: "c2ln"})
	require.NoError(t, err)
	assert.Equal(t, api.StatusSuccess, resp.Status)
	assert.Equal(t, "eu-west-2", resp.Region)
	assert.NotEmpty(t, resp.CertificatePem)
}

func TestClientTransportError(t *testing.T) {
	client := &ProvisioningClient{ServerAddr: "http://127.0.0.1:0"}
	_, err := client.Provision(&api.ProvisioningRequest{ThingName: "device-001", ThingNameSig: "c2ln"})
	assert.Error(t, err)
}
