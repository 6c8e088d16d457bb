package interfaces

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDeviceName(t *testing.T) {
	name, err := NewDeviceName("sensor:unit_01-a")
	require.NoError(t, err)
	assert.Equal(t, "sensor:unit_01-a", name.String())
}

func TestNewDeviceNameRejectsInvalid(t *testing.T) {
	for _, raw := range []string{
		"",
		"has spaces",
		"has/slash",
		"quo\"te",
		strings.Repeat("a", 129),
	} {
		_, err := NewDeviceName(raw)
		assert.Error(t, err, "expected rejection of %q", raw)
	}
}
