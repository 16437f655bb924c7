package dhcpd

import (
	"net"
	"testing"

	"github.com/insomniacslk/dhcp/dhcpv4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPacketContext(t *testing.T) {
	req, err := dhcpv4.New()
	require.NoError(t, err)
	req.ClientHWAddr = net.HardwareAddr{0xde, 0xad, 0xbe, 0xef, 0x00, 0x01}
	req.Options.Update(dhcpv4.OptHostName("my-laptop"))

	ctx := newPacketContext(req)

	assert.Equal(t, "de:ad:be:ef:00:01", ctx["client_hardware_address"])
	assert.Equal(t, "my-laptop", ctx["client_hostname"])
	assert.Equal(t, "0.0.0.0", ctx["client_ip_address"])
}

func TestContext_WithResultsDoesNotMutateOriginal(t *testing.T) {
	base := Context{"a": 1}
	withResults := base.withResults(map[string]any{"ok": true})

	_, hasResults := base["results"]
	assert.False(t, hasResults)
	assert.Equal(t, map[string]any{"ok": true}, withResults["results"])
	assert.Equal(t, 1, withResults["a"])
}

func TestIPString(t *testing.T) {
	assert.Equal(t, "0.0.0.0", ipString(nil))
	assert.Equal(t, "192.168.1.5", ipString(net.ParseIP("192.168.1.5")))
}
