package dhcpd

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocalNetwork_DirectedBroadcast(t *testing.T) {
	n := LocalNetwork{
		ServerIP: net.ParseIP("192.168.1.10").To4(),
		Mask:     net.IPMask(net.ParseIP("255.255.255.0").To4()),
	}

	assert.Equal(t, "192.168.1.255", n.DirectedBroadcast().String())
}

func TestLocalNetwork_DirectedBroadcast_SlashSixteen(t *testing.T) {
	n := LocalNetwork{
		ServerIP: net.ParseIP("10.20.0.5").To4(),
		Mask:     net.IPMask(net.ParseIP("255.255.0.0").To4()),
	}

	assert.Equal(t, "10.20.255.255", n.DirectedBroadcast().String())
}
