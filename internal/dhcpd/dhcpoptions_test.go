package dhcpd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDhcpOptions_UpsertKeepsOrderOnOverwrite(t *testing.T) {
	opts := NewDhcpOptions()
	opts.Upsert(DhcpOption{Code: 1, Data: []byte{1}})
	opts.Upsert(DhcpOption{Code: 2, Data: []byte{2}})
	opts.Upsert(DhcpOption{Code: 1, Data: []byte{9}})

	assert.Equal(t, 2, opts.Len())
	assert.Equal(t, []uint8{1, 2}, opts.order)

	got, ok := opts.Get(1)
	require.True(t, ok)
	assert.Equal(t, []byte{9}, got.Data)
}

func TestDhcpOptions_AsIPv4(t *testing.T) {
	opts := NewDhcpOptions()
	opts.Upsert(DhcpOption{Code: 54, Data: []byte{192, 168, 0, 1}})

	ip, err := opts.AsIPv4(54)
	require.NoError(t, err)
	assert.Equal(t, "192.168.0.1", ip.String())
}

func TestDhcpOptions_AsIPv4_WrongLength(t *testing.T) {
	opts := NewDhcpOptions()
	opts.Upsert(DhcpOption{Code: 54, Data: []byte{192, 168}})

	_, err := opts.AsIPv4(54)
	assert.Error(t, err)
}

func TestDhcpOptions_ToDHCPv4Options(t *testing.T) {
	opts := NewDhcpOptions()
	opts.Upsert(DhcpOption{Code: 51, Data: []byte{0, 0, 1, 0}})

	converted := opts.ToDHCPv4Options()
	assert.Equal(t, []byte{0, 0, 1, 0}, converted[51])
}
