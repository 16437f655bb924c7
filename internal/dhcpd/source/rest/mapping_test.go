package rest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildOptions_ClientIPAndNamedOption(t *testing.T) {
	engine := NewEngine(false)
	raw := map[string]any{
		"client_ip_address": "{{.ip}}",
		"subnet_mask":       "255.255.255.0",
	}

	ip, opts, err := BuildOptions(engine, raw, map[string]any{"ip": "10.0.0.5"})
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.5", ip.String())

	got, ok := opts.Get(1)
	require.True(t, ok)
	assert.Equal(t, []byte{255, 255, 255, 0}, got.Data)
}

func TestBuildOptions_RequiredFailurePropagates(t *testing.T) {
	engine := NewEngine(false)
	raw := map[string]any{
		"subnet_mask": map[string]any{
			"data":     123, // not an IPv4 shape
			"required": true,
		},
	}

	_, _, err := BuildOptions(engine, raw, nil)
	assert.Error(t, err)
}

func TestBuildOptions_NonRequiredFailureSkips(t *testing.T) {
	engine := NewEngine(false)
	raw := map[string]any{
		"subnet_mask": map[string]any{
			"data":     123,
			"required": false,
		},
	}

	_, opts, err := BuildOptions(engine, raw, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, opts.Len())
}

func TestBuildOptions_CustomOption(t *testing.T) {
	engine := NewEngine(false)
	raw := map[string]any{
		"my_custom_flag": map[string]any{
			"tag":  200,
			"kind": "bool",
			"data": true,
		},
	}

	_, opts, err := BuildOptions(engine, raw, nil)
	require.NoError(t, err)

	got, ok := opts.Get(200)
	require.True(t, ok)
	assert.Equal(t, []byte{1}, got.Data)
}

func TestBuildOptions_CustomOptionIntEncoding(t *testing.T) {
	engine := NewEngine(false)
	raw := map[string]any{
		"my_custom_number": map[string]any{
			"tag":  200,
			"kind": "int",
			"data": 1234567890,
		},
	}

	_, opts, err := BuildOptions(engine, raw, nil)
	require.NoError(t, err)

	got, ok := opts.Get(200)
	require.True(t, ok)
	assert.Equal(t, []byte{0, 0, 0, 0, 73, 150, 2, 210}, got.Data)
}

func TestBuildOptions_CustomOptionRejectsSequence(t *testing.T) {
	engine := NewEngine(false)
	raw := map[string]any{
		"my_custom_flag": map[string]any{
			"tag":  200,
			"kind": "sequence",
			"data": []any{1, 2, 3},
		},
	}

	_, _, err := BuildOptions(engine, raw, nil)
	assert.Error(t, err)
}
