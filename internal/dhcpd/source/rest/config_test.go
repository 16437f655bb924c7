package rest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfig_Defaults(t *testing.T) {
	cfg, err := ParseConfig(map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, defaultCacheSize, cfg.CacheSize)
}

func TestParseConfig_OverridesDefaults(t *testing.T) {
	cfg, err := ParseConfig(map[string]any{
		"cache_size": 64,
	})
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.CacheSize)
}

func TestParseConfig_PerQuerySSLVerifyAndCache(t *testing.T) {
	cfg, err := ParseConfig(map[string]any{
		"offer": map[string]any{
			"queries": []any{
				map[string]any{
					"name":       "device1",
					"method":     "GET",
					"url":        "https://inventory.example/device",
					"ssl_verify": false,
					"cache":      5.5,
				},
				map[string]any{
					"name":   "device2",
					"method": "GET",
					"url":    "https://inventory.example/other",
				},
			},
		},
	})
	require.NoError(t, err)
	require.Len(t, cfg.Offer.Queries, 2)

	q1 := cfg.Offer.Queries[0]
	require.NotNil(t, q1.SSLVerify)
	assert.False(t, *q1.SSLVerify)
	require.NotNil(t, q1.Cache)
	assert.Equal(t, 5.5, *q1.Cache)

	q2 := cfg.Offer.Queries[1]
	assert.Nil(t, q2.SSLVerify)
	assert.Nil(t, q2.Cache)
}
