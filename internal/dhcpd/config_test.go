package dhcpd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soofff/dhcpserver/internal/dhcpd/source"
)

func TestResolveConfigPath_FlagWins(t *testing.T) {
	path, err := ResolveConfigPath("/explicit/path.yml", "/env/path.yml")
	require.NoError(t, err)
	assert.Equal(t, "/explicit/path.yml", path)
}

func TestResolveConfigPath_EnvWinsOverDefaults(t *testing.T) {
	path, err := ResolveConfigPath("", "/env/path.yml")
	require.NoError(t, err)
	assert.Equal(t, "/env/path.yml", path)
}

func TestResolveConfigPath_NotFound(t *testing.T) {
	dir := t.TempDir()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer func() { _ = os.Chdir(cwd) }()

	_, err = ResolveConfigPath("", "")
	assert.ErrorIs(t, err, ErrConfigNotFound)
}

func TestBuildSources_UnknownKind(t *testing.T) {
	reg := Registry{}
	_, err := BuildSources(reg, []SourceConfig{{Kind: "nope"}})
	assert.ErrorIs(t, err, ErrUnknownSourceKind)
}

func TestBuildSources_KnownKind(t *testing.T) {
	called := false
	reg := Registry{
		"stub": func(config any) (source.Source, error) {
			called = true
			return nil, nil
		},
	}

	_, err := BuildSources(reg, []SourceConfig{{Kind: "stub"}})
	require.NoError(t, err)
	assert.True(t, called)
}

func TestBuildNetworks(t *testing.T) {
	networks, err := BuildNetworks([]NetworkConfig{
		{ServerIP: "192.168.1.1", Mask: "255.255.255.0"},
	})
	require.NoError(t, err)
	require.Len(t, networks, 1)
	assert.Equal(t, "192.168.1.255", networks[0].DirectedBroadcast().String())
}

func TestBuildNetworks_InvalidIP(t *testing.T) {
	_, err := BuildNetworks([]NetworkConfig{{ServerIP: "not-an-ip", Mask: "255.255.255.0"}})
	assert.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("networks:\n  - server_ip: 10.0.0.1\n    mask: 255.255.255.0\nsources: []\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Len(t, cfg.Networks, 1)
	assert.Equal(t, "10.0.0.1", cfg.Networks[0].ServerIP)
}
