package config

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	s := Settings{
		HTTPHost:     "example.com",
		HTTPPort:     8000,
		SourceRoot:   "/srv/data/",
		ServerPrefix: "/files/",
		Verbose:      true,
	}
	got, err := Decode(s.Encode())
	require.NoError(t, err)
	assert.Equal(t, s, got)
}

func TestDecodeFromLeavesTrailingBytesUntouched(t *testing.T) {
	s := Settings{HTTPHost: "localhost", HTTPPort: 8000, SourceRoot: "/", ServerPrefix: "/"}
	buf := bytes.NewBuffer(s.Encode())
	buf.WriteString("trailing pipe traffic")

	got, err := DecodeFrom(buf)
	require.NoError(t, err)
	assert.Equal(t, s, got)
	assert.Equal(t, "trailing pipe traffic", buf.String())
}

func TestNormalizeEnforcesSlashConventions(t *testing.T) {
	s := Settings{SourceRoot: "/srv/data", ServerPrefix: "files"}.Normalize()
	assert.Equal(t, "/srv/data/", s.SourceRoot)
	assert.Equal(t, "/files/", s.ServerPrefix)
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole("source")
	require.NoError(t, err)
	assert.Equal(t, RoleSource, r)

	r, err = ParseRole("server")
	require.NoError(t, err)
	assert.Equal(t, RoleServer, r)

	_, err = ParseRole("bogus")
	assert.Error(t, err)
}

func TestRoleString(t *testing.T) {
	assert.Equal(t, "source", RoleSource.String())
	assert.Equal(t, "server", RoleServer.String())
}
