package bootstrap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/joostvanzwieten/rhttp/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOppositeRole(t *testing.T) {
	assert.Equal(t, config.RoleServer, opposite(config.RoleSource))
	assert.Equal(t, config.RoleSource, opposite(config.RoleServer))
}

func TestValidateSourceRootRejectsMissingPath(t *testing.T) {
	err := validateSourceRoot(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}

func TestValidateSourceRootRejectsPlainFile(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "not-a-dir")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	err := validateSourceRoot(file)
	require.Error(t, err)
}

func TestValidateSourceRootAcceptsExistingDirectory(t *testing.T) {
	require.NoError(t, validateSourceRoot(t.TempDir()))
}
