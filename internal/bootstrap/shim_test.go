package bootstrap

import (
	"encoding/hex"
	"strconv"
	"strings"
	"testing"

	"github.com/joostvanzwieten/rhttp/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestBuildShimCommandEmbedsDigestLengthsAndRole(t *testing.T) {
	m := magic([]byte("image bytes"))
	cmd := buildShimCommand(m, 12345, config.RoleSource)

	assert.Contains(t, cmd, hex.EncodeToString(m[:]))
	assert.Contains(t, cmd, strconv.Itoa(12345))
	assert.Contains(t, cmd, "--bootstrap-peer source")
	assert.True(t, strings.HasPrefix(cmd, "sh -c '"))
	assert.True(t, strings.HasSuffix(cmd, "'"))
}

func TestBuildShimCommandServerRole(t *testing.T) {
	m := magic([]byte("other image"))
	cmd := buildShimCommand(m, 1, config.RoleServer)
	assert.Contains(t, cmd, "--bootstrap-peer server")
}
