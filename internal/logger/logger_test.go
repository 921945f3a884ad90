package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_JSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.log")

	require.NoError(t, Setup(LogConfig{
		Level:  "debug",
		Format: "json",
		Output: path,
	}))
	t.Cleanup(func() { _ = Setup(DefaultConfig()) })

	log := WithFields("importer", map[string]interface{}{"source": "processor-ledger"})
	log.Info().Int("rows", 3).Msg("import finished")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"component":"importer"`)
	assert.Contains(t, string(data), `"source":"processor-ledger"`)
	assert.Contains(t, string(data), `"rows":3`)
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
}

func TestSetup_InvalidLevel(t *testing.T) {
	assert.Error(t, Setup(LogConfig{Level: "loud"}))
}
