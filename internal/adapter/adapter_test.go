package adapter_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/niksmo/storefront/internal/adapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeTLSConfig(t *testing.T) {
	t.Run("Disabled", func(t *testing.T) {
		assert.Nil(t, adapter.MakeTLSConfig("", "", ""))
	})

	t.Run("MissingCA", func(t *testing.T) {
		assert.Panics(t, func() {
			adapter.MakeTLSConfig(filepath.Join(t.TempDir(), "ca.pem"), "", "")
		})
	})

	t.Run("InvalidCA", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ca.pem")
		require.NoError(t, os.WriteFile(path, []byte("not a certificate"), 0o600))
		assert.Panics(t, func() {
			adapter.MakeTLSConfig(path, "", "")
		})
	})
}
