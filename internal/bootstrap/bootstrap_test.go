package bootstrap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonkvalheim/pix-ledger/internal/logger"
	"github.com/simonkvalheim/pix-ledger/internal/model"
)

func writeSeed(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestInitialize_Empty(t *testing.T) {
	ledger, err := Initialize("", logger.Discard())
	require.NoError(t, err)
	assert.Zero(t, ledger.Count())
}

func TestInitialize_Seeds(t *testing.T) {
	path := writeSeed(t, `[
		{"number":"0001","branch":"001","holder_name":"Ana","holder_document":"11122233344","balance":"100.00","kind":"corrente"},
		{"number":"0002","branch":"001","holder_name":"Bruno","holder_document":"55566677788","balance":10,"kind":"salário"}
	]`)

	ledger, err := Initialize(path, logger.Discard())
	require.NoError(t, err)

	accounts := ledger.List()
	require.Len(t, accounts, 2)
	assert.Equal(t, "Ana", accounts[0].HolderName)
	assert.Equal(t, model.AccountKindPayroll, accounts[1].Kind)
}

func TestInitialize_Errors(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{
			name: "missing file",
			path: func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.json") },
		},
		{
			name: "invalid json",
			path: func(t *testing.T) string { return writeSeed(t, `{`) },
		},
		{
			name: "invalid account",
			path: func(t *testing.T) string {
				return writeSeed(t, `[{"holder_name":"","holder_document":"1","balance":0,"kind":"checking"}]`)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Initialize(tt.path(t), logger.Discard())
			assert.Error(t, err)
		})
	}
}
