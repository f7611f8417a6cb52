package portfolio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "portfolio.yaml", `
portfolio:
  - code: "069500"
    name: "KODEX 200"
    portion: 0.4
  - code: "114260"
    name: "KODEX Treasury 3Y"
    portion: 0.3
`)

	p, err := Load(path, zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, p.Targets, 2)
	assert.Equal(t, "069500", p.Targets[0].Code)
	assert.Equal(t, 0.4, p.Targets[0].Portion)
	assert.Nil(t, p.Override)
}

func TestLoadPreservesOrder(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "portfolio.yaml", `
portfolio:
  - {code: "c", portion: 0.1}
  - {code: "a", portion: 0.1}
  - {code: "b", portion: 0.1}
`)

	p, err := Load(path, zerolog.Nop())
	require.NoError(t, err)
	codes := []string{p.Targets[0].Code, p.Targets[1].Code, p.Targets[2].Code}
	assert.Equal(t, []string{"c", "a", "b"}, codes)
}

func TestLoadWithOverride(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "portfolio-isa.yaml", `
config:
  CANO: "87654321"
  ACNT_PRDT_CD: "22"
portfolio:
  - code: "360750"
    name: "TIGER S&P500"
    portion: 0.9
`)

	p, err := Load(path, zerolog.Nop())
	require.NoError(t, err)
	require.NotNil(t, p.Override)

	creds := p.Override.Credentials()
	assert.Equal(t, "87654321", creds.Account)
	assert.Equal(t, "22", creds.ProductCode)
	assert.Empty(t, creds.AppKey)
}

func TestLoadWeightSumExceedsOne(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "portfolio.yaml", `
portfolio:
  - {code: "a", portion: 0.7}
  - {code: "b", portion: 0.5}
`)

	_, err := Load(path, zerolog.Nop())
	assert.ErrorIs(t, err, ErrWeightSum)
}

func TestLoadWeightSumAtOneIsFine(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "portfolio.yaml", `
portfolio:
  - {code: "a", portion: 0.5}
  - {code: "b", portion: 0.5}
`)

	_, err := Load(path, zerolog.Nop())
	assert.NoError(t, err)
}

func TestLoadDropsZeroWeightRows(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "portfolio.yaml", `
portfolio:
  - {code: "a", portion: 0.5}
  - {code: "b", portion: 0}
  - {code: "c", portion: -0.1}
`)

	p, err := Load(path, zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, p.Targets, 1)
	assert.Equal(t, "a", p.Targets[0].Code)
}

func TestLoadRejectsMissingCode(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "portfolio.yaml", `
portfolio:
  - {name: "no code here", portion: 0.5}
`)

	_, err := Load(path, zerolog.Nop())
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), zerolog.Nop())
	assert.Error(t, err)
}

func TestFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, name := range []string{"portfolio.yaml", "portfolio-isa.yaml", "other.yaml"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("portfolio: []"), 0644))
	}

	files, err := Files(dir)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, filepath.Join(dir, "portfolio-isa.yaml"), files[0])
	assert.Equal(t, filepath.Join(dir, "portfolio.yaml"), files[1])
}
