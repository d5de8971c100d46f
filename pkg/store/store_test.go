package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paulstuart/gollm/unityrel/pkg/model"
)

func sampleAggregate() *model.Aggregate {
	agg := model.NewAggregate()
	agg.Merge("6000", model.Classified{
		model.LTS:  {{Version: "6000.0.23f1", URL: "unityhub://6000.0.23f1/1c4764c07fb4"}},
		model.BETA: {{Version: "6000.1.0b1", URL: "unityhub://6000.1.0b1/a?x=1&y=<2>"}},
	})
	agg.Merge("2022", model.Classified{
		model.LTS: {
			{Version: "2022.3.10f1", URL: "unityhub://2022.3.10f1/ff3792e53c62"},
			{Version: "2022.3.9f1", URL: "unityhub://2022.3.9f1/版本"},
		},
	})
	return agg
}

func TestWriteAllRoundTrip(t *testing.T) {
	dir := t.TempDir()
	agg := sampleAggregate()

	paths, err := WriteAll(dir, agg)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "LTS.json"),
		filepath.Join(dir, "BETA.json"),
		filepath.Join(dir, "ALPHA.json"),
		filepath.Join(dir, "TECH.json"),
	}, paths)

	for _, c := range model.Categories {
		got, err := ReadCategory(dir, c)
		require.NoError(t, err, c)
		assert.Equal(t, agg.Set(c).Map(), got.Map(), c)
		assert.Equal(t, agg.Set(c).Prefixes(), got.Prefixes(), c)
	}
}

func TestWriteFormatting(t *testing.T) {
	dir := t.TempDir()

	_, err := WriteAll(dir, sampleAggregate())
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "LTS.json"))
	require.NoError(t, err)
	assert.Equal(t, `{
  "6000": [
    "unityhub://6000.0.23f1/1c4764c07fb4"
  ],
  "2022": [
    "unityhub://2022.3.10f1/ff3792e53c62",
    "unityhub://2022.3.9f1/版本"
  ]
}`, string(data))

	data, err = os.ReadFile(filepath.Join(dir, "BETA.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "a?x=1&y=<2>")

	data, err = os.ReadFile(filepath.Join(dir, "TECH.json"))
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
}

func TestWriteOverwritesExisting(t *testing.T) {
	dir := t.TempDir()
	path := Path(dir, model.ALPHA)
	require.NoError(t, os.WriteFile(path, []byte(`{"old": ["stale", "entries", "that are longer"]}`), 0644))

	_, err := WriteAll(dir, model.NewAggregate())
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
}

func TestWriteAllMissingDir(t *testing.T) {
	_, err := WriteAll(filepath.Join(t.TempDir(), "missing"), sampleAggregate())
	assert.Error(t, err)
}

func TestReadCategoryMissing(t *testing.T) {
	_, err := ReadCategory(t.TempDir(), model.LTS)
	assert.Error(t, err)
}

func TestDefaultDir(t *testing.T) {
	dir, err := DefaultDir()
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(dir))
}
