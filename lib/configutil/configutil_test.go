package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	BaseUrl string            `json:"base_url"`
	Timeout int               `json:"timeout"`
	Fields  map[string]string `json:"fields"`
}

func writeFile(t testing.TB, path, contents string) {
	err := os.WriteFile(path, []byte(contents), 0600)
	if err != nil {
		t.Fatal(err)
	}
}

func TestReadConfigLocalOverride(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "portal.json5"), `{
		// comments and trailing commas are allowed
		base_url: "https://portal.example.edu/",
		timeout: 30,
		fields: { username: "user" },
	}`)
	writeFile(t, filepath.Join(dir, "portal.local.json5"), `{ timeout: 5 }`)

	cfg, err := ReadConfig[testConfig](filepath.Join(dir, "portal.json5"))
	require.NoError(t, err)
	require.Equal(t, "https://portal.example.edu/", cfg.BaseUrl)
	require.Equal(t, 5, cfg.Timeout)
	require.Equal(t, "user", cfg.Fields["username"])
}

func TestReadConfigMissing(t *testing.T) {
	_, err := ReadConfig[testConfig](filepath.Join(t.TempDir(), "missing.json5"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestMergeOnto(t *testing.T) {
	base := testConfig{BaseUrl: "https://default/", Timeout: 30}

	merged, err := MergeOnto(base, filepath.Join(t.TempDir(), "missing.json5"))
	require.NoError(t, err)
	require.Equal(t, base, merged)

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "portal.json5"), `{ base_url: "https://other/" }`)
	merged, err = MergeOnto(base, filepath.Join(dir, "portal.json5"))
	require.NoError(t, err)
	require.Equal(t, "https://other/", merged.BaseUrl)
	require.Equal(t, 30, merged.Timeout)
}

func TestMergeOntoExplicitZeros(t *testing.T) {
	base := testConfig{
		BaseUrl: "https://default/",
		Timeout: 30,
		Fields:  map[string]string{"username": "user"},
	}

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "portal.json5"), `{ timeout: 0 }`)
	merged, err := MergeOnto(base, filepath.Join(dir, "portal.json5"))
	require.NoError(t, err)
	require.Equal(t, 0, merged.Timeout)
	require.Equal(t, "https://default/", merged.BaseUrl)
	require.Equal(t, "user", merged.Fields["username"])

	writeFile(t, filepath.Join(dir, "portal.json5"), `{ timeout: 10, base_url: "https://other/" }`)
	writeFile(t, filepath.Join(dir, "portal.local.json5"), `{ base_url: "" }`)
	merged, err = MergeOnto(base, filepath.Join(dir, "portal.json5"))
	require.NoError(t, err)
	require.Equal(t, 10, merged.Timeout)
	require.Equal(t, "", merged.BaseUrl)
}

func TestSplitExt(t *testing.T) {
	prefix, ext := splitExt("telemetry.json5")
	require.Equal(t, "telemetry", prefix)
	require.Equal(t, "json5", ext)

	prefix, ext = splitExt("noext")
	require.Equal(t, "noext", prefix)
	require.Equal(t, "", ext)
}
