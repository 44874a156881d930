package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListCatalog(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, cmdList(&out, nil))

	text := out.String()
	assert.Contains(t, text, "Cosmic_blue")
	assert.Contains(t, text, "Jeans_Blue")
	assert.Contains(t, text, "Cam_Lenses")
	assert.NotContains(t, text, "skipped")
}

func TestValidateReportsProblems(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("name: Broken\n"), 0644))

	var out bytes.Buffer
	err := cmdValidate(&out, []string{"-dir", dir})
	require.Error(t, err)

	text := out.String()
	assert.Contains(t, text, "0 valid skin(s)")
	assert.Contains(t, text, "Broken")
	assert.Contains(t, text, "missing model")
}

func TestValidateCatalog(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, cmdValidate(&out, nil))
	assert.Contains(t, out.String(), "8 valid skin(s)")
}

func TestShow(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, cmdShow(&out, []string{"Jeans_Blue"}))
	assert.Contains(t, out.String(), "textures/w_interior_fake_blur.jpg")

	assert.Error(t, cmdShow(&out, []string{"nope"}))
	assert.Error(t, cmdShow(&out, nil))
}

func TestInitConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "configurator.yaml")

	var out bytes.Buffer
	require.NoError(t, cmdInitConfig(&out, []string{path}))
	assert.Error(t, cmdInitConfig(&out, []string{path}), "existing file is not overwritten")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "default_skin: Cosmic_blue")
}
