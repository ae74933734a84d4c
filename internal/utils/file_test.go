package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsImageFile(t *testing.T) {
	assert.True(t, IsImageFile("a/b/form.PNG"))
	assert.True(t, IsImageFile("scan.webp"))
	assert.False(t, IsImageFile("fields.json"))
	assert.False(t, IsImageFile("noext"))
}

func TestGenerateOutputFilename(t *testing.T) {
	assert.Equal(t, filepath.Join("out", "pre_form_annotated.png"),
		GenerateOutputFilename("in/form.jpg", "out", "pre_", "_annotated", "png"))
	assert.Equal(t, filepath.Join("out", "form.jpg"),
		GenerateOutputFilename("in/form.jpg", "out", "", "", ""))
	assert.Equal(t, filepath.Join("out", "form.png"),
		GenerateOutputFilename("in/form", "out", "", "", ""))
}

func TestListImageFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, EnsureDir(filepath.Join(dir, "sub")))
	for _, name := range []string{"a.png", "sub/b.jpg", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))
	}

	files, err := ListImageFiles(dir)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{filepath.Join(dir, "a.png"), filepath.Join(dir, "sub", "b.jpg")}, files)
	assert.True(t, DirExists(dir))
	assert.False(t, DirExists(filepath.Join(dir, "a.png")))
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "detection-ab_cd", SanitizeFilename(" detection-ab/cd. "))
}

func TestIsURL(t *testing.T) {
	assert.True(t, IsURL("https://example.com/a.png"))
	assert.False(t, IsURL("/tmp/a.png"))
}
