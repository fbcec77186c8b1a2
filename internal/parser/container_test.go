package parser

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeZip(t *testing.T, name string, entries map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	for entry, body := range entries {
		w, err := zw.Create(entry)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return path
}

func TestContainerExtractor_ConcatenatesXMLEntries(t *testing.T) {
	path := writeZip(t, "memo.docx", map[string]string{
		"word/document.xml":   `<w:t>mail jane&#64;example.com</w:t>`,
		"docProps/core.xml":   `<dc:creator>john at example dot org</dc:creator>`,
		"word/media/logo.png": "jane@ignored.com",
	})

	frags, err := (&ContainerExtractor{}).Extract(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, frags, 1)
	assert.Contains(t, frags[0], "jane@example.com")
	assert.Contains(t, frags[0], "john at example dot org")
	assert.NotContains(t, frags[0], "ignored")
}

func TestContainerExtractor_NoXMLEntries(t *testing.T) {
	path := writeZip(t, "empty.odt", map[string]string{"mimetype": "application/vnd.oasis.opendocument.text"})

	frags, err := (&ContainerExtractor{}).Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Empty(t, frags)
}

func TestContainerExtractor_EntryLimit(t *testing.T) {
	path := writeZip(t, "big.xlsx", map[string]string{"xl/sharedStrings.xml": "abcdefghij"})

	frags, err := (&ContainerExtractor{MaxEntryBytes: 4}).Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []string{"abcd"}, frags)
}

func TestContainerExtractor_NotAZip(t *testing.T) {
	path := writeFile(t, "broken.docx", "this is not a zip archive at all")

	_, err := (&ContainerExtractor{}).Extract(context.Background(), path)
	require.Error(t, err)
	assert.Equal(t, FailureMalformed, KindOf(err))
}

func TestContainerExtractor_EncryptedOOXML(t *testing.T) {
	body := append([]byte{}, ole2Magic...)
	body = append(body, make([]byte, 512)...)
	path := filepath.Join(t.TempDir(), "locked.xlsx")
	require.NoError(t, os.WriteFile(path, body, 0o600))

	_, err := (&ContainerExtractor{}).Extract(context.Background(), path)
	require.Error(t, err)
	assert.Equal(t, FailureEncrypted, KindOf(err))
}
