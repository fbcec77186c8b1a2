package parser

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/net/html"
)

// ole2Magic starts every compound file; password-protected OOXML is stored this way.
var ole2Magic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// ContainerExtractor handles ZIP-based office formats (OOXML and OpenDocument).
// Every *.xml entry is concatenated into a single fragment.
type ContainerExtractor struct {
	MaxEntryBytes int64
}

func (c *ContainerExtractor) Extract(_ context.Context, path string) ([]string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		if errors.Is(err, zip.ErrFormat) {
			if hasOLE2Header(path) {
				return nil, newExtractError(FailureEncrypted, path, err)
			}
			return nil, newExtractError(FailureMalformed, path, err)
		}
		return nil, newExtractError(FailureUnknown, path, err)
	}
	defer zr.Close()

	var blob strings.Builder
	for _, file := range zr.File {
		if !strings.HasSuffix(strings.ToLower(file.Name), ".xml") {
			continue
		}
		data, err := c.readEntry(file)
		if err != nil {
			kind := FailureUnknown
			if errors.Is(err, zip.ErrChecksum) || errors.Is(err, zip.ErrAlgorithm) {
				kind = FailureMalformed
			}
			return nil, newExtractError(kind, path, fmt.Errorf("read %s: %w", file.Name, err))
		}
		if blob.Len() > 0 {
			blob.WriteByte('\n')
		}
		blob.Write(data)
	}

	if blob.Len() == 0 {
		return nil, nil
	}
	return []string{html.UnescapeString(blob.String())}, nil
}

func (c *ContainerExtractor) readEntry(file *zip.File) ([]byte, error) {
	rc, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var r io.Reader = rc
	if c.MaxEntryBytes > 0 {
		r = io.LimitReader(rc, c.MaxEntryBytes)
	}
	return io.ReadAll(r)
}

func hasOLE2Header(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	header := make([]byte, len(ole2Magic))
	if _, err := io.ReadFull(f, header); err != nil {
		return false
	}
	return bytes.Equal(header, ole2Magic)
}
