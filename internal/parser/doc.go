package parser

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Known install locations of the conversion tools, per GOOS.
var (
	antiwordPaths = map[string][]string{
		"linux":   {"/usr/bin/antiword", "/usr/local/bin/antiword", "/opt/local/bin/antiword"},
		"darwin":  {"/usr/local/bin/antiword", "/opt/local/bin/antiword", "/opt/homebrew/bin/antiword"},
		"freebsd": {"/usr/local/bin/antiword"},
		"windows": {`C:\antiword\antiword.exe`},
	}
	sofficePaths = map[string][]string{
		"linux":   {"/usr/bin/soffice", "/usr/lib/libreoffice/program/soffice", "/opt/libreoffice/program/soffice"},
		"darwin":  {"/Applications/LibreOffice.app/Contents/MacOS/soffice"},
		"freebsd": {"/usr/local/bin/soffice"},
		"windows": {`C:\Program Files\LibreOffice\program\soffice.exe`},
	}
)

// maxRawBytes bounds how much of a binary .doc the raw fallback will read.
const maxRawBytes = 1 << 20

// Capabilities records which .doc strategies can run on this host.
type Capabilities struct {
	Platform    string
	Known       bool   // Platform has an entry in the tool path tables
	Automation  string // Path to a headless office suite, if any
	Antiword    string // Path to antiword, if any
	RawFallback bool
}

// DetectCapabilities probes the known tool paths for goos, then $PATH.
func DetectCapabilities(goos string, rawFallback bool) Capabilities {
	return detectCapabilities(goos, rawFallback, fileExists, exec.LookPath)
}

func detectCapabilities(goos string, rawFallback bool, exists func(string) bool, lookPath func(string) (string, error)) Capabilities {
	_, knownA := antiwordPaths[goos]
	_, knownS := sofficePaths[goos]
	caps := Capabilities{
		Platform:    goos,
		Known:       knownA || knownS,
		RawFallback: rawFallback,
	}
	if !caps.Known {
		return caps
	}
	caps.Automation = findTool(sofficePaths[goos], "soffice", exists, lookPath)
	caps.Antiword = findTool(antiwordPaths[goos], "antiword", exists, lookPath)
	return caps
}

func findTool(candidates []string, name string, exists func(string) bool, lookPath func(string) (string, error)) string {
	for _, p := range candidates {
		if exists(p) {
			return p
		}
	}
	if p, err := lookPath(name); err == nil {
		return p
	}
	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// docStrategy is one way of getting text out of a .doc file.
type docStrategy struct {
	name  string
	ready func(Capabilities) bool
	run   func(e *DocExtractor, ctx context.Context, path string) (string, error)
}

// docStrategies is ordered by fidelity; the first ready strategy that
// produces text wins.
var docStrategies = []docStrategy{
	{"automation", func(c Capabilities) bool { return c.Automation != "" }, (*DocExtractor).viaAutomation},
	{"antiword", func(c Capabilities) bool { return c.Antiword != "" }, (*DocExtractor).viaAntiword},
	{"raw", func(c Capabilities) bool { return c.RawFallback }, (*DocExtractor).viaRawLines},
}

// DocExtractor handles legacy Word 97-2003 documents.
type DocExtractor struct {
	caps     Capabilities
	runner   Runner
	rawLines int
	log      *slog.Logger
}

func NewDocExtractor(caps Capabilities, runner Runner, rawLines int, log *slog.Logger) *DocExtractor {
	if rawLines <= 0 {
		rawLines = 20
	}
	if log == nil {
		log = slog.Default()
	}
	return &DocExtractor{caps: caps, runner: runner, rawLines: rawLines, log: log}
}

// Capabilities returns the strategy preconditions this extractor was built with.
func (e *DocExtractor) Capabilities() Capabilities { return e.caps }

// Extract returns the document text as a single fragment.
func (e *DocExtractor) Extract(ctx context.Context, path string) ([]string, error) {
	var lastErr error
	tried := 0
	for _, s := range docStrategies {
		if !s.ready(e.caps) {
			continue
		}
		tried++
		if s.name == "raw" {
			e.log.Debug("using raw line fallback for .doc", "path", path, "lines", e.rawLines)
		}
		text, err := s.run(e, ctx, path)
		if err == nil && strings.TrimSpace(text) != "" {
			return []string{text}, nil
		}
		if err == nil {
			err = errors.New("no text produced")
		}
		e.log.Debug("legacy word strategy failed", "strategy", s.name, "path", path, "error", err)
		lastErr = fmt.Errorf("%s: %w", s.name, err)
	}

	if tried == 0 {
		if !e.caps.Known {
			return nil, newExtractError(FailureUnsupportedPlatform, path,
				fmt.Errorf("no .doc strategy for platform %q", e.caps.Platform))
		}
		return nil, newExtractError(FailureDecoderUnavailable, path,
			errors.New("neither an office suite nor antiword is installed"))
	}
	return nil, asExtractError(path, lastErr)
}

func (e *DocExtractor) viaAutomation(ctx context.Context, path string) (string, error) {
	tmpDir, err := os.MkdirTemp("", "lsearchy-doc-")
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("abs path: %w", err)
	}

	if _, err := e.runner.Run(ctx, e.caps.Automation,
		"--headless",
		"--convert-to", "txt:Text (encoded):UTF8",
		"--outdir", tmpDir,
		absPath,
	); err != nil {
		return "", err
	}

	baseName := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	content, err := os.ReadFile(filepath.Join(tmpDir, baseName+".txt"))
	if err != nil {
		return "", fmt.Errorf("read converted text: %w", err)
	}
	return strings.TrimPrefix(string(content), "\xEF\xBB\xBF"), nil
}

func (e *DocExtractor) viaAntiword(ctx context.Context, path string) (string, error) {
	out, err := e.runner.Run(ctx, e.caps.Antiword, "-f", "-s", path)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// viaRawLines returns the first lines of the binary with NUL bytes dropped.
// Only plain ASCII and UTF-16LE runs survive.
func (e *DocExtractor) viaRawLines(_ context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	r := bufio.NewReader(io.LimitReader(f, maxRawBytes))
	var lines []string
	for len(lines) < e.rawLines {
		line, err := r.ReadString('\n')
		if line != "" {
			lines = append(lines, strings.TrimRight(line, "\r\n"))
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
	}
	return strings.ReplaceAll(strings.Join(lines, "\n"), "\x00", ""), nil
}
