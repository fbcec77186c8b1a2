package cli

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/lsearchy/internal/document"
	"github.com/dgallion1/lsearchy/internal/pipeline"
	"github.com/dgallion1/lsearchy/internal/report"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
	return root
}

func TestVersionCommand(t *testing.T) {
	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "lsearchy version dev\n", out)
}

func TestScan_DirectoryWithReport(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.txt":         "Reach jane at example dot com today.",
		"sub/b.txt":     "cc: bob@example.net and jane@example.com",
		"notes.bin":     "ignored@example.org",
		".hidden/c.txt": "hidden@example.org",
	})
	outPath := filepath.Join(t.TempDir(), "out.csv")

	out, _, err := execute(t, "scan", "--dir", root, "--query", "jane@", "--no-color", "-o", outPath)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "jane@example.com  "+filepath.Join(root, "a.txt"), lines[0])
	assert.Equal(t, "bob@example.net  "+filepath.Join(root, "sub", "b.txt"), lines[1])
	assert.Equal(t, "2 addresses (1 matching) from 2 of 2 documents, 0 failed, 0 unsupported", lines[2])
	assert.Equal(t, "saved 3 records to "+outPath, lines[3])

	f, err := os.Open(outPath)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, report.Header, rows[0])
	assert.Equal(t, []string{"jane@example.com", filepath.Join(root, "a.txt"), "T"}, rows[1])
	assert.Equal(t, []string{"bob@example.net", filepath.Join(root, "sub", "b.txt"), "F"}, rows[2])
	assert.Equal(t, []string{"jane@example.com", filepath.Join(root, "sub", "b.txt"), "T"}, rows[3])
}

func TestScan_ConcurrentMatchesSequential(t *testing.T) {
	files := map[string]string{}
	for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
		files[name+".txt"] = name + "@example.com and shared at example dot org"
	}
	root := writeTree(t, files)

	seqPath := filepath.Join(t.TempDir(), "seq.json")
	conPath := filepath.Join(t.TempDir(), "con.json")
	_, _, err := execute(t, "scan", "-d", root, "--no-color", "-o", seqPath)
	require.NoError(t, err)
	out, _, err := execute(t, "scan", "-d", root, "--no-color", "--threads", "--workers", "3", "-o", conPath)
	require.NoError(t, err)
	assert.Contains(t, out, "7 addresses (7 matching) from 6 of 6 documents")

	seq, err := os.ReadFile(seqPath)
	require.NoError(t, err)
	con, err := os.ReadFile(conPath)
	require.NoError(t, err)
	// Concurrent record order depends on scheduling; the address sets agree.
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "shared"} {
		assert.Contains(t, string(seq), `"`+name+`@example.`)
		assert.Contains(t, string(con), `"`+name+`@example.`)
	}
}

func TestScan_FileList(t *testing.T) {
	root := writeTree(t, map[string]string{
		"one.txt": "first@example.com",
		"two.txt": "second@example.com",
		"odd.xyz": "nope@example.com",
	})

	out, _, err := execute(t, "scan", "--no-color",
		"-f", filepath.Join(root, "two.txt"),
		"-f", filepath.Join(root, "odd.xyz"))
	require.NoError(t, err)
	assert.Contains(t, out, "second@example.com")
	assert.NotContains(t, out, "first@example.com")
	assert.Contains(t, out, "1 addresses (1 matching) from 1 of 2 documents, 0 failed, 1 unsupported")
}

func TestScan_ConfigFileAndFlagOverride(t *testing.T) {
	root := writeTree(t, map[string]string{"a.txt": "jane@example.com bob@example.com"})
	cfgPath := filepath.Join(t.TempDir(), "lsearchy.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("root = \""+filepath.ToSlash(root)+"\"\nquery = \"jane\"\n"), 0o600))

	out, _, err := execute(t, "scan", "--config", cfgPath, "--no-color")
	require.NoError(t, err)
	assert.Contains(t, out, "2 addresses (1 matching)")

	out, _, err = execute(t, "scan", "--config", cfgPath, "--no-color", "--query", "example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "2 addresses (2 matching)")
}

func TestScan_Errors(t *testing.T) {
	root := writeTree(t, map[string]string{"a.txt": "x@example.com"})

	tests := []struct {
		name string
		args []string
		is   error
		msg  string
	}{
		{name: "nothing to scan", args: []string{"scan"}, msg: "nothing to scan"},
		{name: "missing dir", args: []string{"scan", "-d", filepath.Join(root, "missing")}, is: pipeline.ErrRootUnreadable},
		{name: "dir is a file", args: []string{"scan", "-d", filepath.Join(root, "a.txt")}, is: pipeline.ErrRootUnreadable},
		{name: "unknown report", args: []string{"scan", "-d", root, "-o", filepath.Join(root, "out.pdf")}, is: report.ErrUnknownFormat},
		{name: "no workers", args: []string{"scan", "-d", root, "--threads", "--workers", "0"}, msg: "workers must be positive"},
		{name: "missing config", args: []string{"scan", "-d", root, "--config", filepath.Join(root, "nope.toml")}, msg: "read config"},
		{name: "positional args", args: []string{"scan", root}, msg: "unknown command"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			require.Error(t, err)
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
			if tt.msg != "" {
				assert.Contains(t, err.Error(), tt.msg)
			}
		})
	}
}

func TestServe_RequiresAPIKey(t *testing.T) {
	t.Setenv("LSEARCHY_API_KEY", "")
	_, _, err := execute(t, "serve", "--serve-root", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LSEARCHY_API_KEY is required")
}

func TestServe_RejectsMissingServeRoot(t *testing.T) {
	t.Setenv("LSEARCHY_API_KEY", "k")
	_, _, err := execute(t, "serve", "--serve-root", filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "serve_root")
}

func TestFindingPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := newFindingPrinter(&buf, false)
	p.print(pipeline.Finding{Address: "a@example.com", MatchesQuery: true}, document.Document{Path: "x.txt"})
	p.print(pipeline.Finding{Address: "b@example.com"}, document.Document{Path: "y.txt"})
	assert.Equal(t, "a@example.com  x.txt\nb@example.com  y.txt\n", buf.String())
}

func TestSummary(t *testing.T) {
	snap := pipeline.Snapshot{
		Addresses: []string{"a@example.com", "b@example.com"},
		Records: []document.Record{
			{Address: "a@example.com", MatchesQuery: true},
			{Address: "a@example.com", MatchesQuery: true},
			{Address: "b@example.com"},
		},
		Counters: pipeline.Counters{Discovered: 5, Processed: 3, Failed: 1, Unsupported: 1},
	}
	assert.Equal(t, "2 addresses (1 matching) from 3 of 5 documents, 1 failed, 1 unsupported", summary(snap))
}
