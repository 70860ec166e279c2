package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"example.com/behavior-sim/internal/db"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestRun_Usage(t *testing.T) {
	t.Parallel()
	var out, errOut bytes.Buffer
	require.Equal(t, 2, run(nil, &out, &errOut))
	require.Contains(t, errOut.String(), "usage")
	require.Equal(t, 2, run([]string{"bogus"}, &out, &errOut))
	require.Contains(t, errOut.String(), `unknown command "bogus"`)
}

func TestValidate(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	good := writeFile(t, dir, "good.json", `{"sequence":["success",{"print":{"msg":"x"}}]}`)
	bad := writeFile(t, dir, "bad.json", `{"sequence":"nope"}`)

	var out, errOut bytes.Buffer
	require.Equal(t, 0, run([]string{"validate", good}, &out, &errOut))
	require.Contains(t, out.String(), "ok   "+good+" (2 actions)")

	out.Reset()
	require.Equal(t, 1, run([]string{"validate", good, bad}, &out, &errOut))
	require.Contains(t, out.String(), "FAIL "+bad)
	require.Contains(t, errOut.String(), "1 of 2 files invalid")
}

func TestValidate_LookupDir(t *testing.T) {
	t.Parallel()
	lib := t.TempDir()
	writeFile(t, lib, "leaf.yaml", "failure\n")
	file := writeFile(t, t.TempDir(), "main.json", `{"lookup":{"tree":"leaf"}}`)

	var out, errOut bytes.Buffer
	require.Equal(t, 1, run([]string{"validate", file}, &out, &errOut))
	require.Equal(t, 0, run([]string{"validate", "-dir", lib, file}, &out, &errOut))
}

func TestFmt(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	file := writeFile(t, dir, "tree.yaml", "selector:\n  - failure\n  - invert: {child: success}\n")

	var out, errOut bytes.Buffer
	require.Equal(t, 0, run([]string{"fmt", file}, &out, &errOut), errOut.String())
	require.JSONEq(t, `{"selector":["failure",{"invert":{"child":"success"}}]}`, out.String())

	require.Equal(t, 0, run([]string{"fmt", "-w", file}, &out, &errOut))
	written, err := os.ReadFile(filepath.Join(dir, "tree.json"))
	require.NoError(t, err)
	require.JSONEq(t, out.String(), string(written))
}

func TestRun_PrintsDecisions(t *testing.T) {
	t.Parallel()
	file := writeFile(t, t.TempDir(), "count.json",
		`{"sequence": [{"counter": {"count": 2, "child": {"print": {"msg": "A"}}}}, {"print": {"msg": "B"}}]}`)

	var out, errOut bytes.Buffer
	require.Equal(t, 0, run([]string{"run", "-steps", "4", file}, &out, &errOut), errOut.String())

	var printed strings.Builder
	for _, line := range strings.Split(out.String(), "\n") {
		if !strings.HasPrefix(line, "step ") {
			printed.WriteString(line)
		}
	}
	require.Equal(t, "[A][A][B][A][A][B]", printed.String())
	require.Contains(t, out.String(), "step 4: ")
}

func TestImport(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, dir, "a.json", `"success"`)
	writeFile(t, dir, "b.yaml", "lookup: {tree: a}\n")
	dbPath := filepath.Join(t.TempDir(), "sim.db")

	var out, errOut bytes.Buffer
	require.Equal(t, 0, run([]string{"import", "-db", dbPath, dir}, &out, &errOut), errOut.String())
	require.Equal(t, "imported a\nimported b\n", out.String())

	store, err := db.Open(dbPath)
	require.NoError(t, err)
	defer store.Close()
	trees, err := store.ListTrees(context.Background())
	require.NoError(t, err)
	require.Len(t, trees, 2)

	writeFile(t, dir, "c.json", `{"lookup":{"tree":"c"}}`)
	require.Equal(t, 1, run([]string{"import", "-db", dbPath, dir}, &out, &errOut))
}

func TestRemoteFlagsRequireDir(t *testing.T) {
	t.Parallel()
	var out, errOut bytes.Buffer
	require.Equal(t, 1, run([]string{"fetch", "-addr", "h:22", "-user", "u"}, &out, &errOut))
	require.Contains(t, errOut.String(), "-remote is required")
}
