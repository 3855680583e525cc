package iojson

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string   `json:"name"`
	Count int      `json:"count"`
	Tags  []string `json:"tags"`
}

func TestWriteFileReadFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "rec.json")
	in := sample{Name: "memo", Count: 2, Tags: []string{"a"}}

	require.NoError(t, WriteFile(p, in))

	raw, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(raw), "}\n"))
	assert.Contains(t, string(raw), "\n  \"name\": \"memo\"")

	out, err := ReadFile[sample](p)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	_, err = os.Stat(p + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestReadFile_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadFile[sample](filepath.Join(dir, "missing.json"))
	require.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o644))
	_, err = ReadFile[sample](bad)
	require.Error(t, err)
}

func TestAppendLine(t *testing.T) {
	p := filepath.Join(t.TempDir(), "log.jsonl")

	require.NoError(t, AppendLine(p, sample{Name: "a"}))
	require.NoError(t, AppendLine(p, sample{Name: "b"}))

	raw, err := os.ReadFile(p)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `{"name":"a","count":0,"tags":null}`, lines[0])
}

func TestWriteWith(t *testing.T) {
	var out, errOut bytes.Buffer
	require.NoError(t, WriteWith(&out, &errOut, map[string]int{"n": 1}))
	assert.Equal(t, "{\n  \"n\": 1\n}\n", out.String())
	assert.Empty(t, errOut.String())
}

func TestMarshalError(t *testing.T) {
	got := MarshalError("bad input", map[string]any{"field": "domain"})
	assert.Contains(t, got, `"message": "bad input"`)
	assert.Contains(t, got, `"field": "domain"`)
}
