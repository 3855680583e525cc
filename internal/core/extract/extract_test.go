package extract

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hay-kot/atlas/pkg/executil"
)

func touch(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func writeDocx(t *testing.T, dir string, documentXML string) string {
	t.Helper()
	p := filepath.Join(dir, "memo.docx")
	f, err := os.Create(p)
	require.NoError(t, err)

	zw := zip.NewWriter(f)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return p
}

func TestSupported(t *testing.T) {
	for _, ext := range []string{".txt", ".MD", ".pdf", ".docx", ".doc", ".rtf", ".csv", ".log"} {
		assert.True(t, Supported(ext), ext)
	}
	for _, ext := range []string{".png", ".xlsx", ""} {
		assert.False(t, Supported(ext), ext)
	}
}

func TestText_Direct(t *testing.T) {
	dir := t.TempDir()
	p := touch(t, dir, "notes.md", "# Agenda\nitem")

	got, err := New(&executil.RecordingExecutor{}, Tools{}, 0).Text(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, MethodDirect, got.Method)
	assert.Equal(t, "# Agenda\nitem", got.Text)

	_, err = New(&executil.RecordingExecutor{}, Tools{}, 0).Text(context.Background(), filepath.Join(dir, "gone.txt"))
	require.Error(t, err)
}

func TestText_Textutil(t *testing.T) {
	dir := t.TempDir()
	p := touch(t, dir, "letter.rtf", "{\\rtf1}")

	rec := &executil.RecordingExecutor{Outputs: map[string][]byte{"textutil": []byte("Dear board")}}
	got, err := New(rec, Tools{}, 0).Text(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "Dear board", got.Text)
	assert.Equal(t, []string{"-convert", "txt", "-stdout", p}, rec.Commands[0].Args)

	rec = &executil.RecordingExecutor{Errors: map[string]error{"textutil": errors.New("missing")}}
	got, err = New(rec, Tools{}, 0).Text(context.Background(), touch(t, dir, "old.doc", "x"))
	require.NoError(t, err)
	assert.Equal(t, MethodNone, got.Method)
	assert.Equal(t, "[DOC extraction failed] Filename: old.doc", got.Text)
}

func TestText_Docx(t *testing.T) {
	dir := t.TempDir()
	p := writeDocx(t, dir, `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Interlocal</w:t></w:r><w:r><w:t xml:space="preserve"> Agreement</w:t></w:r></w:p>
    <w:p><w:r><w:t>  </w:t></w:r></w:p>
    <w:p><w:r><w:t>Sumter</w:t><w:tab/><w:t>County</w:t></w:r></w:p>
  </w:body>
</w:document>`)

	got, err := New(&executil.RecordingExecutor{}, Tools{}, 0).Text(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, MethodDocx, got.Method)
	assert.Equal(t, "Interlocal Agreement\nSumter\tCounty", got.Text)

	bad := touch(t, dir, "broken.docx", "not a zip")
	got, err = New(&executil.RecordingExecutor{}, Tools{}, 0).Text(context.Background(), bad)
	require.NoError(t, err)
	assert.Equal(t, "[DOCX extraction failed] Filename: broken.docx", got.Text)
}

func TestText_PDFTextLayer(t *testing.T) {
	dir := t.TempDir()
	p := touch(t, dir, "report.pdf", "%PDF")

	layer := strings.Repeat("budget ", 60)
	rec := &executil.RecordingExecutor{Outputs: map[string][]byte{"pdftotext": []byte(layer)}}

	got, err := New(rec, Tools{}, 2).Text(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, MethodPDFText, got.Method)
	assert.Equal(t, []string{"-layout", "-f", "1", "-l", "2", p, "-"}, rec.Commands[0].Args)
	assert.Empty(t, rec.Named("tesseract"))
}

func TestText_PDFFallsBackToOCR(t *testing.T) {
	dir := t.TempDir()
	p := touch(t, dir, "scan.pdf", "%PDF")

	rec := &executil.RecordingExecutor{
		Handler: func(c executil.RecordedCommand) ([]byte, error) {
			switch c.Cmd {
			case "pdftotext":
				return []byte("short"), nil
			case "pdftoppm":
				prefix := c.Args[len(c.Args)-1]
				return nil, os.WriteFile(prefix+".png", []byte("png"), 0o644)
			case "tesseract":
				return []byte("scanned words"), nil
			}
			return nil, errors.New("unexpected")
		},
	}

	got, err := New(rec, Tools{}, 0).Text(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, MethodOCR, got.Method)
	assert.Equal(t, OCRMarker+"scanned words", got.Text)

	tess := rec.Named("tesseract")
	require.Len(t, tess, 1)
	assert.Equal(t, "stdout", tess[0].Args[1])
}

func TestText_PDFUnavailable(t *testing.T) {
	dir := t.TempDir()
	p := touch(t, dir, "scan.pdf", "%PDF")

	rec := &executil.RecordingExecutor{Errors: map[string]error{
		"pdftotext": errors.New("not found"),
		"pdftoppm":  errors.New("not found"),
	}}

	got, err := New(rec, Tools{}, 0).Text(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, MethodNone, got.Method)
	assert.Equal(t, "[PDF text extraction unavailable] Filename: scan.pdf", got.Text)
}
