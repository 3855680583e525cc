// Package extract pulls best-effort plain text out of documents so they can
// be classified.
package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hay-kot/atlas/pkg/executil"
)

// Defaults for PDF handling.
const (
	DefaultPDFPages = 3
	// minTextLayer is how many non-blank characters a PDF text layer needs
	// before OCR is skipped.
	minTextLayer = 300
	// OCRMarker prefixes text recovered by OCR.
	OCRMarker = "[OCR_USED]\n"
)

var direct = map[string]bool{".txt": true, ".md": true, ".csv": true, ".log": true}

var supported = map[string]bool{
	".txt": true, ".md": true, ".csv": true, ".log": true,
	".rtf": true, ".pdf": true, ".docx": true, ".doc": true,
}

// Supported reports whether text can be extracted from files with ext.
func Supported(ext string) bool {
	return supported[strings.ToLower(ext)]
}

// Method names how text was obtained.
type Method string

const (
	MethodDirect   Method = "direct"
	MethodTextutil Method = "textutil"
	MethodDocx     Method = "docx"
	MethodPDFText  Method = "pdftotext"
	MethodOCR      Method = "ocr"
	// MethodNone means extraction failed and Text holds a placeholder.
	MethodNone Method = "none"
)

// Result is extracted text and how it was produced.
type Result struct {
	Text   string
	Method Method
}

// Tools names the external binaries. Empty fields use the binary name.
type Tools struct {
	Textutil  string
	PDFToText string
	PDFToPPM  string
	Tesseract string
}

func (t Tools) withDefaults() Tools {
	if t.Textutil == "" {
		t.Textutil = "textutil"
	}
	if t.PDFToText == "" {
		t.PDFToText = "pdftotext"
	}
	if t.PDFToPPM == "" {
		t.PDFToPPM = "pdftoppm"
	}
	if t.Tesseract == "" {
		t.Tesseract = "tesseract"
	}
	return t
}

// Extractor converts documents to text using external tools where needed.
type Extractor struct {
	exec     executil.Executor
	tools    Tools
	pdfPages int
}

// New returns an Extractor. pdfPages <= 0 uses DefaultPDFPages.
func New(exec executil.Executor, tools Tools, pdfPages int) *Extractor {
	if pdfPages <= 0 {
		pdfPages = DefaultPDFPages
	}
	return &Extractor{exec: exec, tools: tools.withDefaults(), pdfPages: pdfPages}
}

// Text extracts text from path. Conversion failures return a placeholder
// naming the file rather than an error; only unreadable plain-text files
// error.
func (e *Extractor) Text(ctx context.Context, path string) (Result, error) {
	ext := strings.ToLower(filepath.Ext(path))
	name := filepath.Base(path)

	switch {
	case direct[ext]:
		data, err := os.ReadFile(path)
		if err != nil {
			return Result{}, fmt.Errorf("read %s: %w", name, err)
		}
		return Result{Text: strings.ToValidUTF8(string(data), ""), Method: MethodDirect}, nil

	case ext == ".rtf" || ext == ".doc":
		out, err := e.exec.Run(ctx, e.tools.Textutil, "-convert", "txt", "-stdout", path)
		if err != nil {
			label := strings.ToUpper(strings.TrimPrefix(ext, "."))
			return placeholder(fmt.Sprintf("[%s extraction failed] Filename: %s", label, name)), nil
		}
		return Result{Text: string(out), Method: MethodTextutil}, nil

	case ext == ".docx":
		text, err := docxText(path)
		if err != nil {
			return placeholder(fmt.Sprintf("[DOCX extraction failed] Filename: %s", name)), nil
		}
		if strings.TrimSpace(text) == "" {
			return placeholder(fmt.Sprintf("[DOCX extraction empty] Filename: %s", name)), nil
		}
		return Result{Text: text, Method: MethodDocx}, nil

	case ext == ".pdf":
		return e.pdf(ctx, path), nil
	}

	return placeholder(fmt.Sprintf("[Unsupported filetype for text extraction] Filename: %s", name)), nil
}

func (e *Extractor) pdf(ctx context.Context, path string) Result {
	out, err := e.exec.Run(ctx, e.tools.PDFToText,
		"-layout", "-f", "1", "-l", strconv.Itoa(e.pdfPages), path, "-")
	if err == nil && len(strings.TrimSpace(string(out))) > minTextLayer {
		return Result{Text: string(out), Method: MethodPDFText}
	}

	if text, ok := e.ocr(ctx, path); ok {
		return Result{Text: OCRMarker + text, Method: MethodOCR}
	}
	return placeholder("[PDF text extraction unavailable] Filename: " + filepath.Base(path))
}

// ocr rasterizes the first page and runs tesseract over it.
func (e *Extractor) ocr(ctx context.Context, path string) (string, bool) {
	dir, err := os.MkdirTemp("", "atlas_ocr_")
	if err != nil {
		return "", false
	}
	defer func() { _ = os.RemoveAll(dir) }()

	prefix := filepath.Join(dir, "page")
	if _, err := e.exec.Run(ctx, e.tools.PDFToPPM, "-f", "1", "-l", "1", "-png", "-singlefile", path, prefix); err != nil {
		return "", false
	}

	png := prefix + ".png"
	if _, err := os.Stat(png); err != nil {
		return "", false
	}

	out, err := e.exec.Run(ctx, e.tools.Tesseract, png, "stdout")
	if err != nil {
		return "", false
	}
	return string(out), true
}

func placeholder(text string) Result {
	return Result{Text: text, Method: MethodNone}
}
