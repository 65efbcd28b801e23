// Package extractor pulls plain text out of uploaded statement files.
package extractor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrNoText is returned when no readable text could be pulled from a file.
var ErrNoText = errors.New("no readable text in document")

// TextExtractor returns the text content of the file at path.
type TextExtractor interface {
	ExtractText(ctx context.Context, path string) (string, error)
}

// Extractor reads .txt files directly and PDFs through ledongthuc/pdf,
// falling back to pdftotext when the library output has no statement header.
type Extractor struct {
	// Pdftotext is the fallback binary. Empty disables the fallback.
	Pdftotext string
	logger    *slog.Logger
}

// New creates an Extractor that falls back to pdftotext from PATH.
func New(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{Pdftotext: "pdftotext", logger: logger}
}

// ExtractText returns the normalized text of path.
func (e *Extractor) ExtractText(ctx context.Context, path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("source file does not exist: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".txt") {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read text file: %w", err)
		}
		return normalize(string(data)), nil
	}

	text, libErr := extractWithLibrary(path)
	if libErr == nil && looksLikeStatement(text) {
		return normalize(text), nil
	}
	if libErr != nil {
		e.logger.Debug("pdf library extraction failed", "file", path, "error", libErr)
	}

	if e.Pdftotext == "" {
		if libErr != nil {
			return "", libErr
		}
		return normalize(text), nil
	}

	layout, err := e.extractWithPdftotext(ctx, path)
	if err != nil {
		e.logger.Warn("pdftotext fallback failed", "file", path, "error", err)
		if libErr != nil {
			return "", fmt.Errorf("%w: %v", ErrNoText, libErr)
		}
		return normalize(text), nil
	}
	return normalize(layout), nil
}

// extractWithLibrary joins each page's text rows, one row per line.
func extractWithLibrary(path string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf library crashed: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	totalPages := r.NumPage()
	if totalPages == 0 {
		return "", ErrNoText
	}

	var b strings.Builder
	for pageIndex := 1; pageIndex <= totalPages; pageIndex++ {
		p := r.Page(pageIndex)
		if p.V.IsNull() {
			continue
		}
		rows, err := p.GetTextByRow()
		if err != nil {
			return "", fmt.Errorf("failed to extract text from page %d: %w", pageIndex, err)
		}
		for _, row := range rows {
			words := make([]string, 0, len(row.Content))
			for _, word := range row.Content {
				words = append(words, word.S)
			}
			b.WriteString(strings.Join(words, " "))
			b.WriteByte('\n')
		}
	}
	return b.String(), nil
}

func (e *Extractor) extractWithPdftotext(ctx context.Context, path string) (string, error) {
	if _, err := exec.LookPath(e.Pdftotext); err != nil {
		return "", fmt.Errorf("pdftotext not available: %w", err)
	}
	out, err := exec.CommandContext(ctx, e.Pdftotext, "-layout", path, "-").Output()
	if err != nil {
		return "", fmt.Errorf("failed to convert PDF with pdftotext: %w", err)
	}
	return string(out), nil
}

func looksLikeStatement(text string) bool {
	return strings.Contains(strings.ToUpper(text), "STATEMENT PERIOD")
}

// normalize trims every line so anchored row patterns see column-aligned
// layout output the same way as plain text.
func normalize(text string) string {
	var b strings.Builder
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), len(text)+1)
	for scanner.Scan() {
		b.WriteString(strings.TrimSpace(scanner.Text()))
		b.WriteByte('\n')
	}
	return b.String()
}
