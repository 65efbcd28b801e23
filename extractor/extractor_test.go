package extractor

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestExtractTextPlainFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "statement.txt")
	content := "  STATEMENT PERIOD: DECEMBER 15, 2023 to JANUARY 14, 2024\r\n\t1234 56XX XXXX 7890  \n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := New(nil).ExtractText(context.Background(), path)
	if err != nil {
		t.Fatalf("ExtractText failed: %v", err)
	}
	want := "STATEMENT PERIOD: DECEMBER 15, 2023 to JANUARY 14, 2024\n1234 56XX XXXX 7890\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestExtractTextMissingFile(t *testing.T) {
	_, err := New(nil).ExtractText(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestExtractTextNotAPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.pdf")
	if err := os.WriteFile(path, []byte("this is not a pdf"), 0644); err != nil {
		t.Fatal(err)
	}

	e := New(nil)
	e.Pdftotext = ""
	_, err := e.ExtractText(context.Background(), path)
	if err == nil {
		t.Fatal("expected error for invalid PDF")
	}
}

func TestLooksLikeStatement(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"Statement Period: Jan 1, 2024 to Jan 31, 2024", true},
		{"STATEMENT PERIOD:", true},
		{"random page footer", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := looksLikeStatement(tt.text); got != tt.want {
			t.Errorf("looksLikeStatement(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}
