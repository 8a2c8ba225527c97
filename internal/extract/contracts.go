package extract

import (
	"context"
	"time"
)

// TextExtractor turns a stored contract file into plain text.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (TextExtractionResult, error)
}

type TextExtractionResult struct {
	Text     string
	Pages    int
	Method   string // "pdf-text" | "pdf-ocr"
	Duration time.Duration
	Warnings []string
}

// Func adapts a plain function into a TextExtractor.
type Func func(ctx context.Context, path string) (string, error)

func (f Func) Extract(ctx context.Context, path string) (TextExtractionResult, error) {
	start := time.Now()
	text, err := f(ctx, path)
	return TextExtractionResult{Text: text, Pages: 1, Method: "func", Duration: time.Since(start)}, err
}
