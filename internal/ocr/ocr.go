package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/contracts-parser/constants"
)

type Config struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	TesseractLang string // default "eng"
	TessdataDir   string
	DPI           int // rasterization DPI for scanned PDFs, default 300
	MaxPages      int // 0 = no limit

	// Fallback rasterizes and OCRs the PDF when its text layer is empty.
	Fallback bool
}

type ExtractionResult struct {
	Text     string
	Pages    int
	Method   string // "pdf-text" | "pdf-ocr"
	Duration time.Duration
	Warnings []string
}

type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	return &Extractor{cfg: cfg, runner: execRunner{logger: logger}, logger: logger}
}

// Extract returns the normalized text of the PDF at path.
func (e *Extractor) Extract(ctx context.Context, path string) (ExtractionResult, error) {
	start := time.Now()
	if !constants.IsPDFPath(path) {
		ext := filepath.Ext(path)
		e.logger.Error("ocr.unsupported", "path", path, "ext", ext)
		return ExtractionResult{}, fmt.Errorf("unsupported extension: %q", ext)
	}

	text, pages, warns, err := e.pdfToText(ctx, path)
	if err != nil {
		return ExtractionResult{Warnings: warns, Duration: time.Since(start)}, fmt.Errorf("pdftotext: %w", err)
	}
	res := ExtractionResult{Text: Normalize(text), Pages: pages, Method: "pdf-text", Warnings: warns}

	if res.Text == "" && e.cfg.Fallback {
		e.logger.Info("ocr.pdf.no_text_layer", "path", path, "pages", pages)
		otext, opages, owarns, oerr := e.pdfToOCR(ctx, path)
		res.Warnings = append(res.Warnings, owarns...)
		if oerr != nil {
			res.Duration = time.Since(start)
			return res, fmt.Errorf("pdf ocr: %w", oerr)
		}
		res.Text, res.Pages, res.Method = Normalize(otext), opages, "pdf-ocr"
	}

	res.Duration = time.Since(start)
	e.logger.Debug("ocr.extract.ok",
		"path", path,
		"method", res.Method,
		"pages", res.Pages,
		"chars", len(res.Text),
		"elapsed_ms", res.Duration.Milliseconds())
	return res, nil
}
