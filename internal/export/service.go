package export

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/contracts-parser/constants"
	"github.com/joseph-ayodele/contracts-parser/internal/entity"
)

// Lister is the part of contracts.Service the export needs.
type Lister interface {
	List(ctx context.Context, status string) ([]*entity.Contract, error)
}

// Service produces XLSX bytes for the contract listing.
type Service struct {
	contracts Lister
	logger    *slog.Logger
}

func NewService(contracts Lister, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{contracts: contracts, logger: logger}
}

const sheet = "Contracts"

// ExportContractsXLSX returns a workbook with one row per contract, in upload
// order, filtered by status the same way the listing endpoint is.
func (s *Service) ExportContractsXLSX(ctx context.Context, status string) ([]byte, error) {
	start := time.Now()

	recs, err := s.contracts.List(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("list contracts: %w", err)
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	_ = f.DeleteSheet("Sheet1")

	headers := []string{"Contract ID", "Filename", "Status", "Progress", "Uploaded At", "Score"}
	headers = append(headers, constants.ScoreCategories...)
	headers = append(headers, "Gaps", "Error")
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, c := range recs {
		col := 1
		write := func(v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
			col++
		}

		write(c.ID)
		write(c.Filename)
		write(string(c.Status))
		write(c.Progress)
		write(c.CreatedAt.UTC().Format(time.RFC3339))
		if c.Data != nil {
			write(c.Data.Score)
			for _, k := range constants.ScoreCategories {
				write(c.Data.ConfidenceScores[k])
			}
			write(truncate(strings.Join(c.Data.Gaps, "; "), 500))
		} else {
			col += 1 + len(constants.ScoreCategories) + 1
		}
		if c.Error != nil {
			write(truncate(*c.Error, 500))
		}
		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 38) // id
	_ = f.SetColWidth(sheet, "B", "B", 32) // filename
	_ = f.SetColWidth(sheet, "C", "D", 12)
	_ = f.SetColWidth(sheet, "E", "E", 22)
	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	gapsCol, _ := excelize.ColumnNumberToName(len(headers) - 1)
	_ = f.SetColWidth(sheet, gapsCol, lastCol, 60)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"status", status,
		"rows", len(recs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// truncate keeps at most n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	if n == 1 {
		return string(r[:1])
	}
	return string(r[:n-1]) + "…"
}
