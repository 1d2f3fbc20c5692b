package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/nailstudio/salon-backend/internal/repo"
)

// ExportSheet is the worksheet holding exported requests.
const ExportSheet = "Заявки"

var exportHeader = []any{"Дата", "Имя", "Телефон", "Услуга", "Комментарий"}

// ExportService renders booking requests as an XLSX workbook.
type ExportService struct {
	Requests repo.Requests
	// Location is used for the date column; nil means UTC.
	Location *time.Location
}

// WriteRequests writes every request, newest first, as a workbook to w.
func (s *ExportService) WriteRequests(ctx context.Context, w io.Writer) error {
	ctx, span := otel.Tracer("services/ExportService").Start(ctx, "WriteRequests")
	defer span.End()

	reqs, err := s.Requests.List(ctx)
	if err != nil {
		return err
	}
	span.SetAttributes(attribute.Int("export.rows", len(reqs)))

	loc := s.Location
	if loc == nil {
		loc = time.UTC
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	if err := f.SetSheetName("Sheet1", ExportSheet); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if err := f.SetSheetRow(ExportSheet, "A1", &exportHeader); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	for i, r := range reqs {
		comment := ""
		if r.Comment != nil {
			comment = *r.Comment
		}
		row := []any{
			r.CreatedAt.In(loc).Format("02.01.2006 15:04"),
			r.Name,
			r.Phone,
			ServiceLabel(r.Service),
			comment,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("export: %w", err)
		}
		if err := f.SetSheetRow(ExportSheet, cell, &row); err != nil {
			return fmt.Errorf("export: %w", err)
		}
	}
	_ = f.SetColWidth(ExportSheet, "A", "A", 18)
	_ = f.SetColWidth(ExportSheet, "B", "D", 24)
	_ = f.SetColWidth(ExportSheet, "E", "E", 48)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return nil
}
