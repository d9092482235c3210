package plans

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"

	"tripbite/models"
)

// ExportPDF renders a printable itinerary with a QR code pointing at shareURL.
func (s *Service) ExportPDF(ctx context.Context, id, shareURL string) ([]byte, error) {
	ov, err := s.LoadPlanOverview(ctx, id)
	if err != nil {
		return nil, err
	}

	qrPNG, err := qrcode.Encode(shareURL, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("generate QR code: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(tr(ov.Name), false)
	pdf.AddPage()

	title := ov.Name
	if title == "" {
		title = "Trip to " + ov.Location
	}
	pdf.SetFont("Arial", "B", 18)
	pdf.Cell(0, 10, tr(title))
	pdf.Ln(10)

	pdf.SetFont("Arial", "", 11)
	pdf.Cell(0, 8, tr(ov.Location))
	pdf.Ln(6)
	pdf.Cell(0, 8, fmt.Sprintf("%s to %s", ov.StartDate, ov.EndDate))
	pdf.Ln(6)

	imageOpts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", imageOpts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", 160, 10, 35, 35, false, imageOpts, 0, "")
	pdf.Ln(14)

	for _, day := range ov.Days {
		pdf.SetFont("Arial", "B", 13)
		pdf.Cell(0, 9, tr(day.Date))
		pdf.Ln(9)

		pdf.SetFont("Arial", "", 11)
		for _, row := range []struct {
			label string
			biz   models.Business
		}{
			{"Breakfast", day.B},
			{"Lunch", day.L},
			{"Dinner", day.D},
		} {
			pdf.CellFormat(28, 7, row.label, "", 0, "L", false, 0, "")
			pdf.CellFormat(0, 7, tr(describe(row.biz)), "", 1, "L", false, 0, "")
		}
		pdf.Ln(3)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func describe(b models.Business) string {
	name := b.Name
	if name == "" {
		name = b.ID
	}
	parts := []string{name}
	if b.Rating > 0 {
		parts = append(parts, fmt.Sprintf("%.1f stars", b.Rating))
	}
	if b.Categories != "" {
		parts = append(parts, b.Categories)
	}
	return strings.Join(parts, " - ")
}
