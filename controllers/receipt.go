package controllers

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/yeremiapane/restaurant-pos/models"
	"github.com/yeremiapane/restaurant-pos/utils"
)

const (
	receiptWidth  = 80.0
	receiptMargin = 4.0
	receiptLineH  = 5.0
)

type receiptLine struct {
	Name     string
	Quantity int
	Cost     float64
	Total    float64
}

type receiptData struct {
	Number    string
	Unit      string
	CreatedAt time.Time
	Lines     []receiptLine
	Subtotal  float64
	Service   float64
	Total     float64
	Note      string
}

// newReceiptData resolves product names in locale. The PDF core fonts are
// Latin-only, so Russian falls back to the English names.
func newReceiptData(basket models.Basket, kind models.UnitKind, unitNumber string, catalog map[int]models.Product, locale string, loc *time.Location) receiptData {
	if locale == models.LocaleRu {
		locale = models.LocaleEn
	}
	created := basket.CreatedAt.Time
	if created.IsZero() {
		created = time.Now()
	}

	data := receiptData{
		Number:    fmt.Sprintf("RCP/%s/%06d", created.In(loc).Format("20060102"), basket.ID),
		Unit:      fmt.Sprintf("%s %s", kindLabel(kind), unitNumber),
		CreatedAt: created.In(loc),
		Subtotal:  basket.Subtotal(),
		Service:   basket.ServiceCost,
		Total:     basket.TotalCost,
		Note:      basket.Note,
	}
	for _, item := range basket.Items {
		name := fmt.Sprintf("#%d", item.Product)
		if p, ok := catalog[item.Product]; ok {
			name = p.Name(locale)
		}
		data.Lines = append(data.Lines, receiptLine{
			Name:     name,
			Quantity: item.Quantity,
			Cost:     item.Cost,
			Total:    item.LineTotal(),
		})
	}
	return data
}

func kindLabel(kind models.UnitKind) string {
	switch kind {
	case models.KindRoom:
		return "Room"
	case models.KindHotelRoom:
		return "Hotel room"
	}
	return "Table"
}

// renderReceipt lays the receipt out on an 80 mm roll.
func renderReceipt(data receiptData) ([]byte, error) {
	height := 70 + float64(len(data.Lines))*receiptLineH*2
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: receiptWidth, Ht: height},
	})
	pdf.SetMargins(receiptMargin, receiptMargin, receiptMargin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	inner := receiptWidth - 2*receiptMargin

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(inner, 7, "RECEIPT", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(inner, 4, data.Number, "", 1, "C", false, 0, "")
	pdf.CellFormat(inner, 4, tr(data.Unit), "", 1, "C", false, 0, "")
	pdf.CellFormat(inner, 4, data.CreatedAt.Format("02.01.2006 15:04"), "", 1, "C", false, 0, "")
	pdf.Ln(2)
	pdf.Line(receiptMargin, pdf.GetY(), receiptWidth-receiptMargin, pdf.GetY())
	pdf.Ln(2)

	for _, line := range data.Lines {
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(inner, receiptLineH, tr(line.Name), "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 8)
		pdf.CellFormat(inner/2, receiptLineH, fmt.Sprintf("%d x %s", line.Quantity, utils.FormatPrice(line.Cost)), "", 0, "L", false, 0, "")
		pdf.CellFormat(inner/2, receiptLineH, utils.FormatPrice(line.Total), "", 1, "R", false, 0, "")
	}

	pdf.Ln(1)
	pdf.Line(receiptMargin, pdf.GetY(), receiptWidth-receiptMargin, pdf.GetY())
	pdf.Ln(2)
	totalRow(pdf, inner, "Subtotal", data.Subtotal, false)
	totalRow(pdf, inner, "Service", data.Service, false)
	totalRow(pdf, inner, "Total", data.Total, true)

	if data.Note != "" {
		pdf.Ln(2)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.MultiCell(inner, 4, tr(data.Note), "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render receipt: %w", err)
	}
	return buf.Bytes(), nil
}

func totalRow(pdf *fpdf.Fpdf, width float64, label string, amount float64, bold bool) {
	style := ""
	if bold {
		style = "B"
	}
	pdf.SetFont("Helvetica", style, 9)
	pdf.CellFormat(width/2, receiptLineH, label, "", 0, "L", false, 0, "")
	pdf.CellFormat(width/2, receiptLineH, utils.FormatPrice(amount), "", 1, "R", false, 0, "")
}
