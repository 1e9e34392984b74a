package tickets

import (
	"bytes"

	"github.com/go-pdf/fpdf"
)

const (
	pageMargin = 10.0
	qrEdgeMM   = 60.0
)

func (i *Issuer) renderPDF(in ArtifactInput, qr []byte) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A5", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(false, pageMargin)
	pdf.SetTitle(in.Event.Title, true)
	pdf.SetCreator("TicketPoint", true)
	pdf.AddPage()

	// Core fonts are cp1252
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pageW, _ := pdf.GetPageSize()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.MultiCell(0, 8, tr(in.Event.Title), "", "C", false)
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "", 11)
	pdf.MultiCell(0, 6, tr("Date: "+i.FormatDate(in.Event)), "", "C", false)
	for _, line := range locationLines(in.Event) {
		pdf.MultiCell(0, 6, tr(line), "", "C", false)
	}
	if in.AttendeeName != "" || in.TierName != "" {
		pdf.Ln(1)
		pdf.SetFont("Helvetica", "B", 11)
		pdf.MultiCell(0, 6, tr(joinNonEmpty(in.AttendeeName, in.TierName)), "", "C", false)
	}

	pdf.Ln(3)
	y := pdf.GetY()
	pdf.SetDrawColor(180, 180, 180)
	pdf.Line(pageMargin, y, pageW-pageMargin, y)
	pdf.Ln(6)

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", opts, bytes.NewReader(qr))
	qrY := pdf.GetY()
	pdf.ImageOptions("qr", (pageW-qrEdgeMM)/2, qrY, qrEdgeMM, qrEdgeMM, false, opts, 0, "")
	pdf.SetY(qrY + qrEdgeMM + 4)

	pdf.SetFont("Courier", "", 10)
	pdf.CellFormat(0, 6, "Ticket ID: "+in.Credential, "", 1, "C", false, 0, "")
	if in.BookingRef != "" {
		pdf.CellFormat(0, 6, "Booking: "+in.BookingRef, "", 1, "C", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 6, "Scan this QR code at the event entrance:", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.MultiCell(0, 5, "1. Ensure your device screen brightness is set to maximum.", "", "L", false)
	pdf.MultiCell(0, 5, "2. Present the QR code for scanning.", "", "L", false)

	_, pageH := pdf.GetPageSize()
	pdf.SetY(pageH - pageMargin - 6)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(0, 6, tr(i.cfg.FooterText), "", 0, "C", false, 0, "")

	if err := pdf.Error(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func joinNonEmpty(parts ...string) string {
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += " · "
		}
		out += p
	}
	return out
}
