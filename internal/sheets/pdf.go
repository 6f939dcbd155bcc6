package sheets

import (
	"bytes"
	"context"
	"fmt"
	"strings"
)

// PDFGenerator renders a minimal single-page PDF with the sheet header
// and the credential printed as text.  The credential line doubles as
// the QR payload; the print station overlays the actual QR image from
// it.  No external rendering dependency keeps the admission desk
// self-contained.
type PDFGenerator struct{}

// NewPDFGenerator returns a PDFGenerator.
func NewPDFGenerator() *PDFGenerator { return &PDFGenerator{} }

// Generate implements Generator.
func (g *PDFGenerator) Generate(_ context.Context, doc Document) ([]byte, error) {
	lines := []string{
		fmt.Sprintf("%s — answer sheet (%s)", doc.CompetitionName, strings.ToLower(doc.Kind)),
		fmt.Sprintf("Participant: %s", doc.ParticipantName),
		fmt.Sprintf("Room: %s   Seat: %d   Variant: %d", doc.RoomName, doc.SeatNumber, doc.VariantNumber),
		fmt.Sprintf("QR: %s", doc.RawToken),
	}
	return renderPDF(lines), nil
}

// renderPDF emits a minimal valid PDF: one page, Helvetica, one text
// line per input string.
func renderPDF(lines []string) []byte {
	var content bytes.Buffer
	content.WriteString("BT /F1 12 Tf 50 780 Td 16 TL\n")
	for _, l := range lines {
		fmt.Fprintf(&content, "(%s) Tj T*\n", escapePDF(l))
	}
	content.WriteString("ET\n")

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 595 842] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", content.Len(), content.String()),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects)+1)
	for i, obj := range objects {
		offsets[i+1] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for i := 1; i <= len(objects); i++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[i])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func escapePDF(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(s)
}
