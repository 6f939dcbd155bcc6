package sheets

import (
	"bytes"
	"context"
	"testing"
)

func TestPDFGeneratorProducesValidHeader(t *testing.T) {
	g := NewPDFGenerator()
	data, err := g.Generate(context.Background(), Document{
		ParticipantName: "Ada Lovelace",
		CompetitionName: "Regional Mathematics Olympiad",
		RoomName:        "Aud. 3",
		SeatNumber:      14,
		VariantNumber:   2,
		Kind:            "PRIMARY",
		RawToken:        "abc123",
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-1.4")) {
		t.Errorf("document does not start with a PDF header")
	}
	if !bytes.HasSuffix(bytes.TrimSpace(data), []byte("%%EOF")) {
		t.Errorf("document does not end with %%EOF")
	}
	if !bytes.Contains(data, []byte("abc123")) {
		t.Errorf("credential missing from rendered document")
	}
}

func TestEscapePDF(t *testing.T) {
	if got := escapePDF(`a(b)c\d`); got != `a\(b\)c\\d` {
		t.Errorf("escapePDF() = %q", got)
	}
}
