package ticket

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"
)

func TestClaimURL(t *testing.T) {
	url := ClaimURL("https://raffles.example.com", "abc123", "DEADBEEF00000000")
	want := "https://raffles.example.com/ticket/abc123?ticketNumber=DEADBEEF00000000"
	if url != want {
		t.Errorf("ClaimURL() = %q, want %q", url, want)
	}
}

func TestQRCodeProducesPNG(t *testing.T) {
	png, err := QRCode("https://raffles.example.com", "abc123", "DEADBEEF00000000")
	if err != nil {
		t.Fatalf("QRCode() error = %v", err)
	}
	magic := []byte{0x89, 'P', 'N', 'G'}
	if !bytes.HasPrefix(png, magic) {
		t.Error("QRCode() output is not a PNG image")
	}
}

func TestPDFEmbedsTicket(t *testing.T) {
	qr, err := QRCode("https://raffles.example.com", "abc123", "DEADBEEF00000000")
	if err != nil {
		t.Fatalf("QRCode() error = %v", err)
	}

	doc, err := PDF(Ticket{
		RaffleID:     "abc123",
		RaffleTitle:  "Holiday Raffle",
		TicketNumber: "DEADBEEF00000000",
		DisplayName:  "Alice",
		Contact:      "0241234567",
		QR:           qr,
	})
	if err != nil {
		t.Fatalf("PDF() error = %v", err)
	}
	if !bytes.HasPrefix(doc, []byte("%PDF-")) {
		t.Error("PDF() output does not start with a PDF header")
	}
}

func TestPDFRequiresQR(t *testing.T) {
	_, err := PDF(Ticket{TicketNumber: "DEADBEEF00000000"})
	if err == nil {
		t.Error("expected PDF() to fail without a QR image")
	}
}

func TestArchive(t *testing.T) {
	numbers := []string{"AAAA", "BBBB"}
	documents := [][]byte{[]byte("doc-a"), []byte("doc-b")}

	archive, err := Archive(numbers, documents)
	if err != nil {
		t.Fatalf("Archive() error = %v", err)
	}

	r, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		t.Fatalf("archive is not a readable zip: %v", err)
	}
	if len(r.File) != 2 {
		t.Fatalf("expected 2 archive entries, got %d", len(r.File))
	}

	wantNames := map[string][]byte{
		"ticket-AAAA.pdf": []byte("doc-a"),
		"ticket-BBBB.pdf": []byte("doc-b"),
	}
	for _, f := range r.File {
		want, ok := wantNames[f.Name]
		if !ok {
			t.Errorf("unexpected archive entry %q", f.Name)
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("failed to open entry %q: %v", f.Name, err)
		}
		got, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("failed to read entry %q: %v", f.Name, err)
		}
		if !bytes.Equal(got, want) {
			t.Errorf("entry %q = %q, want %q", f.Name, got, want)
		}
	}
}

func TestArchiveLengthMismatch(t *testing.T) {
	if _, err := Archive([]string{"AAAA"}, nil); err == nil {
		t.Error("expected Archive() to fail on length mismatch")
	}
}
