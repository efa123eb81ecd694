// Package ticket renders ticket artifacts: the QR image encoding a ticket's
// verification URL, the printable PDF document, and the zip archive used when
// several tickets are issued in one response. Everything here is a pure
// transformation; persistence is the orchestrator's concern.
package ticket

import (
	"archive/zip"
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	qrcode "github.com/skip2/go-qrcode"
)

const qrImageSize = 256

// Ticket carries everything a rendered document embeds.
type Ticket struct {
	RaffleID     string
	RaffleTitle  string
	TicketNumber string
	DisplayName  string
	Contact      string
	QR           []byte // PNG bytes
}

// ClaimURL builds the frontend URL a ticket's QR code points at.
func ClaimURL(frontendBaseURL, raffleID, ticketNumber string) string {
	return fmt.Sprintf("%s/ticket/%s?ticketNumber=%s", frontendBaseURL, raffleID, ticketNumber)
}

// QRCode renders the claim URL for one ticket as a PNG image.
func QRCode(frontendBaseURL, raffleID, ticketNumber string) ([]byte, error) {
	url := ClaimURL(frontendBaseURL, raffleID, ticketNumber)
	png, err := qrcode.Encode(url, qrcode.High, qrImageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to encode qr code: %w", err)
	}
	return png, nil
}

// PDF renders the downloadable ticket document: raffle title, ticket number,
// holder details, and the QR image.
func PDF(t Ticket) ([]byte, error) {
	if len(t.QR) == 0 {
		return nil, fmt.Errorf("ticket %s has no qr image", t.TicketNumber)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 12, "Raffle Ticket", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 14)
	pdf.CellFormat(0, 9, "Title: "+t.RaffleTitle, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 9, "Ticket Number: "+t.TicketNumber, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 9, "Name: "+t.DisplayName, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 9, "Contact: "+t.Contact, "", 1, "L", false, 0, "")
	pdf.Ln(6)

	imgName := "qr-" + t.TicketNumber
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(imgName, opts, bytes.NewReader(t.QR))
	pdf.ImageOptions(imgName, 80, pdf.GetY(), 50, 50, false, opts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render ticket pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// Archive packs multiple ticket documents into one zip, an entry per ticket.
// Order of documents is preserved in the archive.
func Archive(ticketNumbers []string, documents [][]byte) ([]byte, error) {
	if len(ticketNumbers) != len(documents) {
		return nil, fmt.Errorf("got %d ticket numbers for %d documents", len(ticketNumbers), len(documents))
	}

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for i, doc := range documents {
		entry, err := w.Create(fmt.Sprintf("ticket-%s.pdf", ticketNumbers[i]))
		if err != nil {
			return nil, err
		}
		if _, err := entry.Write(doc); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
