package tickets

import (
	"bytes"
	"errors"
	"fmt"
	"image/png"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/skip2/go-qrcode"
)

var ErrMissingCredential = errors.New("ticket has no credential")

// QRSize is the edge of the rendered QR code in pixels
const QRSize = 200

// Config controls ticket rendering
type Config struct {
	DefaultLocation *time.Location
	FooterText      string
	SupportEmail    string
}

// Issuer mints credentials and renders ticket documents. Rendering is a pure
// function of its input and never mints.
type Issuer struct {
	cfg Config
}

func NewIssuer(cfg Config) *Issuer {
	if cfg.DefaultLocation == nil {
		cfg.DefaultLocation = time.UTC
	}
	if cfg.FooterText == "" {
		cfg.FooterText = "© 2025 TicketPoint. All rights reserved."
	}
	if cfg.SupportEmail == "" {
		cfg.SupportEmail = "support@ticketpoint.com"
	}
	return &Issuer{cfg: cfg}
}

// Mint returns a random UUIDv4 credential (122 bits from crypto/rand)
func (i *Issuer) Mint() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// QRCode encodes content as a PNG with high error correction
func (i *Issuer) QRCode(content string, size int) ([]byte, error) {
	qr, err := qrcode.New(content, qrcode.High)
	if err != nil {
		return nil, err
	}

	buf := new(bytes.Buffer)
	if err := png.Encode(buf, qr.Image(size)); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// FileName is the attachment name of a ticket document
func (i *Issuer) FileName(in ArtifactInput) string {
	base := slug.Make(in.Event.Title)
	if base == "" {
		base = "ticket"
	}
	return fmt.Sprintf("%s-%s.pdf", base, strings.ToLower(in.BookingID.String()[:8]))
}

// RenderArtifact draws the printable ticket for an issued credential
func (i *Issuer) RenderArtifact(in ArtifactInput) (*Document, error) {
	if in.Credential == "" {
		return nil, ErrMissingCredential
	}

	qr, err := i.QRCode(in.Credential, QRSize)
	if err != nil {
		return nil, fmt.Errorf("failed to render QR code: %w", err)
	}

	pdf, err := i.renderPDF(in, qr)
	if err != nil {
		return nil, fmt.Errorf("failed to render ticket PDF: %w", err)
	}

	return &Document{
		FileName:    i.FileName(in),
		ContentType: "application/pdf",
		PDF:         pdf,
		QRCode:      qr,
	}, nil
}

// FormatDate renders the event start in the event's zone,
// e.g. "Friday, November 20, 2026 at 4:00 PM GMT+07:00"
func (i *Issuer) FormatDate(e EventDetails) string {
	loc := e.Location
	if loc == nil {
		loc = i.cfg.DefaultLocation
	}
	local := e.StartsAt.In(loc)
	return local.Format("Monday, January 2, 2006 at 3:04 PM") + " GMT" + local.Format("-07:00")
}

// locationLines lists where to attend, depending on the event format
func locationLines(e EventDetails) []string {
	var lines []string
	if e.Onsite {
		if e.VenueName != "" {
			lines = append(lines, "Venue: "+e.VenueName)
		}
		if e.Address != "" {
			lines = append(lines, "Location: "+e.Address)
		}
	}
	if e.Online {
		if e.Platform != "" {
			lines = append(lines, "Platform: "+e.Platform)
		}
		if e.PlatformURL != "" {
			lines = append(lines, "Access: "+e.PlatformURL)
		}
	}
	return lines
}
