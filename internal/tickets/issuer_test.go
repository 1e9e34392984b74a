package tickets

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jakarta(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)
	return loc
}

func sampleInput(t *testing.T) ArtifactInput {
	return ArtifactInput{
		BookingID:    uuid.MustParse("3f0c2a9e-8d4b-4c61-9a7e-1b2c3d4e5f60"),
		BookingRef:   "TP-20261120-ABCD2345",
		Credential:   "a1b2c3d4-e5f6-4a7b-8c9d-0e1f2a3b4c5d",
		AttendeeName: "Siti Rahma",
		TierName:     "VIP",
		Event: EventDetails{
			Title:     "Jakarta Tech Summit 2026",
			StartsAt:  time.Date(2026, 11, 20, 9, 0, 0, 0, time.UTC),
			Location:  jakarta(t),
			Onsite:    true,
			VenueName: "Jakarta Convention Center",
			Address:   "Jl. Gatot Subroto, Jakarta",
		},
	}
}

func TestMintProducesUniqueV4(t *testing.T) {
	issuer := NewIssuer(Config{})
	seen := make(map[string]struct{}, 1000)

	for i := 0; i < 1000; i++ {
		cred, err := issuer.Mint()
		require.NoError(t, err)

		id, err := uuid.Parse(cred)
		require.NoError(t, err)
		assert.Equal(t, uuid.Version(4), id.Version())
		assert.Equal(t, uuid.RFC4122, id.Variant())

		_, dup := seen[cred]
		require.False(t, dup, "credential minted twice")
		seen[cred] = struct{}{}
	}
}

func TestFormatDateUsesEventZone(t *testing.T) {
	issuer := NewIssuer(Config{DefaultLocation: time.UTC})

	got := issuer.FormatDate(sampleInput(t).Event)
	assert.Equal(t, "Friday, November 20, 2026 at 4:00 PM GMT+07:00", got)

	noZone := sampleInput(t).Event
	noZone.Location = nil
	assert.Equal(t, "Friday, November 20, 2026 at 9:00 AM GMT+00:00", issuer.FormatDate(noZone))
}

func TestRenderArtifact(t *testing.T) {
	issuer := NewIssuer(Config{DefaultLocation: jakarta(t)})
	in := sampleInput(t)

	doc, err := issuer.RenderArtifact(in)
	require.NoError(t, err)

	assert.Equal(t, "application/pdf", doc.ContentType)
	assert.Equal(t, "jakarta-tech-summit-2026-3f0c2a9e.pdf", doc.FileName)
	assert.True(t, bytes.HasPrefix(doc.PDF, []byte("%PDF-")))
	assert.True(t, bytes.HasPrefix(doc.QRCode, []byte("\x89PNG\r\n\x1a\n")))

	again, err := issuer.RenderArtifact(in)
	require.NoError(t, err)
	assert.Equal(t, doc.QRCode, again.QRCode, "re-rendering the same credential yields the same code")
	assert.Equal(t, doc.FileName, again.FileName)
}

func TestRenderArtifactOnlineEvent(t *testing.T) {
	issuer := NewIssuer(Config{})
	in := sampleInput(t)
	in.Event.Onsite = false
	in.Event.Online = true
	in.Event.Platform = "Zoom"
	in.Event.PlatformURL = "https://zoom.us/j/123"

	assert.Equal(t, []string{"Platform: Zoom", "Access: https://zoom.us/j/123"}, locationLines(in.Event))

	doc, err := issuer.RenderArtifact(in)
	require.NoError(t, err)
	assert.NotEmpty(t, doc.PDF)
}

func TestRenderArtifactRequiresCredential(t *testing.T) {
	issuer := NewIssuer(Config{})
	in := sampleInput(t)
	in.Credential = ""

	_, err := issuer.RenderArtifact(in)
	assert.ErrorIs(t, err, ErrMissingCredential)
}

func TestRenderEmail(t *testing.T) {
	issuer := NewIssuer(Config{SupportEmail: "help@ticketpoint.id"})
	in := sampleInput(t)
	in.AttendeeName = "<script>alert(1)</script>"

	body, err := issuer.RenderEmail(in, "https://cdn.example.com/t.pdf")
	require.NoError(t, err)

	assert.Contains(t, body, "Jakarta Tech Summit 2026")
	assert.Contains(t, body, "Venue: Jakarta Convention Center")
	assert.Contains(t, body, "TP-20261120-ABCD2345")
	assert.Contains(t, body, "https://cdn.example.com/t.pdf")
	assert.Contains(t, body, "help@ticketpoint.id")
	assert.NotContains(t, body, "<script>", "attendee input is escaped")
}
