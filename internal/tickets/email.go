package tickets

import (
	"bytes"
	"html/template"
)

// EmailSubject is the subject line of ticket confirmation mails
const EmailSubject = "TicketPoint - Your Ticket Order"

var confirmationTemplate = template.Must(template.New("confirmation").Parse(`<!DOCTYPE html>
<html>
  <body style="margin:0;padding:0;background:#f4f4f4;font-family:Arial,sans-serif;">
    <table width="100%" cellpadding="0" cellspacing="0" style="max-width:600px;margin:20px auto;background:#ffffff;border-radius:8px;">
      <tr>
        <td style="background:#4DABF5;color:#ffffff;padding:20px;text-align:center;border-radius:8px 8px 0 0;">
          <h1 style="margin:10px 0 0;font-size:24px;">Your Ticket Order Confirmation</h1>
        </td>
      </tr>
      <tr>
        <td style="padding:20px;">
          <p style="font-size:16px;color:#333333;">Hi {{.AttendeeName}},</p>
          <p style="font-size:16px;color:#333333;">Thank you for purchasing your ticket with TicketPoint! Below are the details of your order and instructions on how to use your ticket:</p>
          <p style="font-size:16px;color:#333333;"><strong>{{.Title}}</strong><br>{{.Date}}{{range .Location}}<br>{{.}}{{end}}</p>
          {{if .TierName}}<p style="font-size:14px;color:#333333;">Tier: {{.TierName}}</p>{{end}}
          {{if .BookingRef}}<p style="font-size:14px;color:#333333;">Booking reference: {{.BookingRef}}</p>{{end}}
          <p style="font-size:16px;color:#333333;font-weight:bold;">Instructions:</p>
          <ul style="font-size:14px;color:#333333;">
            <li>Your ticket QR code is attached to this email as a PDF file. You can download and save it for offline use.</li>
            <li>Present the QR code at the event entrance for scanning. Ensure your device screen brightness is set to maximum for easy scanning.</li>
            <li>If you prefer a printed copy, you can print the attached PDF and bring it to the event.</li>
            <li>Do not share your QR code with anyone. It is unique to your ticket and grants access to the event.</li>
          </ul>
          {{if .TicketURL}}<p style="font-size:14px;color:#333333;">You can also <a href="{{.TicketURL}}" style="color:#4DABF5;">download your ticket here</a>.</p>{{end}}
          <p style="font-size:14px;color:#666666;">If you have any questions or need assistance, please contact our support team at <a href="mailto:{{.SupportEmail}}" style="color:#4DABF5;">{{.SupportEmail}}</a>.</p>
        </td>
      </tr>
      <tr>
        <td style="background:#f4f4f4;padding:10px;text-align:center;font-size:12px;color:#999999;">
          <p style="margin:0;">{{.Footer}}</p>
        </td>
      </tr>
    </table>
  </body>
</html>`))

type emailData struct {
	AttendeeName string
	Title        string
	Date         string
	Location     []string
	TierName     string
	BookingRef   string
	TicketURL    string
	SupportEmail string
	Footer       string
}

// RenderEmail builds the HTML confirmation body. ticketURL is optional.
func (i *Issuer) RenderEmail(in ArtifactInput, ticketURL string) (string, error) {
	data := emailData{
		AttendeeName: in.AttendeeName,
		Title:        in.Event.Title,
		Date:         i.FormatDate(in.Event),
		Location:     locationLines(in.Event),
		TierName:     in.TierName,
		BookingRef:   in.BookingRef,
		TicketURL:    ticketURL,
		SupportEmail: i.cfg.SupportEmail,
		Footer:       i.cfg.FooterText,
	}

	var body bytes.Buffer
	if err := confirmationTemplate.Execute(&body, data); err != nil {
		return "", err
	}
	return body.String(), nil
}
