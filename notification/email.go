package notification

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html/template"

	"ticketing/event"
)

const confirmationTemplate = `<html><body>
<h1>Your ticket for {{.EventTitle}}</h1>
<p>Hi, thanks for your {{if .Paid}}order{{else}}registration{{end}}! Here are the details:</p>
<ul>
<li>Event: {{.EventTitle}}</li>
{{if .EventDate}}<li>Date: {{.EventDate}}{{if .EventTime}} at {{.EventTime}}{{end}}</li>{{end}}
{{if .EventLocation}}<li>Location: {{.EventLocation}}</li>{{end}}
{{if .TicketTypeName}}<li>Ticket: {{.TicketTypeName}}</li>{{end}}
<li>Quantity: {{.Quantity}}</li>
{{if .Paid}}<li>Paid: {{.Price.Amount}} {{.Price.Currency}}</li>{{end}}
</ul>
<p>Show this code at the door:</p>
<img src="data:image/png;base64,{{.QRCode}}" alt="ticket verification code" width="256" height="256"/>
<p>Ticket reference: {{.TicketID}}</p>
</body></html>`

// Composer renders confirmation emails with an embedded scannable
// verification code.
type Composer struct {
	baseURL string
	tmpl    *template.Template
}

func NewComposer(verificationBaseURL string) Composer {
	return Composer{
		baseURL: verificationBaseURL,
		tmpl:    template.Must(template.New("confirmation").Parse(confirmationTemplate)),
	}
}

func (c Composer) Render(e event.TicketIssued) (string, string, error) {
	payload := NewVerificationPayload(c.baseURL, e.TicketID, e.EventID, e.UserID)
	png, err := payload.QRCodePNG()
	if err != nil {
		return "", "", fmt.Errorf("generating verification code: %w", err)
	}

	data := struct {
		event.TicketIssued
		Paid   bool
		QRCode string
	}{
		TicketIssued: e,
		Paid:         e.Price.Amount != "" && e.Price.Amount != "0.00",
		QRCode:       base64.StdEncoding.EncodeToString(png),
	}

	var body bytes.Buffer
	if err := c.tmpl.Execute(&body, data); err != nil {
		return "", "", fmt.Errorf("rendering confirmation email: %w", err)
	}

	subject := fmt.Sprintf("Your ticket for %s", e.EventTitle)

	return subject, body.String(), nil
}
