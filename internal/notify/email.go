package notify

import (
	"bytes"
	"fmt"
	"html/template"
)

var ticketCreatedTmpl = template.Must(template.New("ticket_created").Parse(`<div style="font-family:sans-serif">
<h2>Your ticket #{{.ID}} has been created</h2>
<p><strong>Category:</strong> {{.Category}}</p>
<p><strong>Subcategory:</strong> {{.Subcategory}}</p>
{{- if .Description}}
<p><strong>Description:</strong> {{.Description}}</p>
{{- end}}
<p>We will keep you updated on WhatsApp.</p>
<p>SST Resolve</p>
</div>`))

// TicketCreatedEmail renders the confirmation sent to the student.
func TicketCreatedEmail(id uint64, category, subcategory, description string) (subject, html string, err error) {
	var buf bytes.Buffer
	err = ticketCreatedTmpl.Execute(&buf, struct {
		ID                                 uint64
		Category, Subcategory, Description string
	}{id, category, subcategory, description})
	if err != nil {
		return "", "", err
	}
	return fmt.Sprintf("Ticket #%d Created - %s", id, category), buf.String(), nil
}
