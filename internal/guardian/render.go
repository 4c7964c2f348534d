package guardian

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/CodeArche/proofgate/internal/mail"
	"github.com/CodeArche/proofgate/internal/prooftoken"
)

var applicationTemplate = template.Must(template.New("application").Parse(`
<h2>Guardian Application (Payment Verified)</h2>
<p><b>Name:</b> {{.Name}}</p>
<p><b>Email:</b> {{.Email}}</p>
<p><b>Vision:</b><br/>{{.Vision}}</p>
<hr/>
<p><b>Payment Proof</b></p>
<p>paymentId: {{.PaymentID}}</p>
<p>txid: {{.TxID}}</p>
`))

type applicationView struct {
	Name      string
	Email     string
	Vision    template.HTML
	PaymentID string
	TxID      string
}

// renderApplication builds the notification email. Payment identifiers come
// from the verified claims only.
func renderApplication(brand string, app Application, claims *prooftoken.Claims) (mail.Message, error) {
	view := applicationView{
		Name:      app.Name,
		Email:     app.Email,
		Vision:    visionHTML(app.Vision),
		PaymentID: claims.PaymentID,
		TxID:      claims.TxID,
	}

	var buf bytes.Buffer
	if err := applicationTemplate.Execute(&buf, view); err != nil {
		return mail.Message{}, fmt.Errorf("render application: %w", err)
	}

	return mail.Message{
		Subject: fmt.Sprintf("[%s] Guardian Application — %s", brand, app.Name),
		HTML:    buf.String(),
	}, nil
}

// visionHTML escapes free text and keeps its line breaks.
func visionHTML(vision string) template.HTML {
	normalized := strings.ReplaceAll(vision, "\r\n", "\n")
	escaped := template.HTMLEscapeString(normalized)
	return template.HTML(strings.ReplaceAll(escaped, "\n", "<br/>"))
}
