package notifications

import (
	"bytes"
	"html/template"
	"strings"
)

var confirmationTmpl = template.Must(template.New("payment_confirmation").Parse(`
<h1>Payment Successful for {{.ItemName}}</h1>
<p>Dear {{.To}},</p>
<p>Thank you for your purchase <b>{{.ItemName}}</b>.</p>
<p>Your payment of <b>${{.Amount}}</b>{{if .Currency}} {{.Currency}}{{end}} has been successfully processed.</p>
<p>If you have any questions, please contact us at <a href="mailto:{{.SupportEmail}}">{{.SupportEmail}}</a>.</p>
<p>Thank you for your purchase!</p>
`))

func confirmationSubject(in PaymentConfirmationInput) string {
	return "Payment Successful " + in.ItemName
}

func renderConfirmation(in PaymentConfirmationInput) (string, error) {
	if in.ItemName == "" {
		in.ItemName = "item"
	}
	in.Currency = strings.ToUpper(in.Currency)

	var buf bytes.Buffer
	if err := confirmationTmpl.Execute(&buf, in); err != nil {
		return "", err
	}
	return buf.String(), nil
}
