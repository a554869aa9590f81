package email

import (
	"bytes"
	"fmt"
	"html/template"
)

// BillNotice holds the fields rendered into the bill notification mail.
type BillNotice struct {
	CustomerName  string
	Utility       string
	MeterSerial   string
	BillingPeriod string
	TotalAmount   string
	DueDate       string
}

var billNoticeTmpl = template.Must(template.New("bill_notice").Parse(`<html>
<body style="font-family: sans-serif;">
<p>Dear {{.CustomerName}},</p>
<p>Your {{.Utility}} bill for meter {{.MeterSerial}} is ready.</p>
<table cellpadding="4">
  <tr><td>Billing period</td><td>{{.BillingPeriod}}</td></tr>
  <tr><td>Amount due</td><td><strong>{{.TotalAmount}}</strong></td></tr>
  <tr><td>Due date</td><td>{{.DueDate}}</td></tr>
</table>
<p>Please pay on or before the due date to avoid service interruption.</p>
</body>
</html>`))

// RenderBillNotice builds the subject and HTML body for a bill notification.
func RenderBillNotice(n BillNotice) (subject string, body string, err error) {
	var buf bytes.Buffer
	if err := billNoticeTmpl.Execute(&buf, n); err != nil {
		return "", "", fmt.Errorf("render bill notice: %w", err)
	}
	subject = fmt.Sprintf("Your %s bill is ready (due %s)", n.Utility, n.DueDate)
	return subject, buf.String(), nil
}
