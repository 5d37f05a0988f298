package orders

import (
	"bytes"
	"fmt"
	"html/template"
)

const unknownCustomer = "Unknown"

// DownloadLink is one resolvable digital photo in the customer email.
type DownloadLink struct {
	Label    string
	URL      string
	Filename string
}

type adminEmailData struct {
	OrderNumber string
	Customer    string
	Total       string
	Items       []OrderItem
}

type customerEmailData struct {
	OrderNumber string
	Total       string
	PickupNote  string
	HasDigital  bool
	Attached    bool
	Downloads   []DownloadLink
}

var adminEmailTmpl = template.Must(template.New("admin").Parse(`
<h2>New Order: {{.OrderNumber}}</h2>
<p><strong>Customer:</strong> {{.Customer}}</p>
<p><strong>Order Total:</strong> €{{.Total}}</p>
<table border="1" cellpadding="5" style="border-collapse: collapse;">
  <tr>
    <th>Photo</th>
    <th>Type</th>
    <th>Quantity</th>
    <th>Price</th>
  </tr>
  {{- range .Items}}
  <tr>
    <td>{{.Name}}</td>
    <td>{{.Kind.Label}}</td>
    <td>{{.Quantity}}</td>
    <td>€{{.Price}}</td>
  </tr>
  {{- end}}
</table>
`))

var customerEmailTmpl = template.Must(template.New("customer").Parse(`
<h2>Thank you for your order!</h2>
<p><strong>Order Number:</strong> {{.OrderNumber}}</p>
<p><strong>Order Total:</strong> €{{.Total}}</p>
{{- if .PickupNote}}
<p>{{.PickupNote}}</p>
{{- end}}
{{- if .HasDigital}}
<h3>Your Digital Photos</h3>
{{- if .Attached}}
<p>Your digital photos are attached to this email. You can also download them using the links below:</p>
{{- else}}
<p>Click the links below to download your digital photos:</p>
{{- end}}
<div style="margin: 20px 0; padding: 15px; border: 1px solid #ddd; border-radius: 5px; background-color: #f9f9f9;">
  {{- range .Downloads}}
  <div style="margin-bottom: 15px; padding-bottom: 15px; border-bottom: 1px solid #eee;">
    <p style="font-weight: bold; margin-bottom: 5px;">{{.Label}}</p>
    <a href="{{.URL}}" download="{{.Filename}}" style="display: inline-block; padding: 8px 15px; background-color: #0070f3; color: white; text-decoration: none; border-radius: 4px;">Download Photo</a>
  </div>
  {{- end}}
</div>
{{- end}}
<p>If you have any questions, please contact us.</p>
`))

// RenderAdminEmail lists every item with the customer's address and the total.
func RenderAdminEmail(orderNumber, customerEmail, total string, items []OrderItem) (string, error) {
	customer := customerEmail
	if customer == "" {
		customer = unknownCustomer
	}
	return render(adminEmailTmpl, adminEmailData{
		OrderNumber: orderNumber,
		Customer:    customer,
		Total:       total,
		Items:       items,
	})
}

// CustomerEmail holds what the buyer's confirmation shows.
type CustomerEmail struct {
	OrderNumber string
	Total       string
	// PickupNote is shown when at least one item is a print.
	PickupNote string
	Downloads  []DownloadLink
	Attached   bool
}

func RenderCustomerEmail(email CustomerEmail) (string, error) {
	return render(customerEmailTmpl, customerEmailData{
		OrderNumber: email.OrderNumber,
		Total:       email.Total,
		PickupNote:  email.PickupNote,
		HasDigital:  len(email.Downloads) > 0,
		Attached:    email.Attached,
		Downloads:   email.Downloads,
	})
}

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s email: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}
