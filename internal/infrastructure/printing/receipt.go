package printing

import (
	"bytes"
	"embed"
	"html/template"
	"time"

	"github.com/shopspring/decimal"
	"github.com/waterbill/backend/internal/domain/billing"
	"github.com/waterbill/backend/internal/domain/shared/valueobject"
	"github.com/waterbill/backend/internal/infrastructure/config"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

//go:embed templates/*.html
var templateFS embed.FS

// ReceiptData is everything printed on a receipt
type ReceiptData struct {
	Company     config.CompanyConfig
	Customer    *billing.Customer
	Bill        *billing.Bill
	Transaction *billing.Transaction
	PrintedAt   time.Time
}

// ReceiptRenderer renders receipts in one locale
type ReceiptRenderer struct {
	tmpl     *template.Template
	tag      language.Tag
	location *time.Location
}

// ReceiptOption configures a ReceiptRenderer
type ReceiptOption func(*ReceiptRenderer)

// WithLocation prints times in loc instead of UTC
func WithLocation(loc *time.Location) ReceiptOption {
	return func(r *ReceiptRenderer) {
		if loc != nil {
			r.location = loc
		}
	}
}

// NewReceiptRenderer parses the embedded receipt template. locale is a BCP 47
// tag; an unparsable tag falls back to English.
func NewReceiptRenderer(locale string, opts ...ReceiptOption) (*ReceiptRenderer, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	r := &ReceiptRenderer{tag: tag, location: time.UTC}
	for _, opt := range opts {
		opt(r)
	}

	tmpl, err := template.New("receipt.html").Funcs(r.funcs()).ParseFS(templateFS, "templates/receipt.html")
	if err != nil {
		return nil, NewRenderError(ErrCodeTemplateFailed, "failed to parse receipt template", err)
	}
	r.tmpl = tmpl
	return r, nil
}

// RenderHTML produces the receipt document for a paid bill
func (r *ReceiptRenderer) RenderHTML(data ReceiptData) ([]byte, error) {
	if data.Bill == nil || data.Transaction == nil || data.Customer == nil {
		return nil, NewRenderError(ErrCodeTemplateFailed, "receipt needs a bill, its transaction and the customer", nil)
	}
	if data.PrintedAt.IsZero() {
		data.PrintedAt = time.Now()
	}

	view := struct {
		ReceiptData
		Lang string
	}{data, r.tag.String()}

	tmpl, err := r.tmpl.Clone()
	if err != nil {
		return nil, NewRenderError(ErrCodeTemplateFailed, "failed to clone receipt template", err)
	}
	currency := data.Bill.Currency
	tmpl.Funcs(template.FuncMap{
		"money": func(d decimal.Decimal) string { return r.FormatAmount(d, currency) },
	})

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, view); err != nil {
		return nil, NewRenderError(ErrCodeTemplateFailed, "failed to execute receipt template", err)
	}
	return buf.Bytes(), nil
}

func (r *ReceiptRenderer) funcs() template.FuncMap {
	printer := message.NewPrinter(r.tag)
	return template.FuncMap{
		"money":    func(d decimal.Decimal) string { return d.String() },
		"number":   func(d decimal.Decimal) string { return formatNumber(printer, d) },
		"datetime": func(t time.Time) string { return t.In(r.location).Format("02 Jan 2006 15:04 MST") },
	}
}

// FormatAmount renders amount in currency with the renderer's locale conventions
func (r *ReceiptRenderer) FormatAmount(amount decimal.Decimal, currency string) string {
	m, err := valueobject.NewMoney(amount, valueobject.Currency(currency))
	if err != nil {
		return amount.String()
	}
	return m.Format(r.tag)
}

func formatNumber(p *message.Printer, d decimal.Decimal) string {
	places := -d.Exponent()
	if places < 0 {
		places = 0
	}
	f, _ := d.Float64()
	return p.Sprint(number.Decimal(f, number.Scale(int(places))))
}
