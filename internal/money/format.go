package money

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Formatter renders amounts with locale-aware digit grouping for dashboard
// display. Arithmetic never goes through the formatter.
type Formatter struct {
	printer  *message.Printer
	currency string
}

// NewFormatter builds a formatter for the given BCP 47 tag and currency code.
// Unknown tags fall back to English.
func NewFormatter(locale, currency string) *Formatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	return &Formatter{printer: message.NewPrinter(tag), currency: currency}
}

// Format renders an amount like "USD 1,234.50".
func (f *Formatter) Format(a Amount) string {
	return f.printer.Sprintf("%s %.2f", f.currency, a.Float64())
}
