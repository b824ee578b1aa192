package botapi

import (
	"encoding/json"
	"regexp"
)

// currencyPattern matches the shape of an ISO 4217 alphabetic code.
var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

// Invoice contains basic information about an invoice.
type Invoice struct {
	title          string
	description    Optional[string]
	startParameter Optional[string]
	currency       string
	totalAmount    int
}

// InvoiceOption sets an optional Invoice field.
type InvoiceOption func(*Invoice)

// WithDescription sets the product description.
func WithDescription(description string) InvoiceOption {
	return func(i *Invoice) { i.description = Some(description) }
}

// WithStartParameter sets the deep-linking parameter that generated the invoice.
func WithStartParameter(param string) InvoiceOption {
	return func(i *Invoice) { i.startParameter = Some(param) }
}

// NewInvoice validates and returns an Invoice. totalAmount is expressed in
// the smallest units of currency: for US$ 1.45 pass 145.
func NewInvoice(title, currency string, totalAmount int, opts ...InvoiceOption) (*Invoice, error) {
	if title == "" {
		return nil, invalid("Invoice", "title", "Missing product name.")
	}
	if err := validateCurrency("Invoice", currency); err != nil {
		return nil, err
	}
	if totalAmount < 0 {
		return nil, invalid("Invoice", "total_amount", "Total amount should be greater than or equal to zero, but got: %d", totalAmount)
	}

	inv := &Invoice{
		title:       title,
		currency:    currency,
		totalAmount: totalAmount,
	}
	for _, opt := range opts {
		opt(inv)
	}
	if err := checkUTF8Fields("Invoice",
		stringField{"title", inv.title},
		stringField{"description", inv.description.OrElse("")},
		stringField{"start_parameter", inv.startParameter.OrElse("")},
	); err != nil {
		return nil, err
	}
	return inv, nil
}

func validateCurrency(typ, currency string) error {
	if currency == "" {
		return invalid(typ, "currency", "Missing currency.")
	}
	if !currencyPattern.MatchString(currency) {
		return invalid(typ, "currency", "Currency should be a three-letter ISO 4217 code, but got: %q", currency)
	}
	return nil
}

// Title returns the product name.
func (i *Invoice) Title() string { return i.title }

// Description returns the product description.
func (i *Invoice) Description() Optional[string] { return i.description }

// StartParameter returns the deep-linking parameter.
func (i *Invoice) StartParameter() Optional[string] { return i.startParameter }

// Currency returns the three-letter ISO 4217 currency code.
func (i *Invoice) Currency() string { return i.currency }

// TotalAmount returns the total price in the smallest units of the currency.
func (i *Invoice) TotalAmount() int { return i.totalAmount }

// Equal reports whether both invoices hold the same field values.
func (i *Invoice) Equal(other *Invoice) bool {
	if i == nil || other == nil {
		return i == other
	}
	return *i == *other
}

type invoiceWire struct {
	Title          string           `json:"title"`
	Description    Optional[string] `json:"description,omitzero"`
	StartParameter Optional[string] `json:"start_parameter,omitzero"`
	Currency       string           `json:"currency"`
	TotalAmount    int              `json:"total_amount"`
}

// MarshalJSON implements json.Marshaler.
func (i *Invoice) MarshalJSON() ([]byte, error) {
	return encodeJSON(invoiceWire{
		Title:          i.title,
		Description:    i.description,
		StartParameter: i.startParameter,
		Currency:       i.currency,
		TotalAmount:    i.totalAmount,
	})
}

// UnmarshalJSON implements json.Unmarshaler. Unknown keys are ignored.
func (i *Invoice) UnmarshalJSON(data []byte) error {
	var w invoiceWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	var opts []InvoiceOption
	if d, ok := w.Description.Get(); ok {
		opts = append(opts, WithDescription(d))
	}
	if s, ok := w.StartParameter.Get(); ok {
		opts = append(opts, WithStartParameter(s))
	}
	decoded, err := NewInvoice(w.Title, w.Currency, w.TotalAmount, opts...)
	if err != nil {
		return err
	}
	*i = *decoded
	return nil
}

// String returns the JSON projection of the invoice, or "<nil>".
func (i *Invoice) String() string {
	if i == nil {
		return "<nil>"
	}
	data, err := i.MarshalJSON()
	if err != nil {
		return "Invoice{" + i.title + "}"
	}
	return string(data)
}
