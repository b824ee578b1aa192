package botapi

import (
	"encoding/json"
	"math"
	"strconv"
)

// Invoice payload size limits, in bytes.
const (
	minInvoicePayloadBytes = 1
	maxInvoicePayloadBytes = 128
)

// StarsCurrency is the currency of payments in Telegram Stars. Invoices in
// this currency are sent without a provider token.
const StarsCurrency = "XTR"

// LabeledPrice is a portion of the price for goods or services.
type LabeledPrice struct {
	Label string `json:"label"`
	// Amount is in the smallest units of the currency. Negative amounts are
	// allowed for discounts.
	Amount int `json:"amount"`
}

// ShippingAddress is a shipping address.
type ShippingAddress struct {
	CountryCode string `json:"country_code"`
	State       string `json:"state,omitempty"`
	City        string `json:"city"`
	StreetLine1 string `json:"street_line1"`
	StreetLine2 string `json:"street_line2,omitempty"`
	PostCode    string `json:"post_code"`
}

// OrderInfo is information about an order.
type OrderInfo struct {
	Name            string           `json:"name,omitempty"`
	PhoneNumber     string           `json:"phone_number,omitempty"`
	Email           string           `json:"email,omitempty"`
	ShippingAddress *ShippingAddress `json:"shipping_address,omitempty"`
}

// ShippingOption is one shipping option offered to the user.
type ShippingOption struct {
	ID     string         `json:"id"`
	Title  string         `json:"title"`
	Prices []LabeledPrice `json:"prices"`
}

// SuccessfulPayment is basic information about a successful payment.
type SuccessfulPayment struct {
	Currency                string     `json:"currency"`
	TotalAmount             int        `json:"total_amount"`
	InvoicePayload          string     `json:"invoice_payload"`
	ShippingOptionID        string     `json:"shipping_option_id,omitempty"`
	OrderInfo               *OrderInfo `json:"order_info,omitempty"`
	TelegramPaymentChargeID string     `json:"telegram_payment_charge_id"`
	ProviderPaymentChargeID string     `json:"provider_payment_charge_id"`
}

// ShippingQuery is an incoming shipping query, sent for flexible invoices.
type ShippingQuery struct {
	ID              string          `json:"id"`
	From            User            `json:"from"`
	InvoicePayload  string          `json:"invoice_payload"`
	ShippingAddress ShippingAddress `json:"shipping_address"`
}

// PreCheckoutQuery is an incoming pre-checkout query.
type PreCheckoutQuery struct {
	ID               string     `json:"id"`
	From             User       `json:"from"`
	Currency         string     `json:"currency"`
	TotalAmount      int        `json:"total_amount"`
	InvoicePayload   string     `json:"invoice_payload"`
	ShippingOptionID string     `json:"shipping_option_id,omitempty"`
	OrderInfo        *OrderInfo `json:"order_info,omitempty"`
}

func validatePrices(typ string, prices []LabeledPrice) (int, error) {
	if len(prices) == 0 {
		return 0, invalid(typ, "prices", "At least one price should be provided")
	}
	total := 0
	for i, p := range prices {
		if p.Label == "" {
			return 0, invalid(typ, "prices", "Price %d should have a label", i)
		}
		if err := checkUTF8(typ, "prices", p.Label); err != nil {
			return 0, err
		}
		if (p.Amount > 0 && total > math.MaxInt-p.Amount) || (p.Amount < 0 && total < math.MinInt-p.Amount) {
			return 0, invalid(typ, "prices", "Total amount is out of range at price %d", i)
		}
		total += p.Amount
	}
	if total < 0 {
		return 0, invalid(typ, "prices", "Total amount should be greater than or equal to zero, but got: %d", total)
	}
	return total, nil
}

// SendInvoiceParams holds the fields of a sendInvoice request.
type SendInvoiceParams struct {
	ChatID      string
	Title       string
	Description string
	// Payload is the bot-defined invoice payload, 1-128 bytes, not shown to
	// the user.
	Payload string
	// ProviderToken may be empty only for StarsCurrency.
	ProviderToken  string
	Currency       string
	Prices         []LabeledPrice
	StartParameter Optional[string]
	PhotoURL       Optional[string]

	NeedName            Optional[bool]
	NeedPhoneNumber     Optional[bool]
	NeedEmail           Optional[bool]
	NeedShippingAddress Optional[bool]
	IsFlexible          Optional[bool]

	// ReplyMarkup, when set, must start with a Pay button.
	ReplyMarkup *InlineKeyboardMarkup
}

// SendInvoicePayload is the request body of sendInvoice.
type SendInvoicePayload struct {
	w     sendInvoiceWire
	total int
}

var _ Payload = (*SendInvoicePayload)(nil)

type sendInvoiceWire struct {
	ChatID              chatRef          `json:"chat_id"`
	Title               string           `json:"title"`
	Description         string           `json:"description"`
	Payload             string           `json:"payload"`
	ProviderToken       Optional[string] `json:"provider_token,omitzero"`
	StartParameter      Optional[string] `json:"start_parameter,omitzero"`
	Currency            string           `json:"currency"`
	Prices              []LabeledPrice   `json:"prices"`
	PhotoURL            Optional[string] `json:"photo_url,omitzero"`
	NeedName            Optional[bool]   `json:"need_name,omitzero"`
	NeedPhoneNumber     Optional[bool]   `json:"need_phone_number,omitzero"`
	NeedEmail           Optional[bool]   `json:"need_email,omitzero"`
	NeedShippingAddress Optional[bool]   `json:"need_shipping_address,omitzero"`
	IsFlexible          Optional[bool]   `json:"is_flexible,omitzero"`
	ReplyMarkup         Optional[string] `json:"reply_markup,omitzero"`
}

// NewSendInvoice validates and returns a sendInvoice payload.
func NewSendInvoice(p SendInvoiceParams) (*SendInvoicePayload, error) {
	const typ = "SendInvoicePayload"
	if p.ChatID == "" {
		return nil, invalid(typ, "chat_id", "Chat ID should be provided")
	}
	if p.Title == "" {
		return nil, invalid(typ, "title", "Missing product name.")
	}
	if p.Description == "" {
		return nil, invalid(typ, "description", "Missing product description.")
	}
	if n := len(p.Payload); n < minInvoicePayloadBytes || n > maxInvoicePayloadBytes {
		return nil, invalid(typ, "payload", "Invoice payload should be %d-%d bytes, but got: %d", minInvoicePayloadBytes, maxInvoicePayloadBytes, n)
	}
	if err := checkUTF8Fields(typ,
		stringField{"chat_id", p.ChatID},
		stringField{"title", p.Title},
		stringField{"description", p.Description},
		stringField{"payload", p.Payload},
		stringField{"provider_token", p.ProviderToken},
		stringField{"start_parameter", p.StartParameter.OrElse("")},
		stringField{"photo_url", p.PhotoURL.OrElse("")},
	); err != nil {
		return nil, err
	}
	if err := validateCurrency(typ, p.Currency); err != nil {
		return nil, err
	}
	if p.ProviderToken == "" && p.Currency != StarsCurrency {
		return nil, invalid(typ, "provider_token", "Provider token should be provided for currency %s", p.Currency)
	}
	total, err := validatePrices(typ, p.Prices)
	if err != nil {
		return nil, err
	}

	var markup Optional[string]
	if p.ReplyMarkup != nil {
		if err := p.ReplyMarkup.Validate(); err != nil {
			return nil, err
		}
		if !p.ReplyMarkup.startsWithPay() {
			return nil, invalid(typ, "reply_markup", "The first button of an invoice keyboard should be a Pay button")
		}
		markup, err = markupSnapshot(typ, p.ReplyMarkup)
		if err != nil {
			return nil, err
		}
	}

	return &SendInvoicePayload{
		total: total,
		w: sendInvoiceWire{
			ChatID:              chatRef(p.ChatID),
			Title:               p.Title,
			Description:         p.Description,
			Payload:             p.Payload,
			ProviderToken:       optionalString(p.ProviderToken),
			StartParameter:      p.StartParameter,
			Currency:            p.Currency,
			Prices:              append([]LabeledPrice(nil), p.Prices...),
			PhotoURL:            p.PhotoURL,
			NeedName:            p.NeedName,
			NeedPhoneNumber:     p.NeedPhoneNumber,
			NeedEmail:           p.NeedEmail,
			NeedShippingAddress: p.NeedShippingAddress,
			IsFlexible:          p.IsFlexible,
			ReplyMarkup:         markup,
		},
	}, nil
}

// NewSendInvoiceInt is NewSendInvoice with a numeric chat id.
func NewSendInvoiceInt(chatID int64, p SendInvoiceParams) (*SendInvoicePayload, error) {
	p.ChatID = strconv.FormatInt(chatID, 10)
	return NewSendInvoice(p)
}

// Method implements Payload.
func (p *SendInvoicePayload) Method() string { return "sendInvoice" }

// ChatID returns the target chat.
func (p *SendInvoicePayload) ChatID() string { return string(p.w.ChatID) }

// Title returns the product name.
func (p *SendInvoicePayload) Title() string { return p.w.Title }

// Currency returns the three-letter currency code.
func (p *SendInvoicePayload) Currency() string { return p.w.Currency }

// Prices returns a copy of the price breakdown.
func (p *SendInvoicePayload) Prices() []LabeledPrice {
	return append([]LabeledPrice(nil), p.w.Prices...)
}

// TotalAmount returns the sum of all prices.
func (p *SendInvoicePayload) TotalAmount() int { return p.total }

// ProviderToken returns the payment provider token, absent for Stars invoices.
func (p *SendInvoicePayload) ProviderToken() Optional[string] { return p.w.ProviderToken }

// Invoice returns the invoice the user will see for this request.
func (p *SendInvoicePayload) Invoice() *Invoice {
	inv := &Invoice{
		title:          p.w.Title,
		description:    Some(p.w.Description),
		startParameter: p.w.StartParameter,
		currency:       p.w.Currency,
		totalAmount:    p.total,
	}
	return inv
}

// MarshalJSON implements json.Marshaler.
func (p *SendInvoicePayload) MarshalJSON() ([]byte, error) {
	return encodeJSON(p.w)
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *SendInvoicePayload) UnmarshalJSON(data []byte) error {
	var w sendInvoiceWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	params := SendInvoiceParams{
		ChatID:              string(w.ChatID),
		Title:               w.Title,
		Description:         w.Description,
		Payload:             w.Payload,
		ProviderToken:       w.ProviderToken.OrElse(""),
		Currency:            w.Currency,
		Prices:              w.Prices,
		StartParameter:      w.StartParameter,
		PhotoURL:            w.PhotoURL,
		NeedName:            w.NeedName,
		NeedPhoneNumber:     w.NeedPhoneNumber,
		NeedEmail:           w.NeedEmail,
		NeedShippingAddress: w.NeedShippingAddress,
		IsFlexible:          w.IsFlexible,
	}
	if s, ok := w.ReplyMarkup.Get(); ok {
		m, err := DecodeReplyMarkup(s)
		if err != nil {
			return err
		}
		inline, ok := m.(*InlineKeyboardMarkup)
		if !ok {
			return invalid("SendInvoicePayload", "reply_markup", "Invoice markup should be an inline keyboard, but got: %T", m)
		}
		params.ReplyMarkup = inline
	}
	decoded, err := NewSendInvoice(params)
	if err != nil {
		return err
	}
	*p = *decoded
	return nil
}

// AnswerPreCheckoutQueryPayload is the request body of answerPreCheckoutQuery.
type AnswerPreCheckoutQueryPayload struct {
	w answerQueryWire
}

var _ Payload = (*AnswerPreCheckoutQueryPayload)(nil)

type answerQueryWire struct {
	QueryID         string           `json:"-"`
	OK              bool             `json:"ok"`
	ShippingOptions []ShippingOption `json:"shipping_options,omitempty"`
	ErrorMessage    Optional[string] `json:"error_message,omitzero"`
}

type preCheckoutWire struct {
	PreCheckoutQueryID string `json:"pre_checkout_query_id"`
	answerQueryWire
}

// NewAnswerPreCheckoutQuery confirms that the order can proceed.
func NewAnswerPreCheckoutQuery(queryID string) (*AnswerPreCheckoutQueryPayload, error) {
	if queryID == "" {
		return nil, invalid("AnswerPreCheckoutQueryPayload", "pre_checkout_query_id", "Pre-checkout query ID should be provided")
	}
	if err := checkUTF8("AnswerPreCheckoutQueryPayload", "pre_checkout_query_id", queryID); err != nil {
		return nil, err
	}
	return &AnswerPreCheckoutQueryPayload{w: answerQueryWire{QueryID: queryID, OK: true}}, nil
}

// NewRejectPreCheckoutQuery rejects the order with a message for the user.
func NewRejectPreCheckoutQuery(queryID, errorMessage string) (*AnswerPreCheckoutQueryPayload, error) {
	if queryID == "" {
		return nil, invalid("AnswerPreCheckoutQueryPayload", "pre_checkout_query_id", "Pre-checkout query ID should be provided")
	}
	if errorMessage == "" {
		return nil, invalid("AnswerPreCheckoutQueryPayload", "error_message", "Error message should be provided when ok is false")
	}
	if err := checkUTF8Fields("AnswerPreCheckoutQueryPayload",
		stringField{"pre_checkout_query_id", queryID},
		stringField{"error_message", errorMessage},
	); err != nil {
		return nil, err
	}
	return &AnswerPreCheckoutQueryPayload{w: answerQueryWire{
		QueryID:      queryID,
		ErrorMessage: Some(errorMessage),
	}}, nil
}

// Method implements Payload.
func (p *AnswerPreCheckoutQueryPayload) Method() string { return "answerPreCheckoutQuery" }

// QueryID returns the id of the query being answered.
func (p *AnswerPreCheckoutQueryPayload) QueryID() string { return p.w.QueryID }

// OK reports whether the order is confirmed.
func (p *AnswerPreCheckoutQueryPayload) OK() bool { return p.w.OK }

// ErrorMessage returns the rejection reason.
func (p *AnswerPreCheckoutQueryPayload) ErrorMessage() Optional[string] { return p.w.ErrorMessage }

// MarshalJSON implements json.Marshaler.
func (p *AnswerPreCheckoutQueryPayload) MarshalJSON() ([]byte, error) {
	return encodeJSON(preCheckoutWire{PreCheckoutQueryID: p.w.QueryID, answerQueryWire: p.w})
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *AnswerPreCheckoutQueryPayload) UnmarshalJSON(data []byte) error {
	var w preCheckoutWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	var (
		decoded *AnswerPreCheckoutQueryPayload
		err     error
	)
	if w.OK {
		decoded, err = NewAnswerPreCheckoutQuery(w.PreCheckoutQueryID)
	} else {
		decoded, err = NewRejectPreCheckoutQuery(w.PreCheckoutQueryID, w.ErrorMessage.OrElse(""))
	}
	if err != nil {
		return err
	}
	*p = *decoded
	return nil
}

// AnswerShippingQueryPayload is the request body of answerShippingQuery.
type AnswerShippingQueryPayload struct {
	w answerQueryWire
}

var _ Payload = (*AnswerShippingQueryPayload)(nil)

type shippingWire struct {
	ShippingQueryID string `json:"shipping_query_id"`
	answerQueryWire
}

// NewAnswerShippingQuery offers the given shipping options.
func NewAnswerShippingQuery(queryID string, options []ShippingOption) (*AnswerShippingQueryPayload, error) {
	const typ = "AnswerShippingQueryPayload"
	if queryID == "" {
		return nil, invalid(typ, "shipping_query_id", "Shipping query ID should be provided")
	}
	if err := checkUTF8(typ, "shipping_query_id", queryID); err != nil {
		return nil, err
	}
	if len(options) == 0 {
		return nil, invalid(typ, "shipping_options", "At least one shipping option should be provided when ok is true")
	}
	opts := make([]ShippingOption, len(options))
	for i, o := range options {
		if o.ID == "" {
			return nil, invalid(typ, "shipping_options", "Shipping option %d should have an ID", i)
		}
		if o.Title == "" {
			return nil, invalid(typ, "shipping_options", "Shipping option %q should have a title", o.ID)
		}
		if err := checkUTF8Fields(typ, stringField{"shipping_options", o.ID}, stringField{"shipping_options", o.Title}); err != nil {
			return nil, err
		}
		if _, err := validatePrices(typ, o.Prices); err != nil {
			return nil, err
		}
		opts[i] = ShippingOption{ID: o.ID, Title: o.Title, Prices: append([]LabeledPrice(nil), o.Prices...)}
	}
	return &AnswerShippingQueryPayload{w: answerQueryWire{QueryID: queryID, OK: true, ShippingOptions: opts}}, nil
}

// NewRejectShippingQuery reports that delivery to the address is impossible.
func NewRejectShippingQuery(queryID, errorMessage string) (*AnswerShippingQueryPayload, error) {
	const typ = "AnswerShippingQueryPayload"
	if queryID == "" {
		return nil, invalid(typ, "shipping_query_id", "Shipping query ID should be provided")
	}
	if errorMessage == "" {
		return nil, invalid(typ, "error_message", "Error message should be provided when ok is false")
	}
	if err := checkUTF8Fields(typ, stringField{"shipping_query_id", queryID}, stringField{"error_message", errorMessage}); err != nil {
		return nil, err
	}
	return &AnswerShippingQueryPayload{w: answerQueryWire{QueryID: queryID, ErrorMessage: Some(errorMessage)}}, nil
}

// Method implements Payload.
func (p *AnswerShippingQueryPayload) Method() string { return "answerShippingQuery" }

// QueryID returns the id of the query being answered.
func (p *AnswerShippingQueryPayload) QueryID() string { return p.w.QueryID }

// OK reports whether delivery is possible.
func (p *AnswerShippingQueryPayload) OK() bool { return p.w.OK }

// ShippingOptions returns a copy of the offered options.
func (p *AnswerShippingQueryPayload) ShippingOptions() []ShippingOption {
	return append([]ShippingOption(nil), p.w.ShippingOptions...)
}

// MarshalJSON implements json.Marshaler.
func (p *AnswerShippingQueryPayload) MarshalJSON() ([]byte, error) {
	return encodeJSON(shippingWire{ShippingQueryID: p.w.QueryID, answerQueryWire: p.w})
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *AnswerShippingQueryPayload) UnmarshalJSON(data []byte) error {
	var w shippingWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	var (
		decoded *AnswerShippingQueryPayload
		err     error
	)
	if w.OK {
		decoded, err = NewAnswerShippingQuery(w.ShippingQueryID, w.ShippingOptions)
	} else {
		decoded, err = NewRejectShippingQuery(w.ShippingQueryID, w.ErrorMessage.OrElse(""))
	}
	if err != nil {
		return err
	}
	*p = *decoded
	return nil
}
