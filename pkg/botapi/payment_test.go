package botapi

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func validInvoiceParams() SendInvoiceParams {
	return SendInvoiceParams{
		ChatID:        "42",
		Title:         "Coffee",
		Description:   "Freshly roasted beans",
		Payload:       "order-1001",
		ProviderToken: "284685063:TEST:NjM3ZjA0YjE4NzRm",
		Currency:      "USD",
		Prices: []LabeledPrice{
			{Label: "Beans", Amount: 1200},
			{Label: "Discount", Amount: -200},
		},
	}
}

func TestNewSendInvoice(t *testing.T) {
	t.Parallel()

	p, err := NewSendInvoice(validInvoiceParams())
	if err != nil {
		t.Fatalf("NewSendInvoice() error: %v", err)
	}
	if p.TotalAmount() != 1000 {
		t.Errorf("TotalAmount = %d, want 1000", p.TotalAmount())
	}
	if p.Method() != "sendInvoice" {
		t.Errorf("Method = %q, want %q", p.Method(), "sendInvoice")
	}

	inv := p.Invoice()
	if inv.Title() != "Coffee" || inv.TotalAmount() != 1000 {
		t.Errorf("Invoice() = %s, want title Coffee and total 1000", inv)
	}

	data, err := Marshal(p)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	got := decodeKeys(t, data)
	for _, key := range []string{"start_parameter", "photo_url", "need_name", "is_flexible", "reply_markup"} {
		if _, ok := got[key]; ok {
			t.Errorf("key %q should be omitted, got %s", key, data)
		}
	}
	if got["provider_token"] != "284685063:TEST:NjM3ZjA0YjE4NzRm" {
		t.Errorf("provider_token = %v", got["provider_token"])
	}
}

func TestNewSendInvoice_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(p *SendInvoiceParams)
		field  string
	}{
		{"missing chat", func(p *SendInvoiceParams) { p.ChatID = "" }, "chat_id"},
		{"missing title", func(p *SendInvoiceParams) { p.Title = "" }, "title"},
		{"missing description", func(p *SendInvoiceParams) { p.Description = "" }, "description"},
		{"empty payload", func(p *SendInvoiceParams) { p.Payload = "" }, "payload"},
		{"payload too long", func(p *SendInvoiceParams) { p.Payload = strings.Repeat("p", 129) }, "payload"},
		{"bad currency", func(p *SendInvoiceParams) { p.Currency = "usd" }, "currency"},
		{"invalid UTF-8 description", func(p *SendInvoiceParams) { p.Description = "Hot\xff" }, "description"},
		{"invalid UTF-8 label", func(p *SendInvoiceParams) { p.Prices = []LabeledPrice{{Label: "\xc3", Amount: 1}} }, "prices"},
		{"missing provider token", func(p *SendInvoiceParams) { p.ProviderToken = "" }, "provider_token"},
		{"no prices", func(p *SendInvoiceParams) { p.Prices = nil }, "prices"},
		{"unlabeled price", func(p *SendInvoiceParams) { p.Prices = []LabeledPrice{{Amount: 1}} }, "prices"},
		{"negative total", func(p *SendInvoiceParams) { p.Prices = []LabeledPrice{{Label: "x", Amount: -1}} }, "prices"},
		{"total underflows", func(p *SendInvoiceParams) {
			p.Prices = []LabeledPrice{{Label: "x", Amount: math.MinInt}, {Label: "y", Amount: -1}}
		}, "prices"},
		{"total overflows", func(p *SendInvoiceParams) {
			p.Prices = []LabeledPrice{{Label: "x", Amount: math.MaxInt}, {Label: "y", Amount: 1}}
		}, "prices"},
		{
			name: "markup without pay button",
			mutate: func(p *SendInvoiceParams) {
				p.ReplyMarkup = &InlineKeyboardMarkup{InlineKeyboard: [][]InlineKeyboardButton{
					{NewInlineURLButton("Terms", "https://example.com/terms")},
				}}
			},
			field: "reply_markup",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			params := validInvoiceParams()
			tt.mutate(&params)

			_, err := NewSendInvoice(params)
			var ipe *InvalidPayloadError
			if !errors.As(err, &ipe) {
				t.Fatalf("error = %v, want *InvalidPayloadError", err)
			}
			if ipe.Field != tt.field {
				t.Errorf("Field = %q, want %q (reason %q)", ipe.Field, tt.field, ipe.Reason)
			}
		})
	}
}

func TestNewSendInvoice_Stars(t *testing.T) {
	t.Parallel()

	params := validInvoiceParams()
	params.ProviderToken = ""
	params.Currency = StarsCurrency
	params.Prices = []LabeledPrice{{Label: "Sticker pack", Amount: 50}}

	p, err := NewSendInvoice(params)
	if err != nil {
		t.Fatalf("NewSendInvoice() error: %v", err)
	}
	got := decodeKeys(t, mustMarshal(t, p))
	if _, ok := got["provider_token"]; ok {
		t.Error("provider_token should be omitted for Stars invoices")
	}
}

func TestSendInvoice_RoundTrip(t *testing.T) {
	t.Parallel()

	params := validInvoiceParams()
	params.StartParameter = Some("coffee")
	params.NeedShippingAddress = Some(true)
	params.IsFlexible = Some(true)
	markup, err := NewInlineKeyboardMarkup(
		[]InlineKeyboardButton{NewInlinePayButton("Pay $10")},
		[]InlineKeyboardButton{NewInlineURLButton("Terms", "https://example.com/terms")},
	)
	if err != nil {
		t.Fatalf("NewInlineKeyboardMarkup() error: %v", err)
	}
	params.ReplyMarkup = markup

	want, err := NewSendInvoice(params)
	if err != nil {
		t.Fatalf("NewSendInvoice() error: %v", err)
	}
	data := mustMarshal(t, want)

	var got SendInvoicePayload
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal(%s) error: %v", data, err)
	}
	if diff := cmp.Diff(data, mustMarshal(t, &got)); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want.Prices(), got.Prices()); diff != "" {
		t.Errorf("prices mismatch (-want +got):\n%s", diff)
	}
}

func TestAnswerPreCheckoutQuery(t *testing.T) {
	t.Parallel()

	ok, err := NewAnswerPreCheckoutQuery("q1")
	if err != nil {
		t.Fatalf("NewAnswerPreCheckoutQuery() error: %v", err)
	}
	if got := string(mustMarshal(t, ok)); got != `{"pre_checkout_query_id":"q1","ok":true}` {
		t.Errorf("ok projection = %s", got)
	}

	rejected, err := NewRejectPreCheckoutQuery("q1", "Out of stock")
	if err != nil {
		t.Fatalf("NewRejectPreCheckoutQuery() error: %v", err)
	}
	if got := string(mustMarshal(t, rejected)); got != `{"pre_checkout_query_id":"q1","ok":false,"error_message":"Out of stock"}` {
		t.Errorf("reject projection = %s", got)
	}

	if _, err := NewRejectPreCheckoutQuery("q1", ""); !errors.Is(err, ErrInvalidPayload) {
		t.Errorf("reject without message error = %v, want ErrInvalidPayload", err)
	}

	var decoded AnswerPreCheckoutQueryPayload
	if err := json.Unmarshal([]byte(`{"pre_checkout_query_id":"q9","ok":false}`), &decoded); !errors.Is(err, ErrInvalidPayload) {
		t.Errorf("decode reject without message error = %v, want ErrInvalidPayload", err)
	}
}

func TestAnswerShippingQuery(t *testing.T) {
	t.Parallel()

	options := []ShippingOption{{
		ID:     "std",
		Title:  "Standard",
		Prices: []LabeledPrice{{Label: "Shipping", Amount: 500}},
	}}
	p, err := NewAnswerShippingQuery("s1", options)
	if err != nil {
		t.Fatalf("NewAnswerShippingQuery() error: %v", err)
	}

	options[0].Title = "mutated"
	if p.ShippingOptions()[0].Title != "Standard" {
		t.Error("payload should not share the caller's options slice")
	}

	var got AnswerShippingQueryPayload
	if err := json.Unmarshal(mustMarshal(t, p), &got); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if !got.OK() || got.QueryID() != "s1" || len(got.ShippingOptions()) != 1 {
		t.Errorf("decoded = %+v", got.w)
	}

	if _, err := NewAnswerShippingQuery("s1", nil); !errors.Is(err, ErrInvalidPayload) {
		t.Errorf("empty options error = %v, want ErrInvalidPayload", err)
	}
	if _, err := NewRejectShippingQuery("", "nope"); !errors.Is(err, ErrInvalidPayload) {
		t.Errorf("missing id error = %v, want ErrInvalidPayload", err)
	}
}

func TestUpdate_DecodesPayments(t *testing.T) {
	t.Parallel()

	input := `{
		"update_id": 10,
		"pre_checkout_query": {
			"id": "pcq",
			"from": {"id": 7, "is_bot": false, "first_name": "Ann"},
			"currency": "EUR",
			"total_amount": 990,
			"invoice_payload": "order-7",
			"order_info": {"email": "ann@example.com"}
		},
		"message": {
			"message_id": 5,
			"chat": {"id": 7, "type": "private"},
			"date": 1700000000,
			"invoice": {"title": "Tea", "description": "Green", "currency": "EUR", "total_amount": 990, "start_parameter": "tea"},
			"successful_payment": {
				"currency": "EUR",
				"total_amount": 990,
				"invoice_payload": "order-7",
				"telegram_payment_charge_id": "tg-1",
				"provider_payment_charge_id": "pv-1"
			}
		}
	}`

	var u Update
	if err := json.Unmarshal([]byte(input), &u); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if u.PreCheckoutQuery == nil || u.PreCheckoutQuery.OrderInfo.Email != "ann@example.com" {
		t.Fatalf("PreCheckoutQuery = %+v", u.PreCheckoutQuery)
	}
	want, err := NewInvoice("Tea", "EUR", 990, WithDescription("Green"), WithStartParameter("tea"))
	if err != nil {
		t.Fatalf("NewInvoice() error: %v", err)
	}
	if diff := cmp.Diff(want, u.Message.Invoice); diff != "" {
		t.Errorf("invoice mismatch (-want +got):\n%s", diff)
	}
	if u.Message.SuccessfulPayment.TelegramPaymentChargeID != "tg-1" {
		t.Errorf("SuccessfulPayment = %+v", u.Message.SuccessfulPayment)
	}
}

func mustMarshal(t *testing.T, p Payload) []byte {
	t.Helper()
	data, err := Marshal(p)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	return data
}
