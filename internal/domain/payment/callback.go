package payment

import (
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// CallbackEnvelope is the provider's asynchronous result POST body.
type CallbackEnvelope struct {
	Body struct {
		StkCallback StkCallback `json:"stkCallback"`
	} `json:"Body"`
}

// StkCallback is the result payload inside the callback envelope.
type StkCallback struct {
	MerchantRequestID string `json:"MerchantRequestID"`
	CheckoutRequestID string `json:"CheckoutRequestID"`
	ResultCode        int    `json:"ResultCode"`
	ResultDesc        string `json:"ResultDesc"`
	CallbackMetadata  struct {
		Item []MetadataItem `json:"Item"`
	} `json:"CallbackMetadata"`
}

// MetadataItem is one entry of the callback metadata array. Value may be a
// JSON number or string depending on the field.
type MetadataItem struct {
	Name  string          `json:"Name"`
	Value json.RawMessage `json:"Value"`
}

// CallbackMetadata holds the success-only fields extracted from the
// provider's metadata array.
type CallbackMetadata struct {
	Amount          decimal.Decimal
	ReceiptNumber   string
	TransactionDate string
	PhoneNumber     string
}

// Provider-defined positions in the metadata array, used only when the
// entries carry no names. Do not reorder.
const (
	metaPosAmount  = 0
	metaPosReceipt = 1
	metaPosDate    = 3
	metaPosPhone   = 4
)

// DecodeCallbackMetadata extracts the success fields from the metadata array.
// Entries are matched by name when the provider sends names, falling back to
// the documented positions otherwise. Every provider-contract assumption
// lives in this one function.
func DecodeCallbackMetadata(items []MetadataItem) (*CallbackMetadata, error) {
	byName := make(map[string]json.RawMessage, len(items))
	for _, it := range items {
		if it.Name != "" {
			byName[it.Name] = it.Value
		}
	}

	pick := func(name string, pos int) (json.RawMessage, bool) {
		if v, ok := byName[name]; ok {
			return v, true
		}
		if pos < len(items) && len(items[pos].Value) > 0 {
			return items[pos].Value, true
		}
		return nil, false
	}

	var meta CallbackMetadata

	rawAmount, ok := pick("Amount", metaPosAmount)
	if !ok {
		return nil, errors.New("callback metadata missing Amount")
	}
	amount, err := decodeDecimal(rawAmount)
	if err != nil {
		return nil, errors.Wrap(err, "decode Amount")
	}
	meta.Amount = amount

	rawReceipt, ok := pick("MpesaReceiptNumber", metaPosReceipt)
	if !ok {
		return nil, errors.New("callback metadata missing MpesaReceiptNumber")
	}
	if meta.ReceiptNumber, err = decodeString(rawReceipt); err != nil {
		return nil, errors.Wrap(err, "decode MpesaReceiptNumber")
	}

	rawDate, ok := pick("TransactionDate", metaPosDate)
	if !ok {
		return nil, errors.New("callback metadata missing TransactionDate")
	}
	if meta.TransactionDate, err = decodeString(rawDate); err != nil {
		return nil, errors.Wrap(err, "decode TransactionDate")
	}

	rawPhone, ok := pick("PhoneNumber", metaPosPhone)
	if !ok {
		return nil, errors.New("callback metadata missing PhoneNumber")
	}
	if meta.PhoneNumber, err = decodeString(rawPhone); err != nil {
		return nil, errors.Wrap(err, "decode PhoneNumber")
	}

	return &meta, nil
}

// decodeString accepts a JSON string or number and returns its text form.
// The provider sends receipt numbers as strings but dates and phone numbers
// as bare numbers.
func decodeString(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), nil
	}
	return "", fmt.Errorf("value %s is neither string nor number", raw)
}

func decodeDecimal(raw json.RawMessage) (decimal.Decimal, error) {
	s, err := decodeString(raw)
	if err != nil {
		return decimal.Zero, err
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse %q: %w", s, err)
	}
	return d, nil
}
