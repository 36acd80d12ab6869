package requests

// XenditCreateInvoice is the Xendit v2 invoice creation body.
type XenditCreateInvoice struct {
	ExternalID  string `json:"external_id"`
	Amount      int64  `json:"amount"`
	PayerEmail  string `json:"payer_email,omitempty"`
	Description string `json:"description,omitempty"`
	Currency    string `json:"currency,omitempty"`
}

type XenditRefund struct {
	InvoiceID string `json:"invoice_id"`
	Amount    int64  `json:"amount,omitempty"`
	Reason    string `json:"reason"`
}

// XenditInvoiceCallbackBody represents the JSON body sent by Xendit in invoice webhook callbacks
type XenditInvoiceCallbackBody struct {
	ID         string   `json:"id"`
	ExternalID string   `json:"external_id"`
	Status     string   `json:"status"`
	Amount     *float64 `json:"amount,omitempty"`
	Currency   *string  `json:"currency,omitempty"`
}
