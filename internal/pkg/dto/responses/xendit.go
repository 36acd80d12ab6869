package responses

type XenditInvoice struct {
	ID            string  `json:"id"`
	ExternalID    string  `json:"external_id"`
	Status        string  `json:"status"`
	Amount        float64 `json:"amount"`
	PaidAmount    float64 `json:"paid_amount"`
	InvoiceURL    string  `json:"invoice_url"`
	PaymentMethod string  `json:"payment_method"`
	MaskedCard    string  `json:"masked_card_number,omitempty"`
}

type XenditRefund struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}
