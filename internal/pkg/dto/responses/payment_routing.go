package responses

type Status struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PaymentInfo represents the payment information in the JSON response.
type PaymentInfo struct {
	PaymentCheckoutURL string `json:"payment_checkout_url"`
}

// PaymentResponse is the OY create-transaction response.
type PaymentResponse struct {
	Status        Status      `json:"status"`
	TrxID         string      `json:"trx_id"`
	PartnerTrxID  string      `json:"partner_trx_id"`
	ReceiveAmount int64       `json:"receive_amount"`
	PaymentInfo   PaymentInfo `json:"payment_info"`
}

type PaymentRoutingStatus struct {
	Status         Status      `json:"status"`
	TrxID          string      `json:"trx_id"`
	PartnerTrxID   string      `json:"partner_trx_id"`
	RequestAmount  int64       `json:"request_amount"`
	ReceivedAmount int64       `json:"received_amount"`
	PaymentStatus  string      `json:"payment_status"`
	PaymentMethod  string      `json:"payment_method"`
	SenderBank     string      `json:"sender_bank"`
	PaymentInfo    PaymentInfo `json:"payment_info"`
}

type OyRefund struct {
	Status Status `json:"status"`
	TrxID  string `json:"trx_id"`
}
