package requests

// PaymentRequest is the OY payment-routing create-transaction body.
type PaymentRequest struct {
	PartnerUserID           string           `json:"partner_user_id" validate:"required"`
	UseLinkedAccount        bool             `json:"use_linked_account"`
	PartnerTransactionID    string           `json:"partner_trx_id" validate:"required"`
	NeedFrontend            bool             `json:"need_frontend"`
	SenderEmail             string           `json:"sender_email,omitempty" validate:"omitempty,email"`
	ReceiveAmount           int64            `json:"receive_amount" validate:"required,gt=0"`
	ListEnablePaymentMethod string           `json:"list_enable_payment_method" validate:"required"`
	ListEnableSOF           string           `json:"list_enable_sof" validate:"required"`
	VADisplayName           string           `json:"va_display_name,omitempty"`
	PaymentRouting          []PaymentRouting `json:"payment_routing,omitempty" validate:"dive"`
}

type PaymentRouting struct {
	RecipientBank    string `json:"recipient_bank" validate:"required"`
	RecipientAccount string `json:"recipient_account" validate:"required"`
	RecipientAmount  int64  `json:"recipient_amount" validate:"required"`
	RecipientEmail   string `json:"recipient_email" validate:"required,email"`
}

type PaymentRoutingStatus struct {
	PartnerTransactionID string `json:"partner_trx_id"`
	SendCallback         bool   `json:"send_callback"`
}

type OyRefund struct {
	TrxID  string `json:"trx_id"`
	Amount int64  `json:"amount,omitempty"`
}

// OyPaymentCallback is the body OY posts to the callback url.
type OyPaymentCallback struct {
	TrxID          string `json:"trx_id"`
	PartnerTrxID   string `json:"partner_trx_id"`
	PaymentStatus  string `json:"payment_status"`
	ReceivedAmount int64  `json:"received_amount"`
}
