package constvars

const (
	PaymentGatewayOy      = "oy"
	PaymentGatewayXendit  = "xendit"
	PaymentGatewaySandbox = "sandbox"
)

const (
	OyPaymentRoutingResource = "payment-routing/create-transaction"
	OyCheckStatusResource    = "payment-routing/check-status"
	OyRefundResource         = "payment-routing/refund"
	OyStatusCodeSuccess      = "000"
	XenditInvoiceResource    = "v2/invoices"
	XenditRefundResource     = "refunds"
	XenditRefundStatusFailed = "FAILED"
)

// OYPaymentRoutingStatus is a typed payment status returned by OY
type OYPaymentRoutingStatus string

const (
	OYPaymentRoutingStatusCreated            OYPaymentRoutingStatus = "CREATED"
	OYPaymentRoutingStatusWaitingPayment     OYPaymentRoutingStatus = "WAITING_PAYMENT"
	OYPaymentRoutingStatusPaymentInProgress  OYPaymentRoutingStatus = "PAYMENT_IN_PROGRESS"
	OYPaymentRoutingStatusDisburseInProgress OYPaymentRoutingStatus = "DISBURSE_IN_PROGRESS"
	OYPaymentRoutingStatusComplete           OYPaymentRoutingStatus = "COMPLETE"
	OYPaymentRoutingStatusIncomplete         OYPaymentRoutingStatus = "INCOMPLETE"
	OYPaymentRoutingStatusExpired            OYPaymentRoutingStatus = "EXPIRED"
	OYPaymentRoutingStatusFailed             OYPaymentRoutingStatus = "PAYMENT_FAILED"
)

// XenditInvoiceStatus is the invoice status returned by Xendit.
type XenditInvoiceStatus string

const (
	XenditInvoiceStatusPending XenditInvoiceStatus = "PENDING"
	XenditInvoiceStatusPaid    XenditInvoiceStatus = "PAID"
	XenditInvoiceStatusSettled XenditInvoiceStatus = "SETTLED"
	XenditInvoiceStatusExpired XenditInvoiceStatus = "EXPIRED"
)
