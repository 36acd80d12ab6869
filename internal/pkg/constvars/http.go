package constvars

const (
	MethodGet     = "GET"
	MethodHead    = "HEAD"
	MethodPost    = "POST"
	MethodPut     = "PUT"
	MethodPatch   = "PATCH"
	MethodDelete  = "DELETE"
	MethodOptions = "OPTIONS"
)

const (
	MIMETextPlain                  = "text/plain"
	MIMEApplicationJSON            = "application/json"
	MIMEApplicationJSONCharsetUTF8 = "application/json; charset=utf-8"
	MIMEApplicationForm            = "application/x-www-form-urlencoded"
)

const (
	StatusOK        = 200
	StatusCreated   = 201
	StatusAccepted  = 202
	StatusNoContent = 204

	StatusBadRequest          = 400
	StatusUnauthorized        = 401
	StatusPaymentRequired     = 402
	StatusForbidden           = 403
	StatusNotFound            = 404
	StatusMethodNotAllowed    = 405
	StatusRequestTimeout      = 408
	StatusConflict            = 409
	StatusGone                = 410
	StatusUnprocessableEntity = 422
	StatusLocked              = 423
	StatusTooManyRequests     = 429

	StatusInternalServerError = 500
	StatusNotImplemented      = 501
	StatusBadGateway          = 502
	StatusServiceUnavailable  = 503
	StatusGatewayTimeout      = 504
)

const (
	HeaderAuthorization       = "Authorization"
	HeaderAccept              = "Accept"
	HeaderContentType         = "Content-Type"
	HeaderContentLength       = "Content-Length"
	HeaderOrigin              = "Origin"
	HeaderUserAgent           = "User-Agent"
	HeaderXForwardedFor       = "X-Forwarded-For"
	HeaderXRequestID          = "X-Request-ID"
	HeaderXAPIKey             = "X-API-Key"
	HeaderXOyUsername         = "X-OY-Username"
	HeaderXIdempotencyKey     = "Idempotency-Key"
	HeaderXCallbackToken      = "X-Callback-Token"
	HeaderXContentTypeOptions = "X-Content-Type-Options"
)
