package payment_gateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"konsulin-wallet-service/internal/pkg/constvars"
	"konsulin-wallet-service/internal/pkg/exceptions"
	"konsulin-wallet-service/internal/pkg/utils"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// gatewayClient is the HTTP plumbing shared by the provider adapters.
// Outbound calls are throttled so a burst of top-ups cannot trip the
// provider's own rate limit.
type gatewayClient struct {
	provider string
	baseURL  string
	client   *http.Client
	limiter  *rate.Limiter
	Log      *zap.Logger
}

func newGatewayClient(provider, baseURL string, timeout time.Duration, requestsPerSecond int, logger *zap.Logger) *gatewayClient {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	return &gatewayClient{
		provider: provider,
		baseURL:  baseURL,
		client:   &http.Client{Timeout: timeout},
		limiter:  rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond),
		Log:      logger,
	}
}

// do sends body as JSON and decodes a 2xx response into out. Non-2xx
// responses are returned as *httpStatusError so adapters can tell a
// provider-side rejection from an outage.
func (c *gatewayClient) do(ctx context.Context, method, resource string, body interface{}, headers map[string]string, out interface{}) error {
	requestID := utils.GetRequestID(ctx)
	url := fmt.Sprintf("%s/%s", c.baseURL, resource)

	if err := c.limiter.Wait(ctx); err != nil {
		return exceptions.ErrPaymentGateway(err, c.provider)
	}

	var reader io.Reader
	if body != nil {
		requestJSON, err := json.Marshal(body)
		if err != nil {
			return exceptions.ErrCannotMarshalJSON(err)
		}
		reader = bytes.NewBuffer(requestJSON)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return exceptions.ErrPaymentGateway(err, c.provider)
	}
	req.Header.Set(constvars.HeaderContentType, constvars.MIMEApplicationJSON)
	req.Header.Set(constvars.HeaderAccept, constvars.MIMEApplicationJSON)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	startTime := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.Log.Error("gatewayClient.do error sending request",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingProviderKey, c.provider),
			zap.String(constvars.LoggingURLKey, url),
			zap.Error(err),
		)
		return exceptions.ErrPaymentGateway(err, c.provider)
	}
	defer resp.Body.Close()

	c.Log.Debug("gatewayClient.do response received",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingProviderKey, c.provider),
		zap.String(constvars.LoggingURLKey, url),
		zap.Int(constvars.LoggingHTTPStatusKey, resp.StatusCode),
		zap.Duration(constvars.LoggingDurationKey, time.Since(startTime)),
	)

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return exceptions.ErrPaymentGateway(err, c.provider)
	}

	if resp.StatusCode < constvars.StatusOK || resp.StatusCode >= 300 {
		return &httpStatusError{StatusCode: resp.StatusCode, Body: string(bodyBytes)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(bodyBytes, out); err != nil {
		return exceptions.ErrGatewayResponseDecoding(err, c.provider)
	}
	return nil
}

type httpStatusError struct {
	StatusCode int
	Body       string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// classify maps a transport result onto the gateway error kinds: 4xx
// responses are a definitive rejection, anything else is retryable.
func (c *gatewayClient) classify(err error, reference string) error {
	statusErr, ok := err.(*httpStatusError)
	if !ok {
		return err
	}
	if statusErr.StatusCode >= constvars.StatusBadRequest && statusErr.StatusCode < constvars.StatusInternalServerError {
		return exceptions.ErrPaymentDeclined(statusErr, reference)
	}
	return exceptions.ErrPaymentGateway(statusErr, c.provider)
}
