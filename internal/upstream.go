package internal

import (
	"bytes"
	"checkout/gateway"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

const maxResponseSize = 1 << 20

// post sends one request to a gateway API and never retries. Timeouts map to
// ErrUpstreamTimeout, every other failure to ErrUpstreamRequestFailed.
func (c *Checkout) post(parentCtx context.Context, gatewayName, url, contentType string, body []byte, headers map[string]string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(parentCtx, c.httpClient.Timeout)
	defer cancel()
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: create request: %v", gateway.ErrUpstreamRequestFailed, gatewayName, err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	response, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(ctx, err) {
			upstreamDuration.WithLabelValues(gatewayName, "timeout").Observe(time.Since(start).Seconds())
			return nil, fmt.Errorf("%w: %s after %v", gateway.ErrUpstreamTimeout, gatewayName, c.httpClient.Timeout)
		}
		upstreamDuration.WithLabelValues(gatewayName, "failed").Observe(time.Since(start).Seconds())
		return nil, fmt.Errorf("%w: %s: %v", gateway.ErrUpstreamRequestFailed, gatewayName, err)
	}
	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(response.Body)

	data, err := io.ReadAll(io.LimitReader(response.Body, maxResponseSize))
	if err != nil {
		result := "failed"
		wrapped := fmt.Errorf("%w: %s: read response: %v", gateway.ErrUpstreamRequestFailed, gatewayName, err)
		if isTimeout(ctx, err) {
			result = "timeout"
			wrapped = fmt.Errorf("%w: %s: reading response", gateway.ErrUpstreamTimeout, gatewayName)
		}
		upstreamDuration.WithLabelValues(gatewayName, result).Observe(time.Since(start).Seconds())
		return nil, wrapped
	}
	if response.StatusCode < 200 || response.StatusCode > 299 {
		upstreamDuration.WithLabelValues(gatewayName, "failed").Observe(time.Since(start).Seconds())
		return nil, fmt.Errorf("%w: %s: status %d", gateway.ErrUpstreamRequestFailed, gatewayName, response.StatusCode)
	}
	upstreamDuration.WithLabelValues(gatewayName, "ok").Observe(time.Since(start).Seconds())
	return data, nil
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
