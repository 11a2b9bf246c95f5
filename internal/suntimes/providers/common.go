package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sony/gobreaker"

	"github.com/sunwatch/suntimes-service/internal/suntimes"
)

var errNoHTTPClient = errors.New("http client not configured")

// doRequestWithBreaker executes the HTTP request through the circuit breaker
// and classifies status-level failures into the domain error taxonomy. The
// breaker trips on transport failures, 429s and 5xx responses; an open
// circuit surfaces as ErrProviderUnavailable. No retries happen here: retry
// policy belongs to the caller of the whole reconciliation.
func doRequestWithBreaker(
	ctx context.Context,
	client *http.Client,
	cb *gobreaker.CircuitBreaker,
	buildRequest func() (*http.Request, error),
) (*http.Response, error) {
	if client == nil {
		return nil, errNoHTTPClient
	}

	req, err := buildRequest()
	if err != nil {
		return nil, err
	}
	req = req.WithContext(ctx)

	result, err := cb.Execute(func() (interface{}, error) {
		resp, execErr := client.Do(req)
		if execErr != nil {
			return nil, fmt.Errorf("%w: %v", suntimes.ErrProviderUnavailable, execErr)
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			resp.Body.Close()
			return nil, suntimes.ErrRateLimited
		case resp.StatusCode >= 500:
			resp.Body.Close()
			return nil, fmt.Errorf("%w: server returned %d", suntimes.ErrProviderUnavailable, resp.StatusCode)
		case resp.StatusCode == http.StatusBadRequest:
			resp.Body.Close()
			return nil, fmt.Errorf("%w: server rejected parameters", suntimes.ErrInvalidQuery)
		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			resp.Body.Close()
			return nil, fmt.Errorf("%w: unexpected status code %d", suntimes.ErrProvider, resp.StatusCode)
		}

		return resp, nil
	})

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: circuit breaker open", suntimes.ErrProviderUnavailable)
		}
		return nil, err
	}

	resp, ok := result.(*http.Response)
	if !ok {
		return nil, fmt.Errorf("unexpected result type from circuit breaker")
	}
	return resp, nil
}
