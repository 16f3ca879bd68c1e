package graphqlaudit

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// GraphQLError mirrors the {message, ...} shape of a GraphQL response
// error, ignoring extensions per spec.md §6.
type GraphQLError struct {
	Message string `json:"message"`
}

// GraphQLResponse tolerates the GraphQL-shaped envelope {data?, errors?}.
type GraphQLResponse struct {
	Data   map[string]any `json:"data,omitempty"`
	Errors []GraphQLError `json:"errors,omitempty"`
}

// Response is what Transport.Post returns on a completed HTTP round
// trip, successful or not at the GraphQL layer.
type Response struct {
	StatusCode int
	Body       GraphQLResponse
}

// TransportError is the single error value every prober classifies.
// Err holds the underlying cause so callers needing it (none currently
// do outside tests) can unwrap it; String is the canonical message
// shape described in spec.md §4.1.
type TransportError struct {
	String string
	Err    error
}

func (e *TransportError) Error() string { return e.String }

func (e *TransportError) Unwrap() error { return e.Err }

// Transport issues GraphQL-over-HTTP POST requests with per-principal
// headers and a per-call timeout, following the teacher's
// CreateHttpClient + executeIntrospection idiom but parameterized on
// context.Context instead of a fixed client timeout.
type Transport struct {
	client *http.Client
}

// NewTransport builds a transport with a dedicated *http.Client. TLS
// verification is left at its secure default: unlike the teacher's
// playground parser, this core talks to a caller-supplied endpoint that
// is expected to be reachable over a trusted chain.
func NewTransport() *Transport {
	return &Transport{
		client: &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{},
			},
		},
	}
}

// Post sends {"query": document} to url with the given headers and
// timeout, returning a Response or a classifiable *TransportError.
func (t *Transport) Post(ctx context.Context, url, document string, headers map[string]string, timeout time.Duration) (*Response, *TransportError) {
	reqLog := log.With().Str("url", url).Dur("timeout", timeout).Logger()

	body, err := json.Marshal(struct {
		Query string `json:"query"`
	}{Query: document})
	if err != nil {
		return nil, &TransportError{String: err.Error(), Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &TransportError{String: err.Error(), Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			reqLog.Debug().Msg("probe timed out")
			return nil, &TransportError{String: "Timeout de la petición", Err: err}
		}
		var netErr net.Error
		if errors.As(err, &netErr) {
			reqLog.Debug().Err(err).Msg("network error")
			return nil, &TransportError{String: fmt.Sprintf("Network Error: %s", netErr.Error()), Err: err}
		}
		return nil, &TransportError{String: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{String: err.Error(), Err: err}
	}

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Message != "" {
			msg := fmt.Sprintf("API Error %d: %s", resp.StatusCode, apiErr.Message)
			return &Response{StatusCode: resp.StatusCode}, &TransportError{String: msg}
		}
		msg := fmt.Sprintf("HTTP Error %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
		return &Response{StatusCode: resp.StatusCode}, &TransportError{String: msg}
	}

	var parsed GraphQLResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		reqLog.Debug().Err(err).Msg("response was not a GraphQL envelope")
		return &Response{StatusCode: resp.StatusCode}, &TransportError{String: err.Error(), Err: err}
	}

	response := &Response{StatusCode: resp.StatusCode, Body: parsed}

	if len(parsed.Errors) > 0 {
		messages := make([]string, 0, len(parsed.Errors))
		for _, e := range parsed.Errors {
			messages = append(messages, e.Message)
		}
		return response, &TransportError{String: fmt.Sprintf("GraphQL Error: %s", strings.Join(messages, "; "))}
	}

	return response, nil
}
