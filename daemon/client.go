// Package daemon is the typed HTTP/WebSocket client for the node
// execution daemon. Every call authenticates with the fixed service
// principal and the node's per-node secret as an HTTP basic-auth
// pair. Calls are single-attempt: no retry, no backoff.
package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"skypanel/metrics"
	"skypanel/model"
)

// Principal is the fixed basic-auth identity the daemon expects on
// every inbound panel call.
const Principal = "Skyport"

// UnreachableError is a transport-level failure talking to a node.
// Health-aware callers flip the node's persisted status to Offline.
type UnreachableError struct {
	Node string
	Err  error
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("node %s unreachable: %v", e.Node, e.Err)
}

func (e *UnreachableError) Unwrap() error { return e.Err }

// RejectedError is a non-2xx daemon response. Body carries the
// upstream response for caller diagnosis.
type RejectedError struct {
	Status int
	Body   []byte
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("node rejected request: status %d: %s", e.Status, e.Body)
}

type Client struct {
	http *http.Client
}

// New returns a client using the given HTTP client, or
// http.DefaultClient when nil. Transport defaults are the only
// timeout policy; a hung node call hangs the caller.
func New(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{http: httpClient}
}

// do issues one authenticated request against node and decodes a JSON
// response into out when out is non-nil.
func (c *Client) do(ctx context.Context, node *model.Node, op, method, path string, body, out any) error {
	metrics.NodeRequests.WithLabelValues(op).Inc()

	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, "http://"+node.Addr()+path, reqBody)
	if err != nil {
		return err
	}
	req.SetBasicAuth(Principal, node.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.NodeRequestErrors.WithLabelValues(op).Inc()
		return &UnreachableError{Node: node.ID, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.NodeRequestErrors.WithLabelValues(op).Inc()
		return &UnreachableError{Node: node.ID, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.NodeRequestErrors.WithLabelValues(op).Inc()
		return &RejectedError{Status: resp.StatusCode, Body: raw}
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode node response: %w", err)
		}
	}
	return nil
}
