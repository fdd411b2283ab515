package daemon

import (
	"context"
	"net/http"

	"skypanel/model"
)

// StatusResponse is the daemon root endpoint's self-report.
type StatusResponse struct {
	VersionFamily  string `json:"versionFamily"`
	VersionRelease string `json:"versionRelease"`
	Online         bool   `json:"online"`
	Remote         string `json:"remote"`
	Docker         bool   `json:"docker"`
}

// Status probes the node's root endpoint. Auth failures surface like
// any other rejection; callers treat every failure as Offline.
func (c *Client) Status(ctx context.Context, node *model.Node) (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.do(ctx, node, "status", http.MethodGet, "/", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
