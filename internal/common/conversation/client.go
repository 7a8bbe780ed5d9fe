// Package conversation is the client for the dialog engine that produces
// replies for a workspace.
package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"conversation-relay/internal/common/config"
	relayerrors "conversation-relay/internal/common/errors"
	httpclient "conversation-relay/internal/common/http"
	"conversation-relay/internal/common/metrics"
	"conversation-relay/internal/models"
)

const ServiceName = "conversation"

type Client struct {
	http        *httpclient.Client
	versionDate string
}

// messageBody is the payload of a message call; the workspace goes in the path.
type messageBody struct {
	Input   json.RawMessage `json:"input"`
	Context models.Context  `json:"context"`
}

func NewClient(cfg config.ConversationConfig, opts ...httpclient.Option) *Client {
	opts = append([]httpclient.Option{httpclient.WithBasicAuth(cfg.Username, cfg.Password)}, opts...)
	return &Client{
		http:        httpclient.NewClient(cfg.URL, config.GetDuration(cfg.Timeout), opts...),
		versionDate: cfg.VersionDate,
	}
}

// Message sends one turn to the dialog engine.
func (c *Client) Message(ctx context.Context, req *models.DialogRequest) (*models.DialogReply, error) {
	start := time.Now()

	query := url.Values{}
	if c.versionDate != "" {
		query.Set("version", c.versionDate)
	}

	body := messageBody{Input: req.Input, Context: req.Context}
	if len(body.Input) == 0 {
		body.Input = json.RawMessage(`{}`)
	}
	if body.Context == nil {
		body.Context = models.Context{}
	}

	path := "/v1/workspaces/" + url.PathEscape(req.WorkspaceID) + "/message"
	resp, err := c.http.PostJSON(ctx, path, query, body)
	if err != nil {
		metrics.ObserveDownstreamCall(ServiceName, metrics.OutcomeError, time.Since(start))
		return nil, relayerrors.NewTransportError(ServiceName, err)
	}
	if !resp.OK() {
		metrics.ObserveDownstreamCall(ServiceName, metrics.OutcomeError, time.Since(start))
		return nil, relayerrors.NewServiceError(ServiceName, resp.StatusCode, resp.Body)
	}

	var reply models.DialogReply
	if err := json.Unmarshal(resp.Body, &reply); err != nil {
		metrics.ObserveDownstreamCall(ServiceName, metrics.OutcomeError, time.Since(start))
		return nil, relayerrors.NewTransportError(ServiceName, fmt.Errorf("failed to decode response: %w", err))
	}

	metrics.ObserveDownstreamCall(ServiceName, metrics.OutcomeSuccess, time.Since(start))
	return &reply, nil
}
