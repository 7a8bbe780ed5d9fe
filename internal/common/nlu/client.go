// Package nlu is the client for the text analysis service that extracts
// entities, keywords and categories from user input.
package nlu

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

const ServiceName = "nlu"

type Client struct {
	http        *httpclient.Client
	versionDate string
}

func NewClient(cfg config.NLUConfig, opts ...httpclient.Option) *Client {
	opts = append([]httpclient.Option{httpclient.WithBasicAuth(cfg.Username, cfg.Password)}, opts...)
	return &Client{
		http:        httpclient.NewClient(cfg.URL, config.GetDuration(cfg.Timeout), opts...),
		versionDate: cfg.VersionDate,
	}
}

// Analyze runs the requested features over req.Text. Non-2xx answers come
// back as *errors.ServiceError.
func (c *Client) Analyze(ctx context.Context, req *models.AnalyzeRequest) (*models.AnalysisResult, error) {
	start := time.Now()

	query := url.Values{}
	if c.versionDate != "" {
		query.Set("version", c.versionDate)
	}

	resp, err := c.http.PostJSON(ctx, "/v1/analyze", query, req)
	if err != nil {
		metrics.ObserveDownstreamCall(ServiceName, metrics.OutcomeError, time.Since(start))
		return nil, relayerrors.NewTransportError(ServiceName, err)
	}
	if !resp.OK() {
		metrics.ObserveDownstreamCall(ServiceName, metrics.OutcomeError, time.Since(start))
		return nil, relayerrors.NewServiceError(ServiceName, resp.StatusCode, resp.Body)
	}

	var result models.AnalysisResult
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		metrics.ObserveDownstreamCall(ServiceName, metrics.OutcomeError, time.Since(start))
		return nil, relayerrors.NewTransportError(ServiceName, fmt.Errorf("failed to decode response: %w", err))
	}

	metrics.ObserveDownstreamCall(ServiceName, metrics.OutcomeSuccess, time.Since(start))
	return &result, nil
}
