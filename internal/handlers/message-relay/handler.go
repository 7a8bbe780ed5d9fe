package messagerelay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	relayerrors "conversation-relay/internal/common/errors"
	"conversation-relay/internal/common/logger"
	"conversation-relay/internal/common/observability"
	"conversation-relay/internal/common/validation"
	"conversation-relay/internal/models"
)

const (
	Route = "/api/message"

	outcomeSuccess      = "success"
	outcomeError        = "error"
	outcomeInvalid      = "invalid"
	outcomeUnconfigured = "unconfigured"

	// MaxBodyBytes caps the request body read by Handle.
	MaxBodyBytes int64 = 1 << 20
)

// TextAnalyzer extracts entities, keywords and categories from text.
type TextAnalyzer interface {
	Analyze(ctx context.Context, req *models.AnalyzeRequest) (*models.AnalysisResult, error)
}

// DialogEngine produces the reply for one conversation turn.
type DialogEngine interface {
	Message(ctx context.Context, req *models.DialogRequest) (*models.DialogReply, error)
}

type requestIDKey struct{}

type Handler struct {
	config   *Config
	analyzer TextAnalyzer
	dialog   DialogEngine
	logger   logger.Logger
	obs      *observability.Observability
	errors   *relayerrors.ErrorHandler
}

func NewHandler(config *Config, analyzer TextAnalyzer, dialog DialogEngine, log logger.Logger, obs *observability.Observability) *Handler {
	log = log.WithFields(map[string]interface{}{"handler": "message-relay"})
	return &Handler{
		config:   config,
		analyzer: analyzer,
		dialog:   dialog,
		logger:   log,
		obs:      obs,
		errors:   relayerrors.NewErrorHandler(log),
	}
}

// Handle serves POST /api/message.
func (h *Handler) Handle(c *gin.Context) {
	start := time.Now()
	requestID := c.GetString("requestId")

	ctx := context.WithValue(c.Request.Context(), requestIDKey{}, requestID)
	ctx, span := h.obs.StartSpan(ctx, "message.handle", attribute.String("request.id", requestID))
	defer span.End()

	if !h.config.Configured() {
		missing := relayerrors.NewConfigurationMissingError("conversation.workspace_id")
		h.logger.Warn("workspace id is not configured, returning setup instructions", map[string]interface{}{
			"requestId": requestID,
			"code":      missing.Code,
			"details":   missing.Details,
		})
		h.obs.RecordMessage(ctx, outcomeUnconfigured, time.Since(start))
		c.JSON(http.StatusOK, models.InstructionReply())
		return
	}

	req, err := h.parseRequest(c)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		h.obs.RecordMessage(ctx, outcomeInvalid, time.Since(start))
		h.errors.HandleRequestError(c, err)
		return
	}

	reply, err := h.Execute(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.obs.RecordMessage(ctx, outcomeError, time.Since(start))
		h.errors.HandleRequestError(c, err)
		return
	}

	h.obs.RecordMessage(ctx, outcomeSuccess, time.Since(start))
	c.JSON(http.StatusOK, reply)
}

func (h *Handler) parseRequest(c *gin.Context) (*models.MessageRequest, error) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, relayerrors.NewRequestTooLargeError(tooLarge.Limit)
		}
		return nil, relayerrors.NewInvalidRequestError(fmt.Sprintf("read body: %v", err))
	}

	result := validation.ValidateMessageBody(body)
	if !result.Valid {
		return nil, relayerrors.NewInvalidRequestError(result.Error())
	}

	var req models.MessageRequest
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			return nil, relayerrors.NewInvalidRequestError(fmt.Sprintf("parse body: %v", err))
		}
	}
	return &req, nil
}

// Execute runs one relay turn: analyze the input, enrich the context, ask the
// dialog engine and annotate its reply. Only dialog engine failures are
// returned.
func (h *Handler) Execute(ctx context.Context, req *models.MessageRequest) (*models.DialogReply, error) {
	enriched := req.Context.Clone()

	if analysis, ok := h.analyze(ctx, req.AnalyzerText()); ok {
		models.StripAnalysisKeys(enriched)
		if err := analysis.MergeInto(enriched); err != nil {
			return nil, relayerrors.NewInternalError(fmt.Errorf("merge analysis: %w", err))
		}
	}

	reply, err := h.message(ctx, &models.DialogRequest{
		WorkspaceID: h.config.WorkspaceID,
		Context:     enriched,
		Input:       req.DialogInput(),
	})
	if err != nil {
		return nil, err
	}

	reply.AppendText(RenderAnalysis(reply.Context))
	return reply, nil
}

// analyze calls the text analyzer. A failure is logged and reported as !ok so
// the turn continues with the context the client sent.
func (h *Handler) analyze(ctx context.Context, text string) (*models.AnalysisResult, bool) {
	ctx, span := h.obs.StartSpan(ctx, "nlu.analyze", attribute.Int("text.length", len(text)))
	defer span.End()

	result, err := h.analyzer.Analyze(ctx, &models.AnalyzeRequest{
		Text:     text,
		Features: models.DefaultFeatures(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.obs.RecordAnalyzerFailure(ctx)
		h.logger.Warn("text analysis failed, continuing without enrichment", map[string]interface{}{
			"requestId": requestIDFrom(ctx),
			"error":     relayerrors.NewAnalyzerFailedError(err).Details,
		})
		return nil, false
	}
	if result == nil {
		result = &models.AnalysisResult{}
	}

	span.SetAttributes(
		attribute.Int("entities", len(result.Entities)),
		attribute.Int("keywords", len(result.Keywords)),
		attribute.Int("categories", len(result.Categories)),
	)
	return result, true
}

func (h *Handler) message(ctx context.Context, req *models.DialogRequest) (*models.DialogReply, error) {
	ctx, span := h.obs.StartSpan(ctx, "conversation.message", attribute.String("workspace.id", req.WorkspaceID))
	defer span.End()

	reply, err := h.dialog.Message(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if reply == nil {
		return nil, relayerrors.NewDialogEngineFailedError(fmt.Errorf("empty reply"))
	}
	return reply, nil
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
