package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/admitcard-query/internal/dto"
	"github.com/noah-isme/admitcard-query/internal/models"
	appErrors "github.com/noah-isme/admitcard-query/pkg/errors"
	"github.com/noah-isme/admitcard-query/pkg/middleware/requestid"
)

// QueryService posts query requests to the admit card service and interprets
// the reply. It applies no timeout of its own; cancellation comes only from
// the caller's context.
type QueryService struct {
	client   *http.Client
	endpoint string
	logger   *zap.Logger
	metrics  *MetricsService
}

// NewQueryService constructs a query client for endpoint.
func NewQueryService(client *http.Client, endpoint string, logger *zap.Logger, metrics *MetricsService) *QueryService {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueryService{
		client:   client,
		endpoint: endpoint,
		logger:   logger,
		metrics:  metrics,
	}
}

// Query sends req and folds every result, including transport errors, into an
// Outcome.
func (s *QueryService) Query(ctx context.Context, req dto.QueryRequest) models.Outcome {
	start := time.Now()
	reqID := requestid.Value(ctx)
	if reqID == "" {
		reqID = requestid.New()
		ctx = requestid.WithValue(ctx, reqID)
	}

	outcome := s.roundTrip(ctx, req)

	fields := []zap.Field{
		zap.String("request_id", reqID),
		zap.String("outcome", string(outcome.Kind)),
		zap.Bool("download", outcome.HasDownload()),
	}
	if outcome.Err != nil {
		fields = append(fields, zap.Error(outcome.Err))
	}
	s.logger.Info("query_completed", fields...)
	s.metrics.ObserveQuery(outcome, time.Since(start))
	return outcome
}

func (s *QueryService) roundTrip(ctx context.Context, req dto.QueryRequest) models.Outcome {
	payload, err := json.Marshal(req)
	if err != nil {
		return models.Failure("", appErrors.Wrap(err, appErrors.ErrInternal.Code, "encode query request"))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return models.Failure("", appErrors.WithStatus(appErrors.ErrTransport, 0, err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return models.Failure("", appErrors.WithStatus(appErrors.ErrTransport, 0, err))
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.Failure("", appErrors.WithStatus(appErrors.ErrTransport, resp.StatusCode, fmt.Errorf("read body: %w", err)))
	}

	return InterpretResponse(resp.StatusCode, body)
}

var errNullBody = errors.New("null response body")

// InterpretResponse maps a status code and body to an Outcome. A 2xx body is
// decoded as a QueryResponse; any other status is decoded as an
// ErrorResponse. A body that does not decode yields a Failure with no server
// message, so the caller shows its fallback text.
func InterpretResponse(status int, body []byte) models.Outcome {
	if status >= 200 && status < 300 {
		var payload *dto.QueryResponse
		if err := json.Unmarshal(body, &payload); err != nil {
			return models.Failure("", appErrors.WithStatus(appErrors.ErrDecode, status, err))
		}
		if payload == nil {
			return models.Failure("", appErrors.WithStatus(appErrors.ErrDecode, status, errNullBody))
		}
		return models.Success(payload.Message, payload.FileURL)
	}

	var payload dto.ErrorResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return models.Failure("", appErrors.WithStatus(appErrors.ErrDecode, status, err))
	}
	return models.Failure(payload.Error, appErrors.WithStatus(appErrors.ErrQueryRejected, status, nil))
}
