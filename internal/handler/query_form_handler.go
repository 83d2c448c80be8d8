package handler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/admitcard-query/internal/dto"
	"github.com/noah-isme/admitcard-query/internal/models"
	"github.com/noah-isme/admitcard-query/internal/ui"
	appErrors "github.com/noah-isme/admitcard-query/pkg/errors"
	"github.com/noah-isme/admitcard-query/pkg/middleware/requestid"
)

// Element ids the query page must provide.
const (
	FormID         = "query-form"
	ButtonID       = "query-btn"
	ModalID        = "modal"
	ModalMessageID = "modal-message"
	ModalCloseID   = "modal-close"
	NameFieldID    = "name"
	IDFieldID      = "id"
)

// ResubmitDelay is how long the query button stays disabled after a submit.
const ResubmitDelay = 10 * time.Second

// FallbackMessage is shown when a failed query carries no server error text.
const FallbackMessage = "An error occurred during the query."

// Querier performs one query round trip.
type Querier interface {
	Query(ctx context.Context, req dto.QueryRequest) models.Outcome
}

// SubmissionMetrics receives controller counters.
type SubmissionMetrics interface {
	RecordSubmission()
	RecordReenable()
}

type noopMetrics struct{}

func (noopMetrics) RecordSubmission() {}
func (noopMetrics) RecordReenable()   {}

// RenderHook observes each outcome after it has been rendered. It runs on
// the UI loop.
type RenderHook func(req dto.QueryRequest, outcome models.Outcome)

// QueryFormHandler wires the query form to the query service. Its event
// handlers run on the UI loop; the network call runs on its own goroutine and
// posts the result back.
type QueryFormHandler struct {
	ctx      context.Context
	loop     ui.Dispatcher
	querier  Querier
	logger   *zap.Logger
	metrics  SubmissionMetrics
	onRender RenderHook

	form         ui.EventTarget
	button       ui.Control
	modal        ui.Visibility
	modalMessage ui.TextSink
	modalClose   ui.EventTarget
	nameField    ui.ValueSource
	idField      ui.ValueSource
	location     ui.Location
}

// Option configures a QueryFormHandler.
type Option func(*QueryFormHandler)

// WithLogger sets the handler logger.
func WithLogger(logger *zap.Logger) Option {
	return func(h *QueryFormHandler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithMetrics sets the counters sink.
func WithMetrics(metrics SubmissionMetrics) Option {
	return func(h *QueryFormHandler) {
		h.metrics = metrics
	}
}

// WithRenderHook registers an observer for rendered outcomes.
func WithRenderHook(hook RenderHook) Option {
	return func(h *QueryFormHandler) {
		h.onRender = hook
	}
}

// Bind resolves the page elements and registers the submit and close
// listeners. It must run on the UI loop. A missing or mistyped element is a
// setup defect and fails the bind.
func Bind(ctx context.Context, doc ui.Document, loop ui.Dispatcher, querier Querier, opts ...Option) (*QueryFormHandler, error) {
	h := &QueryFormHandler{
		ctx:     ctx,
		loop:    loop,
		querier: querier,
		logger:  zap.NewNop(),
		metrics: noopMetrics{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	if h.metrics == nil {
		h.metrics = noopMetrics{}
	}
	if h.ctx == nil {
		h.ctx = context.Background()
	}

	var err error
	if h.form, err = lookup[ui.EventTarget](doc, FormID); err != nil {
		return nil, err
	}
	if h.button, err = lookup[ui.Control](doc, ButtonID); err != nil {
		return nil, err
	}
	if h.modal, err = lookup[ui.Visibility](doc, ModalID); err != nil {
		return nil, err
	}
	if h.modalMessage, err = lookup[ui.TextSink](doc, ModalMessageID); err != nil {
		return nil, err
	}
	if h.modalClose, err = lookup[ui.EventTarget](doc, ModalCloseID); err != nil {
		return nil, err
	}
	if h.nameField, err = lookup[ui.ValueSource](doc, NameFieldID); err != nil {
		return nil, err
	}
	if h.idField, err = lookup[ui.ValueSource](doc, IDFieldID); err != nil {
		return nil, err
	}
	h.location = doc.Location()

	h.modalClose.AddEventListener(ui.EventClick, h.handleClose)
	h.form.AddEventListener(ui.EventSubmit, h.handleSubmit)

	return h, nil
}

func lookup[T any](doc ui.Document, id string) (T, error) {
	var zero T
	el, ok := doc.ElementByID(id)
	if !ok {
		return zero, appErrors.Clone(appErrors.ErrElementNotFound, "page element not found: #"+id)
	}
	typed, ok := el.(T)
	if !ok {
		return zero, appErrors.Clone(appErrors.ErrElementTypeMismatch, "page element has the wrong type: #"+id)
	}
	return typed, nil
}

func (h *QueryFormHandler) handleClose(*ui.Event) {
	h.modal.Hide()
}

func (h *QueryFormHandler) handleSubmit(e *ui.Event) {
	e.PreventDefault()

	h.button.SetDisabled(true)
	h.loop.AfterFunc(ResubmitDelay, func() {
		h.button.SetDisabled(false)
		h.metrics.RecordReenable()
	})

	req := dto.NewQueryRequest(h.nameField.Value(), h.idField.Value())
	reqID := requestid.New()
	h.metrics.RecordSubmission()
	h.logger.Info("query_submitted", zap.String("request_id", reqID), zap.String("id", req.ID))

	ctx := requestid.WithValue(h.ctx, reqID)
	go func() {
		outcome := h.querier.Query(ctx, req)
		h.loop.Post(func() {
			h.render(req, outcome)
		})
	}()
}

func (h *QueryFormHandler) render(req dto.QueryRequest, outcome models.Outcome) {
	h.modalMessage.SetText(outcome.DisplayMessage(FallbackMessage))
	h.modal.Show()
	if outcome.HasDownload() {
		h.location.Assign(outcome.FileURL)
	}
	if h.onRender != nil {
		h.onRender(req, outcome)
	}
}
