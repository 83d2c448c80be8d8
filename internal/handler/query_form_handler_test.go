package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/admitcard-query/internal/dto"
	"github.com/noah-isme/admitcard-query/internal/models"
	"github.com/noah-isme/admitcard-query/internal/service"
	"github.com/noah-isme/admitcard-query/internal/ui"
	"github.com/noah-isme/admitcard-query/internal/ui/uitest"
	appErrors "github.com/noah-isme/admitcard-query/pkg/errors"
)

type stubQuerier struct {
	mu       sync.Mutex
	requests []dto.QueryRequest
	outcome  models.Outcome
	release  chan struct{}
}

func (s *stubQuerier) Query(ctx context.Context, req dto.QueryRequest) models.Outcome {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()
	if s.release != nil {
		<-s.release
	}
	return s.outcome
}

func (s *stubQuerier) Requests() []dto.QueryRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]dto.QueryRequest(nil), s.requests...)
}

type countingMetrics struct {
	mu          sync.Mutex
	submissions int
	reenables   int
}

func (m *countingMetrics) RecordSubmission() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submissions++
}

func (m *countingMetrics) RecordReenable() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reenables++
}

type fixture struct {
	t        *testing.T
	loop     *ui.Loop
	sched    *uitest.ManualScheduler
	form     *ui.Form
	button   *ui.Button
	modal    *ui.Modal
	message  *ui.Text
	closeBtn *ui.Button
	name     *ui.Input
	id       *ui.Input
	history  *ui.History
	metrics  *countingMetrics
	rendered chan models.Outcome
}

func newPage(f *fixture) *ui.Page {
	f.form = ui.NewForm(FormID)
	f.button = ui.NewSubmitButton(ButtonID, f.form)
	f.modal = ui.NewModal(ModalID)
	f.message = ui.NewText(ModalMessageID)
	f.closeBtn = ui.NewButton(ModalCloseID)
	f.name = ui.NewInput(NameFieldID, "")
	f.id = ui.NewInput(IDFieldID, "")
	f.history = &ui.History{}
	return ui.NewPage(f.history).Register(f.form, f.button, f.modal, f.message, f.closeBtn, f.name, f.id)
}

func newFixture(t *testing.T, querier Querier) *fixture {
	t.Helper()
	f := &fixture{
		t:        t,
		sched:    uitest.NewManualScheduler(),
		metrics:  &countingMetrics{},
		rendered: make(chan models.Outcome, 8),
	}
	f.loop = ui.NewLoop(ui.WithScheduler(f.sched))
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = f.loop.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-f.loop.Stopped()
	})

	page := newPage(f)
	var bindErr error
	f.do(func() {
		_, bindErr = Bind(ctx, page, f.loop, querier,
			WithLogger(zap.NewNop()),
			WithMetrics(f.metrics),
			WithRenderHook(func(_ dto.QueryRequest, outcome models.Outcome) {
				f.rendered <- outcome
			}),
		)
	})
	require.NoError(t, bindErr)
	return f
}

func (f *fixture) do(fn func()) {
	f.t.Helper()
	require.NoError(f.t, f.loop.Do(context.Background(), fn))
}

func (f *fixture) submit(name, id string) *ui.Event {
	f.t.Helper()
	var ev *ui.Event
	f.do(func() {
		f.name.SetValue(name)
		f.id.SetValue(id)
		ev = f.form.Submit()
	})
	return ev
}

func (f *fixture) disabled() bool {
	f.t.Helper()
	var disabled bool
	f.do(func() { disabled = f.button.Disabled() })
	return disabled
}

func (f *fixture) modalState() (bool, string) {
	f.t.Helper()
	var visible bool
	var text string
	f.do(func() {
		visible = f.modal.Visible()
		text = f.message.Text()
	})
	return visible, text
}

func (f *fixture) waitRendered() models.Outcome {
	f.t.Helper()
	select {
	case o := <-f.rendered:
		return o
	case <-time.After(5 * time.Second):
		f.t.Fatal("outcome was never rendered")
		return models.Outcome{}
	}
}

func newFakeServiceServer(t *testing.T, status int, body string) (*httptest.Server, chan string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	bodies := make(chan string, 4)
	r := gin.New()
	r.POST("/query", func(c *gin.Context) {
		raw, _ := c.GetRawData()
		bodies <- c.GetHeader("Content-Type") + " " + string(raw)
		c.Data(status, "application/json", []byte(body))
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, bodies
}

func newServiceFixture(t *testing.T, status int, body string) (*fixture, chan string) {
	t.Helper()
	srv, bodies := newFakeServiceServer(t, status, body)
	svc := service.NewQueryService(srv.Client(), srv.URL+"/query", zap.NewNop(), nil)
	return newFixture(t, svc), bodies
}

func TestSubmitPreventsDefault(t *testing.T) {
	f := newFixture(t, &stubQuerier{outcome: models.Success("ok", "")})

	ev := f.submit("Alice", "123")
	require.True(t, ev.DefaultPrevented())
	f.waitRendered()
	var submissions int
	f.do(func() { submissions = f.form.Submissions })
	require.Zero(t, submissions)
}

func TestButtonReenablesAfterDelayOnSuccess(t *testing.T) {
	f := newFixture(t, &stubQuerier{outcome: models.Success("Found", "")})

	require.False(t, f.disabled())
	f.submit("Alice", "123")
	require.True(t, f.disabled())

	f.waitRendered()
	require.True(t, f.disabled(), "response must not re-enable the button")

	f.sched.Advance(ResubmitDelay - time.Millisecond)
	require.True(t, f.disabled())

	f.sched.Advance(time.Millisecond)
	require.False(t, f.disabled())
	require.Zero(t, f.sched.Pending())
	require.Equal(t, 1, f.metrics.reenables)
}

func TestButtonReenablesWithoutResponse(t *testing.T) {
	querier := &stubQuerier{release: make(chan struct{})}
	defer close(querier.release)
	f := newFixture(t, querier)

	f.submit("Alice", "123")
	require.True(t, f.disabled())

	f.sched.Advance(ResubmitDelay)
	require.False(t, f.disabled())

	visible, _ := f.modalState()
	require.False(t, visible, "modal is never updated while the request hangs")
}

func TestButtonReenablesOnFailure(t *testing.T) {
	f := newFixture(t, &stubQuerier{outcome: models.Failure("", appErrors.ErrTransport)})

	f.submit("Alice", "123")
	f.waitRendered()
	require.True(t, f.disabled())
	f.sched.Advance(ResubmitDelay)
	require.False(t, f.disabled())
}

func TestLateResponseRendersAfterReenable(t *testing.T) {
	querier := &stubQuerier{release: make(chan struct{}), outcome: models.Success("Found", "")}
	f := newFixture(t, querier)

	f.submit("Alice", "123")
	f.sched.Advance(ResubmitDelay)
	require.False(t, f.disabled())

	close(querier.release)
	f.waitRendered()
	visible, text := f.modalState()
	require.True(t, visible)
	require.Equal(t, "Found", text)
	require.False(t, f.disabled())
}

func TestDisabledButtonRejectsClicks(t *testing.T) {
	querier := &stubQuerier{outcome: models.Success("Found", "")}
	f := newFixture(t, querier)

	var accepted bool
	f.do(func() { accepted = f.button.Click() })
	require.True(t, accepted)
	f.waitRendered()

	f.do(func() { accepted = f.button.Click() })
	require.False(t, accepted)
	require.Len(t, querier.Requests(), 1)
	require.Equal(t, 1, f.metrics.submissions)
}

func TestSubmitTrimsFields(t *testing.T) {
	querier := &stubQuerier{outcome: models.Success("Found", "")}
	f := newFixture(t, querier)

	f.submit(" Alice ", "  123\t")
	f.waitRendered()
	require.Equal(t, []dto.QueryRequest{{Name: "Alice", ID: "123"}}, querier.Requests())
}

func TestSubmitSendsJSONBody(t *testing.T) {
	f, bodies := newServiceFixture(t, http.StatusOK, `{"message":"Not found"}`)

	f.submit(" Alice ", "123 ")
	f.waitRendered()
	require.Equal(t, `application/json {"name":"Alice","id":"123"}`, <-bodies)
}

func TestSuccessWithFileNavigates(t *testing.T) {
	f, _ := newServiceFixture(t, http.StatusOK, `{"message":"Found","file_url":"/files/a.pdf"}`)

	f.submit("Alice", "123")
	f.waitRendered()

	visible, text := f.modalState()
	require.True(t, visible)
	require.Equal(t, "Found", text)
	require.Equal(t, []string{"/files/a.pdf"}, f.history.Entries())
}

func TestSuccessWithoutFileDoesNotNavigate(t *testing.T) {
	f, _ := newServiceFixture(t, http.StatusOK, `{"message":"Not found"}`)

	f.submit("Alice", "123")
	f.waitRendered()

	visible, text := f.modalState()
	require.True(t, visible)
	require.Equal(t, "Not found", text)
	require.Empty(t, f.history.Entries())
}

func TestFailureShowsServerError(t *testing.T) {
	f, _ := newServiceFixture(t, http.StatusBadRequest, `{"error":"Invalid ID"}`)

	f.submit("Alice", "bad")
	outcome := f.waitRendered()
	require.False(t, outcome.Succeeded())

	_, text := f.modalState()
	require.Equal(t, "Invalid ID", text)
	require.Empty(t, f.history.Entries())
}

func TestFailureWithoutPayloadShowsFallback(t *testing.T) {
	for _, body := range []string{"", "not json", `{"message":"x"}`} {
		t.Run(body, func(t *testing.T) {
			f, _ := newServiceFixture(t, http.StatusInternalServerError, body)

			f.submit("Alice", "123")
			f.waitRendered()

			visible, text := f.modalState()
			require.True(t, visible)
			require.Equal(t, FallbackMessage, text)
		})
	}
}

func TestTransportFailureShowsFallback(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL + "/query"
	srv.Close()
	f := newFixture(t, service.NewQueryService(nil, endpoint, nil, nil))

	f.submit("Alice", "123")
	outcome := f.waitRendered()
	require.ErrorIs(t, outcome.Err, appErrors.ErrTransport)

	_, text := f.modalState()
	require.Equal(t, FallbackMessage, text)
}

func TestCloseHidesModalOnly(t *testing.T) {
	querier := &stubQuerier{release: make(chan struct{}), outcome: models.Success("Found", "")}
	f := newFixture(t, querier)

	f.do(func() {
		f.message.SetText("previous")
		f.modal.Show()
	})
	f.submit("Alice", "123")

	f.do(func() { f.closeBtn.Click() })
	visible, _ := f.modalState()
	require.False(t, visible)
	require.True(t, f.disabled(), "closing the modal leaves the button alone")

	close(querier.release)
	f.waitRendered()
	visible, text := f.modalState()
	require.True(t, visible, "in-flight request still renders")
	require.Equal(t, "Found", text)
}

func TestBindFailsOnMissingElement(t *testing.T) {
	page := ui.NewPage(nil).Register(
		ui.NewForm(FormID),
		ui.NewButton(ButtonID),
		ui.NewText(ModalMessageID),
		ui.NewButton(ModalCloseID),
		ui.NewInput(NameFieldID, ""),
		ui.NewInput(IDFieldID, ""),
	)
	_, err := Bind(context.Background(), page, ui.NewLoop(), &stubQuerier{})
	require.ErrorIs(t, err, appErrors.ErrElementNotFound)
	require.Contains(t, err.Error(), "#modal")
}

func TestBindFailsOnWrongElementType(t *testing.T) {
	page := ui.NewPage(nil).Register(
		ui.NewForm(FormID),
		ui.NewText(ButtonID),
		ui.NewModal(ModalID),
		ui.NewText(ModalMessageID),
		ui.NewButton(ModalCloseID),
		ui.NewInput(NameFieldID, ""),
		ui.NewInput(IDFieldID, ""),
	)
	_, err := Bind(context.Background(), page, ui.NewLoop(), &stubQuerier{})
	require.ErrorIs(t, err, appErrors.ErrElementTypeMismatch)
	require.Contains(t, err.Error(), "#query-btn")
}
