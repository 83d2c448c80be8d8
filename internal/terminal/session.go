package terminal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/noah-isme/admitcard-query/internal/dto"
	"github.com/noah-isme/admitcard-query/internal/handler"
	"github.com/noah-isme/admitcard-query/internal/models"
	"github.com/noah-isme/admitcard-query/internal/service"
	"github.com/noah-isme/admitcard-query/internal/ui"
	appErrors "github.com/noah-isme/admitcard-query/pkg/errors"
)

// Downloader fetches a navigated URL.
type Downloader interface {
	Download(ctx context.Context, rawURL string) (*service.DownloadResult, error)
}

const waitMessage = "The query button is disabled for a few seconds after each query. Please wait and try again."

type download struct {
	result *service.DownloadResult
	err    error
}

// Session presents the query page in a terminal. Prompts stand in for the
// input fields and submit button, the modal is printed, and navigation
// downloads the file.
type Session struct {
	driver     PromptDriver
	loop       *ui.Loop
	downloader Downloader
	logger     *zap.Logger

	page     *ui.Page
	button   *ui.Button
	modal    *ui.Modal
	message  *ui.Text
	closeBtn *ui.Button
	name     *ui.Input
	id       *ui.Input

	ctx       context.Context
	rendered  chan models.Outcome
	downloads chan download
}

// NewSession builds the terminal page. Bind the query handler to Page() on
// the loop before calling Run.
func NewSession(driver PromptDriver, loop *ui.Loop, downloader Downloader, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Session{
		driver:     driver,
		loop:       loop,
		downloader: downloader,
		logger:     logger,
		ctx:        context.Background(),
		rendered:   make(chan models.Outcome, 4),
		downloads:  make(chan download, 4),
	}

	form := ui.NewForm(handler.FormID)
	s.button = ui.NewSubmitButton(handler.ButtonID, form)
	s.modal = ui.NewModal(handler.ModalID)
	s.message = ui.NewText(handler.ModalMessageID)
	s.closeBtn = ui.NewButton(handler.ModalCloseID)
	s.name = ui.NewInput(handler.NameFieldID, "")
	s.id = ui.NewInput(handler.IDFieldID, "")
	s.page = ui.NewPage(navigator{s}).Register(form, s.button, s.modal, s.message, s.closeBtn, s.name, s.id)

	return s
}

// Page is the document the query handler binds to.
func (s *Session) Page() ui.Document {
	return s.page
}

// RenderHook lets the session wait for each rendered outcome.
func (s *Session) RenderHook() handler.RenderHook {
	return func(_ dto.QueryRequest, outcome models.Outcome) {
		select {
		case s.rendered <- outcome:
		default:
			s.logger.Warn("render_notification_dropped")
		}
	}
}

// Run prompts for queries until the user declines another one or aborts.
func (s *Session) Run(ctx context.Context) error {
	if err := s.loop.Do(ctx, func() { s.ctx = ctx }); err != nil {
		return err
	}

	var lastName, lastID string
	for {
		name, err := s.driver.Input(ctx, InputConfig{Message: "Name", Default: lastName})
		if err != nil {
			return quitErr(err)
		}
		id, err := s.driver.Input(ctx, InputConfig{Message: "ID number", Default: lastID})
		if err != nil {
			return quitErr(err)
		}
		lastName, lastID = name, id

		var accepted bool
		if err := s.loop.Do(ctx, func() {
			s.name.SetValue(name)
			s.id.SetValue(id)
			accepted = s.button.Click()
		}); err != nil {
			return err
		}
		if !accepted {
			if err := s.driver.Info(ctx, waitMessage); err != nil {
				return quitErr(err)
			}
			continue
		}

		outcome, err := s.await(ctx)
		if err != nil {
			return err
		}
		if err := s.showModal(ctx, outcome); err != nil {
			return quitErr(err)
		}

		again, err := s.driver.Confirm(ctx, ConfirmConfig{Message: "Close and query again?", Default: true})
		if doErr := s.loop.Do(ctx, func() { s.closeBtn.Click() }); doErr != nil {
			return doErr
		}
		if err != nil {
			return quitErr(err)
		}
		if !again {
			return nil
		}
	}
}

func (s *Session) await(ctx context.Context) (models.Outcome, error) {
	select {
	case outcome := <-s.rendered:
		return outcome, nil
	case <-ctx.Done():
		return models.Outcome{}, ctx.Err()
	}
}

func (s *Session) showModal(ctx context.Context, outcome models.Outcome) error {
	var text string
	var visible bool
	if err := s.loop.Do(ctx, func() {
		text = s.message.Text()
		visible = s.modal.Visible()
	}); err != nil {
		return err
	}
	if visible {
		if err := s.driver.Info(ctx, Box(text)); err != nil {
			return err
		}
	}
	if !outcome.HasDownload() {
		return nil
	}

	select {
	case dl := <-s.downloads:
		if dl.err != nil {
			return s.driver.Info(ctx, "Download failed: "+appErrors.FromError(dl.err).Message)
		}
		return s.driver.Info(ctx, fmt.Sprintf("Saved %s (%d bytes)", dl.result.Path, dl.result.Bytes))
	case <-ctx.Done():
		return ctx.Err()
	}
}

// navigator downloads instead of leaving the page. Assign runs on the loop, so
// the fetch happens on its own goroutine.
type navigator struct {
	s *Session
}

func (n navigator) Assign(url string) {
	s := n.s
	ctx := s.ctx
	go func() {
		result, err := s.downloader.Download(ctx, url)
		s.downloads <- download{result: result, err: err}
	}()
}

func quitErr(err error) error {
	if errors.Is(err, ErrAborted) {
		return nil
	}
	return err
}

// Box frames msg for display as the modal.
func Box(msg string) string {
	lines := strings.Split(msg, "\n")
	width := 0
	for _, line := range lines {
		if w := utf8.RuneCountInString(line); w > width {
			width = w
		}
	}
	border := "+" + strings.Repeat("-", width+2) + "+"
	var b strings.Builder
	b.WriteString(border)
	b.WriteByte('\n')
	for _, line := range lines {
		b.WriteString("| ")
		b.WriteString(line)
		b.WriteString(strings.Repeat(" ", width-utf8.RuneCountInString(line)))
		b.WriteString(" |\n")
	}
	b.WriteString(border)
	return b.String()
}
