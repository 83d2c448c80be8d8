package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/admitcard-query/internal/dto"
	appErrors "github.com/noah-isme/admitcard-query/pkg/errors"
)

// FileStore persists downloaded content.
type FileStore interface {
	SaveStream(filename string, r io.Reader) (string, error)
	Path(filename string) string
}

// DownloadResult describes a saved file.
type DownloadResult struct {
	URL      string
	Filename string
	Path     string
	Bytes    int64
}

// DownloadService fetches URLs the page navigates to and stores the files.
type DownloadService struct {
	client  *http.Client
	base    *url.URL
	store   FileStore
	logger  *zap.Logger
	metrics *MetricsService
}

// NewDownloadService resolves relative URLs against baseURL.
func NewDownloadService(client *http.Client, baseURL string, store FileStore, logger *zap.Logger, metrics *MetricsService) (*DownloadService, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DownloadService{client: client, base: base, store: store, logger: logger, metrics: metrics}, nil
}

// Resolve turns a possibly relative file URL into an absolute one.
func (s *DownloadService) Resolve(rawURL string) (*url.URL, error) {
	ref, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("parse file url: %w", err)
	}
	return s.base.ResolveReference(ref), nil
}

// Download fetches rawURL and saves the body.
func (s *DownloadService) Download(ctx context.Context, rawURL string) (*DownloadResult, error) {
	result, err := s.download(ctx, rawURL)
	s.metrics.RecordDownload(err)
	if err != nil {
		s.logger.Warn("download_failed", zap.String("url", rawURL), zap.Error(err))
		return nil, err
	}
	s.logger.Info("download_saved",
		zap.String("url", result.URL),
		zap.String("path", result.Path),
		zap.Int64("bytes", result.Bytes),
	)
	return result, nil
}

func (s *DownloadService) download(ctx context.Context, rawURL string) (*DownloadResult, error) {
	target, err := s.Resolve(rawURL)
	if err != nil {
		return nil, appErrors.WithStatus(appErrors.ErrDownloadFailed, 0, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, appErrors.WithStatus(appErrors.ErrDownloadFailed, 0, err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, appErrors.WithStatus(appErrors.ErrDownloadFailed, 0, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		dlErr := appErrors.WithStatus(appErrors.ErrDownloadFailed, resp.StatusCode, fmt.Errorf("unexpected status %d", resp.StatusCode))
		var payload dto.ErrorResponse
		if body, readErr := io.ReadAll(io.LimitReader(resp.Body, 64<<10)); readErr == nil && json.Unmarshal(body, &payload) == nil && payload.Error != "" {
			dlErr.Message = payload.Error
		}
		return nil, dlErr
	}

	filename := FilenameFor(target, resp.Header.Get("Content-Disposition"))
	counter := &countingReader{r: resp.Body}
	stored, err := s.store.SaveStream(filename, counter)
	if err != nil {
		return nil, appErrors.WithStatus(appErrors.ErrDownloadFailed, resp.StatusCode, err)
	}

	return &DownloadResult{
		URL:      target.String(),
		Filename: stored,
		Path:     s.store.Path(stored),
		Bytes:    counter.n,
	}, nil
}

// FilenameFor picks the name to save a download under: the
// Content-Disposition filename, then the base of a "path" query parameter
// (the admit card service links /download?path=AdmitCards/<id>-<name>.pdf),
// then the last URL path segment.
func FilenameFor(target *url.URL, contentDisposition string) string {
	if contentDisposition != "" {
		if _, params, err := mime.ParseMediaType(contentDisposition); err == nil {
			if name := strings.TrimSpace(params["filename"]); name != "" {
				return name
			}
		}
	}
	if p := strings.TrimSpace(target.Query().Get("path")); p != "" {
		if name := path.Base(strings.ReplaceAll(p, "\\", "/")); name != "." && name != "/" {
			return name
		}
	}
	if name := path.Base(target.Path); name != "." && name != "/" && name != "" {
		return name
	}
	return "download"
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
