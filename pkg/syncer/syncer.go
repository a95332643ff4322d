package syncer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"reposync/pkg/config"
	"reposync/pkg/github"
)

// RemoteClient is the subset of the Contents API a pass needs
type RemoteClient interface {
	GetFile(ctx context.Context, repo, path string) (*github.RemoteFile, error)
	PutFile(ctx context.Context, repo, path string, content []byte, sha, message string) (*github.PutResult, error)
}

// ClientFactory builds a client for the configuration of one pass
type ClientFactory func(cfg *config.Config) (RemoteClient, error)

// Recorder receives pass outcomes, typically for metrics
type Recorder interface {
	ObserveResult(result Result)
	ObservePass(report *Report)
}

// DefaultClientFactory builds a go-github backed client
func DefaultClientFactory(cfg *config.Config) (RemoteClient, error) {
	return github.NewClient(cfg.GitHubToken, github.WithEnterpriseURL(cfg.GitHubAPIURL))
}

// Syncer runs upload and download passes. Passes of the same direction are
// serialized; an upload and a download may overlap.
type Syncer struct {
	store     config.Store
	newClient ClientFactory
	fs        afero.Fs
	logger    *zap.Logger
	recorder  Recorder
	permits   map[Direction]chan struct{}
}

// Option customizes a Syncer
type Option func(*Syncer)

// WithFs sets the filesystem local paths are resolved against
func WithFs(fs afero.Fs) Option {
	return func(s *Syncer) { s.fs = fs }
}

// WithClientFactory replaces the GitHub client constructor
func WithClientFactory(factory ClientFactory) Option {
	return func(s *Syncer) { s.newClient = factory }
}

// WithLogger sets the logger used for diagnostics
func WithLogger(logger *zap.Logger) Option {
	return func(s *Syncer) { s.logger = logger }
}

// WithRecorder sets the metrics recorder
func WithRecorder(recorder Recorder) Option {
	return func(s *Syncer) { s.recorder = recorder }
}

// New creates a Syncer reading its configuration from store on every pass
func New(store config.Store, opts ...Option) *Syncer {
	s := &Syncer{
		store:     store,
		newClient: DefaultClientFactory,
		fs:        afero.NewOsFs(),
		logger:    zap.NewNop(),
		permits: map[Direction]chan struct{}{
			DirectionUpload:   make(chan struct{}, 1),
			DirectionDownload: make(chan struct{}, 1),
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Upload pushes every configured path matching keyword to the repository
func (s *Syncer) Upload(ctx context.Context, keyword string, reporter Reporter) (*Report, error) {
	return s.run(ctx, DirectionUpload, keyword, reporter)
}

// Download pulls every configured path matching keyword from the repository
func (s *Syncer) Download(ctx context.Context, keyword string, reporter Reporter) (*Report, error) {
	return s.run(ctx, DirectionDownload, keyword, reporter)
}

func (s *Syncer) run(ctx context.Context, direction Direction, keyword string, reporter Reporter) (*Report, error) {
	if reporter == nil {
		reporter = NopReporter{}
	}

	report := &Report{
		PassID:    uuid.NewString(),
		Direction: direction,
		Keyword:   keyword,
		Started:   time.Now(),
	}
	logger := s.logger.With(zap.String("pass_id", report.PassID), zap.String("direction", string(direction)))

	release, err := s.acquire(ctx, direction)
	if err != nil {
		return s.fail(report, reporter, fmt.Errorf("waiting for running %s pass: %w", direction, err))
	}
	defer release()

	cfg, err := s.store.Load()
	if err != nil {
		return s.fail(report, reporter, fmt.Errorf("failed to load configuration: %w", err))
	}

	report.Repository = SanitizeRepo(cfg.GitHubRepo)
	if cfg.GitHubToken == "" || report.Repository == "" {
		return s.fail(report, reporter, ErrConfiguration)
	}

	targets := FilterPaths(cfg.SyncPaths, keyword)
	if len(targets) == 0 {
		if keyword == "" || strings.EqualFold(keyword, "all") {
			report.Notice = "No sync paths configured"
		} else {
			report.Notice = fmt.Sprintf("No sync paths match '%s'", keyword)
		}
		s.finish(report, reporter)
		return report, nil
	}

	client, err := s.newClient(cfg)
	if err != nil {
		return s.fail(report, reporter, fmt.Errorf("failed to create GitHub client: %w", err))
	}

	report.Targets = len(targets)
	reporter.Start(report)
	logger.Debug("sync pass started", zap.String("repository", report.Repository), zap.Int("targets", report.Targets))

	for _, target := range targets {
		localPath := strings.TrimSpace(target)
		if localPath == "" {
			continue
		}

		if ctx.Err() != nil {
			report.Aborted = true
			report.Err = ctx.Err()
			report.Notice = fmt.Sprintf("%s pass cancelled", direction)
			break
		}

		var result Result
		var abort bool
		if direction == DirectionUpload {
			result, abort = s.uploadOne(ctx, client, cfg, report.Repository, localPath)
		} else {
			result, abort = s.downloadOne(ctx, client, cfg, report.Repository, localPath)
			if result.Status == StatusSuccess && strings.Contains(filepath.Base(localPath), cfg.RestartMarkerOrDefault()) {
				report.RestartRequired = true
			}
		}

		report.Results = append(report.Results, result)
		reporter.Result(result)
		if s.recorder != nil {
			s.recorder.ObserveResult(result)
		}

		if abort {
			report.Aborted = true
			logger.Warn("sync pass aborted", zap.String("path", result.RemotePath), zap.Error(result.Err))
			break
		}
	}

	s.finish(report, reporter)
	return report, report.Err
}

// uploadOne pushes one file. abort is true when the rest of the batch must
// not be attempted.
func (s *Syncer) uploadOne(ctx context.Context, client RemoteClient, cfg *config.Config, repo, localPath string) (Result, bool) {
	result := Result{
		Direction:  DirectionUpload,
		LocalPath:  localPath,
		RemotePath: RemotePath(localPath),
	}

	if _, err := s.fs.Stat(localPath); err != nil && errors.Is(err, os.ErrNotExist) {
		result.Status = StatusSkipped
		result.Kind = KindPathNotFound
		return result, false
	}

	content, err := afero.ReadFile(s.fs, localPath)
	if err != nil {
		return failed(result, KindLocalRead, err), false
	}
	result.Bytes = len(content)

	sha := ""
	existing, err := client.GetFile(ctx, repo, result.RemotePath)
	switch {
	case err == nil:
		sha = existing.SHA
	case github.IsAuthError(err):
		return remoteFailure(result, err), true
	case !respondedWithoutContent(err):
		return remoteFailure(result, err), isCancellation(err)
	}

	put, err := client.PutFile(ctx, repo, result.RemotePath, content, sha, cfg.CommitMessageFor(result.RemotePath))
	if err != nil {
		return remoteFailure(result, err), github.IsAuthError(err) || isCancellation(err)
	}

	result.HTTPStatus = put.StatusCode
	if put.StatusCode != http.StatusOK && put.StatusCode != http.StatusCreated {
		result.Status = StatusFailed
		result.Kind = KindRemote
		return result, false
	}

	result.Status = StatusSuccess
	result.Created = put.Created
	return result, false
}

// downloadOne pulls one file and writes it, creating parent directories
func (s *Syncer) downloadOne(ctx context.Context, client RemoteClient, _ *config.Config, repo, localPath string) (Result, bool) {
	result := Result{
		Direction:  DirectionDownload,
		LocalPath:  localPath,
		RemotePath: RemotePath(localPath),
	}

	file, err := client.GetFile(ctx, repo, result.RemotePath)
	if err != nil {
		return remoteFailure(result, err), github.IsAuthError(err) || isCancellation(err)
	}
	result.HTTPStatus = http.StatusOK

	content, err := file.Decode()
	if err != nil {
		return failed(result, KindDecodeOrWrite, err), false
	}

	if dir := filepath.Dir(localPath); dir != "." {
		if err := s.fs.MkdirAll(dir, 0755); err != nil {
			return failed(result, KindDecodeOrWrite, err), false
		}
	}

	if err := afero.WriteFile(s.fs, localPath, content, 0644); err != nil {
		return failed(result, KindDecodeOrWrite, err), false
	}

	result.Status = StatusSuccess
	result.Bytes = len(content)
	return result, false
}

// respondedWithoutContent reports whether the metadata lookup got an HTTP
// answer other than 200, meaning there is no blob to update
func respondedWithoutContent(err error) bool {
	status := github.StatusCode(err)
	return status != 0 && status != http.StatusOK
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func failed(result Result, kind Kind, err error) Result {
	result.Status = StatusFailed
	result.Kind = kind
	result.Err = err
	return result
}

// remoteFailure classifies an error from the GitHub client
func remoteFailure(result Result, err error) Result {
	result.Status = StatusFailed
	result.Err = err
	result.HTTPStatus = github.StatusCode(err)

	var apiErr *github.Error
	if errors.As(err, &apiErr) {
		result.Body = apiErr.Body
	}

	switch {
	case github.IsAuthError(err):
		result.Kind = KindAuthentication
	case result.HTTPStatus != 0:
		result.Kind = KindRemote
	default:
		result.Kind = KindTransport
	}
	return result
}

func (s *Syncer) acquire(ctx context.Context, direction Direction) (func(), error) {
	permit := s.permits[direction]
	select {
	case permit <- struct{}{}:
		return func() { <-permit }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// fail ends a pass that never reached the file loop
func (s *Syncer) fail(report *Report, reporter Reporter, err error) (*Report, error) {
	report.Err = err
	report.Notice = err.Error()
	s.finish(report, reporter)
	return report, err
}

func (s *Syncer) finish(report *Report, reporter Reporter) {
	report.Duration = time.Since(report.Started)
	reporter.Finish(report)
	if s.recorder != nil {
		s.recorder.ObservePass(report)
	}
}
