package syncer

import (
	"fmt"
	"io"

	"github.com/cheggaaa/pb/v3"
	"go.uber.org/zap"
)

// Reporter observes a pass as it runs. Start is only called once the pass
// reaches its file loop; Finish is always called.
type Reporter interface {
	Start(report *Report)
	Result(result Result)
	Finish(report *Report)
}

// NopReporter discards everything
type NopReporter struct{}

func (NopReporter) Start(*Report)  {}
func (NopReporter) Result(Result)  {}
func (NopReporter) Finish(*Report) {}

// Reporters fans out to several reporters in order
type Reporters []Reporter

func (rs Reporters) Start(report *Report) {
	for _, r := range rs {
		r.Start(report)
	}
}

func (rs Reporters) Result(result Result) {
	for _, r := range rs {
		r.Result(result)
	}
}

func (rs Reporters) Finish(report *Report) {
	for _, r := range rs {
		r.Finish(report)
	}
}

// WriterReporter prints the human-readable report
type WriterReporter struct {
	W io.Writer
}

// NewWriterReporter creates a reporter printing to w
func NewWriterReporter(w io.Writer) *WriterReporter {
	return &WriterReporter{W: w}
}

func (r *WriterReporter) Start(report *Report) {
	fmt.Fprintf(r.W, "Starting %s of %d files...\n", report.Direction, report.Targets)
}

func (r *WriterReporter) Result(Result) {}

func (r *WriterReporter) Finish(report *Report) {
	if out := report.String(); out != "" {
		fmt.Fprintln(r.W, out)
	}
}

// LogReporter writes one structured entry per result
type LogReporter struct {
	logger *zap.Logger
}

// NewLogReporter creates a reporter logging through logger
func NewLogReporter(logger *zap.Logger) *LogReporter {
	return &LogReporter{logger: logger}
}

func (r *LogReporter) Start(report *Report) {
	r.logger.Info("sync pass started",
		zap.String("pass_id", report.PassID),
		zap.String("direction", string(report.Direction)),
		zap.String("repository", report.Repository),
		zap.Int("targets", report.Targets),
	)
}

func (r *LogReporter) Result(result Result) {
	fields := []zap.Field{
		zap.String("direction", string(result.Direction)),
		zap.String("local_path", result.LocalPath),
		zap.String("remote_path", result.RemotePath),
		zap.String("status", string(result.Status)),
	}

	if result.Status != StatusFailed {
		r.logger.Info(result.Line(), fields...)
		return
	}

	fields = append(fields, zap.String("kind", string(result.Kind)))
	if result.HTTPStatus != 0 {
		fields = append(fields, zap.Int("http_status", result.HTTPStatus))
	}
	if result.Body != "" {
		fields = append(fields, zap.String("body", result.Body))
	}
	if result.Err != nil {
		fields = append(fields, zap.Error(result.Err))
	}
	r.logger.Error(result.Line(), fields...)
}

func (r *LogReporter) Finish(report *Report) {
	fields := []zap.Field{
		zap.String("pass_id", report.PassID),
		zap.String("direction", string(report.Direction)),
	}

	if report.Err != nil {
		r.logger.Error(report.Notice, append(fields, zap.Error(report.Err))...)
		return
	}
	if report.Notice != "" {
		r.logger.Info(report.Notice, fields...)
		return
	}

	r.logger.Info("sync pass finished", append(fields,
		zap.Int("succeeded", report.Count(StatusSuccess)),
		zap.Int("failed", report.Count(StatusFailed)),
		zap.Int("skipped", report.Count(StatusSkipped)),
		zap.Bool("aborted", report.Aborted),
		zap.Duration("duration", report.Duration),
	)...)

	if report.RestartRequired {
		r.logger.Warn(RestartWarning, fields...)
	}
}

const progressTemplate = `{{string . "direction"}} {{counters . }} {{bar . }} {{percent . }}`

// ProgressReporter draws a progress bar while files are transferred
type ProgressReporter struct {
	w   io.Writer
	bar *pb.ProgressBar
}

// NewProgressReporter creates a progress bar writing to w
func NewProgressReporter(w io.Writer) *ProgressReporter {
	return &ProgressReporter{w: w}
}

func (r *ProgressReporter) Start(report *Report) {
	r.bar = pb.New(report.Targets)
	r.bar.SetWriter(r.w)
	r.bar.SetTemplateString(progressTemplate)
	r.bar.Set("direction", string(report.Direction))
	r.bar.Start()
}

func (r *ProgressReporter) Result(Result) {
	if r.bar != nil {
		r.bar.Increment()
	}
}

func (r *ProgressReporter) Finish(*Report) {
	if r.bar != nil {
		r.bar.Finish()
		r.bar = nil
	}
}
