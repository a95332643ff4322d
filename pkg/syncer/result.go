package syncer

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Direction is the direction of a sync pass
type Direction string

const (
	DirectionUpload   Direction = "upload"
	DirectionDownload Direction = "download"
)

// Status is the outcome of one file
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// Kind classifies why a file did not succeed
type Kind string

const (
	KindNone           Kind = ""
	KindPathNotFound   Kind = "path_not_found"
	KindLocalRead      Kind = "local_read"
	KindAuthentication Kind = "authentication"
	KindRemote         Kind = "remote"
	KindDecodeOrWrite  Kind = "decode_or_write"
	KindTransport      Kind = "transport"
)

// ErrConfiguration is returned when the token or repository is missing.
// No I/O happens in that case.
var ErrConfiguration = errors.New("configuration error: missing GitHub token or repository")

// RestartWarning is appended to a download report when the host's core
// configuration file was replaced
const RestartWarning = "⚠️ Core configuration file updated. Restart the host process for it to take effect."

// Result is the outcome for one path in a pass
type Result struct {
	Direction  Direction `json:"direction"`
	LocalPath  string    `json:"local_path"`
	RemotePath string    `json:"remote_path"`
	Status     Status    `json:"status"`
	Kind       Kind      `json:"kind,omitempty"`
	HTTPStatus int       `json:"http_status,omitempty"`
	Bytes      int       `json:"bytes,omitempty"`
	Created    bool      `json:"created,omitempty"`
	Err        error     `json:"-"`
	// Body is the message returned by GitHub on a failed exchange
	Body string `json:"body,omitempty"`
}

// Line renders the result as one human-readable report line
func (r Result) Line() string {
	switch r.Status {
	case StatusSuccess:
		if r.Direction == DirectionDownload {
			return fmt.Sprintf("✅ Downloaded: %s", r.LocalPath)
		}
		return fmt.Sprintf("✅ Uploaded: %s", r.RemotePath)
	case StatusSkipped:
		return fmt.Sprintf("❌ (skipped) Local file not found: %s", r.LocalPath)
	}

	switch r.Kind {
	case KindAuthentication:
		return fmt.Sprintf("❌ Invalid token (%s %s), remaining files aborted", r.Direction, r.RemotePath)
	case KindRemote:
		if r.Direction == DirectionDownload {
			return fmt.Sprintf("❌ Download failed %s: %s", r.RemotePath, r.detail())
		}
		return fmt.Sprintf("❌ Upload failed %s: %s", r.RemotePath, r.detail())
	case KindDecodeOrWrite:
		return fmt.Sprintf("❌ Write failed %s: %v", r.LocalPath, r.Err)
	case KindLocalRead:
		return fmt.Sprintf("❌ Read failed %s: %v", r.LocalPath, r.Err)
	default:
		return fmt.Sprintf("❌ Error %s: %v", r.RemotePath, r.Err)
	}
}

// detail is the HTTP status when the remote rejected the request with a
// non-200 status, the error text otherwise
func (r Result) detail() string {
	if r.HTTPStatus != 0 && r.HTTPStatus != 200 {
		return strconv.Itoa(r.HTTPStatus)
	}
	if r.Err != nil {
		return r.Err.Error()
	}
	return "unknown error"
}

// Report aggregates the results of one pass
type Report struct {
	PassID          string        `json:"pass_id"`
	Direction       Direction     `json:"direction"`
	Repository      string        `json:"repository"`
	Keyword         string        `json:"keyword,omitempty"`
	Targets         int           `json:"targets"`
	Results         []Result      `json:"results"`
	RestartRequired bool          `json:"restart_required"`
	Aborted         bool          `json:"aborted"`
	Notice          string        `json:"notice,omitempty"`
	Err             error         `json:"-"`
	Started         time.Time     `json:"started"`
	Duration        time.Duration `json:"duration"`
}

// Count returns the number of results with the given status
func (r *Report) Count(status Status) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == status {
			n++
		}
	}
	return n
}

// Failed reports whether any file failed or the pass could not start
func (r *Report) Failed() bool {
	return r.Err != nil || r.Count(StatusFailed) > 0
}

// Lines returns the report lines in order
func (r *Report) Lines() []string {
	lines := make([]string, 0, len(r.Results)+1)
	if r.Notice != "" {
		lines = append(lines, r.Notice)
	}
	for _, res := range r.Results {
		lines = append(lines, res.Line())
	}
	return lines
}

// String joins the lines with newlines and appends the restart warning
func (r *Report) String() string {
	s := strings.Join(r.Lines(), "\n")
	if r.RestartRequired {
		s += "\n\n" + RestartWarning
	}
	return s
}
