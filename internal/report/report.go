// Package report delivers job-status updates. The engine only produces
// results; sinks own how they surface.
package report

import (
	"github.com/Pimboto/VideoLab/internal/logging"
)

type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Update is one progress report: status, progress in [0,100], a human
// message and any output paths produced so far.
type Update struct {
	Status      Status
	Progress    float64
	Message     string
	OutputPaths []string
}

// Sink receives status updates. Implementations must tolerate being
// called from a long-running batch loop: failures to deliver are
// swallowed, never propagated into the batch.
type Sink interface {
	Report(u Update)
}

// ConsoleSink logs every update.
type ConsoleSink struct {
	Log *logging.Logger
}

func (c *ConsoleSink) Report(u Update) {
	c.Log.Infof("job: %s %.0f%% %s", u.Status, u.Progress, u.Message)
}

// MultiSink fans updates out to several sinks.
type MultiSink []Sink

func (m MultiSink) Report(u Update) {
	for _, s := range m {
		s.Report(u)
	}
}
