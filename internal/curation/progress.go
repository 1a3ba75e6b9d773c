package curation

import "fmt"

// ProgressStatus is the state of one document within a run.
type ProgressStatus string

const (
	ProgressPending  ProgressStatus = "pending"
	ProgressWorking  ProgressStatus = "working"
	ProgressComplete ProgressStatus = "complete"
	ProgressCached   ProgressStatus = "cached"
	ProgressFailed   ProgressStatus = "failed"
)

// ProgressEvent is emitted while a Runner processes documents.
type ProgressEvent struct {
	RunID    string
	Document string
	Status   ProgressStatus
	Message  string
}

// ProgressReporter emits progress events through a buffered channel.
type ProgressReporter struct {
	ch chan ProgressEvent
}

// NewProgressReporter creates a ProgressReporter with a buffered channel of size 64.
func NewProgressReporter() *ProgressReporter {
	return &ProgressReporter{
		ch: make(chan ProgressEvent, 64),
	}
}

// Emit sends a progress event in a non-blocking fashion.
// If the channel is full, the event is silently dropped.
func (pr *ProgressReporter) Emit(event ProgressEvent) {
	select {
	case pr.ch <- event:
	default:
	}
}

// Subscribe returns a read-only channel for consuming progress events.
func (pr *ProgressReporter) Subscribe() <-chan ProgressEvent {
	return pr.ch
}

// Close closes the progress event channel.
func (pr *ProgressReporter) Close() {
	close(pr.ch)
}

// FormatProgress formats a ProgressEvent as a human-readable status line.
func FormatProgress(event ProgressEvent) string {
	switch event.Status {
	case ProgressPending:
		return fmt.Sprintf("  ○ %s (pending)", event.Document)
	case ProgressWorking:
		return fmt.Sprintf("  ● %s...", event.Document)
	case ProgressComplete:
		if event.Message != "" {
			return fmt.Sprintf("  ✓ %s complete (%s)", event.Document, event.Message)
		}
		return fmt.Sprintf("  ✓ %s complete", event.Document)
	case ProgressCached:
		return fmt.Sprintf("  ✓ %s unchanged (cached)", event.Document)
	case ProgressFailed:
		return fmt.Sprintf("  ✗ %s failed: %s", event.Document, event.Message)
	default:
		return fmt.Sprintf("  ? %s (unknown status)", event.Document)
	}
}
