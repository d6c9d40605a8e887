// Package sse decodes server-sent-event streams into discrete named events.
package sse

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/datalens-ai/analytics-console/pkg/metrics"
)

const (
	eventPrefix = "event:"
	dataPrefix  = "data:"

	// doneSentinel terminates nothing by itself; it is swallowed silently.
	doneSentinel = "[DONE]"

	// UnknownEvent names data lines that arrive before any event: line.
	UnknownEvent = "unknown"
)

// Event is one decoded (name, payload) pair.
type Event struct {
	Name string
	Data json.RawMessage
}

// Decoder assembles events from raw chunks arriving at arbitrary boundaries.
// It holds exactly the partial-line buffer and the pending event name; nothing
// already yielded is ever revisited.
type Decoder struct {
	buf     []byte
	pending string
}

// NewDecoder returns a decoder ready to accept chunks.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Feed appends a chunk to the rolling buffer and returns all events completed
// by it, in arrival order. A trailing partial line is retained for the next
// chunk; it is never yielded on its own.
func (d *Decoder) Feed(chunk []byte) []Event {
	d.buf = append(d.buf, chunk...)

	var events []Event
	for {
		idx := bytes.IndexByte(d.buf, '\n')
		if idx < 0 {
			break
		}
		line := string(d.buf[:idx])
		d.buf = d.buf[idx+1:]

		if ev, ok := d.decodeLine(line); ok {
			events = append(events, ev)
		}
	}
	return events
}

func (d *Decoder) decodeLine(line string) (Event, bool) {
	line = strings.TrimSuffix(line, "\r")

	switch {
	case strings.HasPrefix(line, eventPrefix):
		d.pending = strings.TrimSpace(line[len(eventPrefix):])
		return Event{}, false

	case strings.HasPrefix(line, dataPrefix):
		data := strings.TrimSpace(line[len(dataPrefix):])
		if data == doneSentinel {
			return Event{}, false
		}
		if !json.Valid([]byte(data)) {
			// Malformed data lines never abort the stream.
			metrics.DecodeDropsTotal.Inc()
			return Event{}, false
		}
		name := d.pending
		if name == "" {
			name = UnknownEvent
		}
		metrics.RecordEvent(name)
		return Event{Name: name, Data: json.RawMessage(data)}, true
	}

	return Event{}, false
}

// Stream reads the body to completion, feeding the decoder and invoking fn for
// every event. It returns when the body ends, fn returns an error, or the
// context is canceled. No timeout is imposed here; that is the HTTP client's
// concern.
func Stream(ctx context.Context, body io.Reader, fn func(Event) error) error {
	d := NewDecoder()
	buf := make([]byte, 4096)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, err := body.Read(buf)
		if n > 0 {
			for _, ev := range d.Feed(buf[:n]) {
				if fnErr := fn(ev); fnErr != nil {
					return fnErr
				}
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
