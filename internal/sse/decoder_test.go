package sse

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleStream = "event: thinking\n" +
	"data: {\"status\":\"Working...\"}\n\n" +
	"event: sql_generated\n" +
	"data: {\"sql\":\"SELECT 1\"}\n\n" +
	"event: complete\n" +
	"data: {\"success\":true}\n\n" +
	"data: [DONE]\n\n"

func feedAll(t *testing.T, d *Decoder, input string, chunkSize int) []Event {
	t.Helper()
	var events []Event
	for i := 0; i < len(input); i += chunkSize {
		end := i + chunkSize
		if end > len(input) {
			end = len(input)
		}
		events = append(events, d.Feed([]byte(input[i:end]))...)
	}
	return events
}

func TestDecoderSingleChunk(t *testing.T) {
	events := NewDecoder().Feed([]byte(sampleStream))

	require.Len(t, events, 3)
	assert.Equal(t, "thinking", events[0].Name)
	assert.JSONEq(t, `{"status":"Working..."}`, string(events[0].Data))
	assert.Equal(t, "sql_generated", events[1].Name)
	assert.Equal(t, "complete", events[2].Name)
}

func TestDecoderChunkBoundaryInvariance(t *testing.T) {
	// The decoded sequence must not depend on where chunks split.
	whole := NewDecoder().Feed([]byte(sampleStream))

	for _, size := range []int{1, 2, 3, 5, 7, 13, 64} {
		chunked := feedAll(t, NewDecoder(), sampleStream, size)
		assert.Equal(t, whole, chunked, "chunk size %d", size)
	}
}

func TestDecoderPartialLineHeldBack(t *testing.T) {
	d := NewDecoder()

	events := d.Feed([]byte("event: thinking\ndata: {\"sta"))
	assert.Empty(t, events)

	events = d.Feed([]byte("tus\":\"ok\"}\n"))
	require.Len(t, events, 1)
	assert.Equal(t, "thinking", events[0].Name)
	assert.JSONEq(t, `{"status":"ok"}`, string(events[0].Data))
}

func TestDecoderDoneSentinelSwallowed(t *testing.T) {
	events := NewDecoder().Feed([]byte("data: [DONE]\n\n"))
	assert.Empty(t, events)
}

func TestDecoderMalformedJSONDropped(t *testing.T) {
	d := NewDecoder()

	events := d.Feed([]byte("event: analysis\ndata: {not json}\n\n"))
	assert.Empty(t, events)

	// The decoder keeps going after a drop.
	events = d.Feed([]byte("event: analysis\ndata: {\"summary\":\"ok\"}\n\n"))
	require.Len(t, events, 1)
	assert.Equal(t, "analysis", events[0].Name)
}

func TestDecoderDataWithoutEventName(t *testing.T) {
	events := NewDecoder().Feed([]byte("data: {\"x\":1}\n\n"))

	require.Len(t, events, 1)
	assert.Equal(t, UnknownEvent, events[0].Name)
}

func TestDecoderCRLFLines(t *testing.T) {
	input := "event: thinking\r\ndata: {\"status\":\"ok\"}\r\n\r\n"
	events := NewDecoder().Feed([]byte(input))

	require.Len(t, events, 1)
	assert.Equal(t, "thinking", events[0].Name)
	assert.JSONEq(t, `{"status":"ok"}`, string(events[0].Data))
}

func TestDecoderEventNameCarriesToNextData(t *testing.T) {
	d := NewDecoder()

	// Once set, the pending name applies until replaced.
	events := d.Feed([]byte("event: thinking\ndata: {\"a\":1}\n\ndata: {\"b\":2}\n\n"))
	require.Len(t, events, 2)
	assert.Equal(t, "thinking", events[0].Name)
	assert.Equal(t, "thinking", events[1].Name)
}

func TestStreamReadsToEOF(t *testing.T) {
	var names []string
	err := Stream(context.Background(), strings.NewReader(sampleStream), func(ev Event) error {
		names = append(names, ev.Name)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"thinking", "sql_generated", "complete"}, names)
}

func TestStreamCallbackErrorAborts(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	err := Stream(context.Background(), strings.NewReader(sampleStream), func(ev Event) error {
		calls++
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestStreamContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Stream(ctx, strings.NewReader(sampleStream), func(ev Event) error {
		t.Fatal("callback should not run after cancellation")
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
}
