// Package stream decodes text/event-stream bodies into discrete chat events.
//
// The wire format is one JSON object per "data:" line, frames separated by a
// blank line. Chunk boundaries carry no meaning: a chunk may end mid-line or
// mid-character, and the decoder carries the unresolved tail across Feed
// calls.
package stream

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/rs/zerolog/log"
)

// Handler receives one parsed event. Returning an error stops the decode.
type Handler func(Event) error

// Decoder accumulates raw chunks and cuts them into frames. Each instance
// owns its buffer and serves exactly one stream; instances are not safe for
// concurrent use, but independent instances are.
type Decoder struct {
	buf   []byte
	index int
}

func NewDecoder() *Decoder {
	return &Decoder{}
}

// Feed appends a raw chunk and returns the events completed by it, in wire
// order. Bytes stay buffered until a frame terminator is seen, so a UTF-8
// sequence split across chunks is whole again before any string conversion
// (a line feed is never a continuation byte).
func (d *Decoder) Feed(chunk []byte) []Event {
	d.buf = append(d.buf, chunk...)

	var events []Event
	for {
		frame, rest, ok := cutFrame(d.buf)
		if !ok {
			break
		}
		d.buf = rest
		events = append(events, d.parseFrame(frame)...)
	}
	return events
}

// Flush handles end-of-stream: a final frame that arrived without a trailing
// blank line is still processed. The buffer is discarded either way.
func (d *Decoder) Flush() []Event {
	frame := bytes.TrimSpace(d.buf)
	d.buf = nil
	if len(frame) == 0 {
		return nil
	}
	return d.parseFrame(frame)
}

// cutFrame finds the first blank-line terminator (\n\n, tolerating \r) and
// returns the frame before it and the remainder after it.
func cutFrame(buf []byte) (frame, rest []byte, ok bool) {
	for i := 0; i < len(buf); i++ {
		if buf[i] != '\n' {
			continue
		}
		j := i + 1
		if j < len(buf) && buf[j] == '\r' {
			j++
		}
		if j < len(buf) && buf[j] == '\n' {
			return buf[:i], buf[j+1:], true
		}
	}
	return nil, buf, false
}

// parseFrame extracts payload lines from one frame. Lines without the data
// prefix are ignored; a payload that fails to parse is logged and skipped,
// never fatal. Each payload line yields its own event.
func (d *Decoder) parseFrame(frame []byte) []Event {
	var events []Event
	for _, raw := range strings.Split(string(frame), "\n") {
		line := strings.TrimSuffix(raw, "\r")
		if line == "" {
			continue
		}
		payload, ok := strings.CutPrefix(line, "data:")
		if !ok {
			continue
		}
		payload = strings.TrimLeft(payload, " \t")

		ev, err := parseEvent(payload)
		if err != nil {
			log.Debug().Err(err).Str("payload", truncate(payload, 120)).Msg("dropping malformed event payload")
			continue
		}
		ev.Index = d.index
		d.index++
		events = append(events, ev)
	}
	return events
}

// Decode drives reader through dec until end-of-stream, invoking fn once per
// event in arrival order. Outcomes are distinguishable: nil on clean end,
// ctx.Err() on cancellation, the reader's error on source failure, and fn's
// error if the consumer aborts. On cancellation or failure no partial frame
// is emitted; only a clean end flushes the final unterminated frame.
func Decode(ctx context.Context, r io.Reader, fn Handler) error {
	dec := NewDecoder()
	buf := make([]byte, 32*1024)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, readErr := r.Read(buf)
		if n > 0 {
			if err := emit(dec.Feed(buf[:n]), fn); err != nil {
				return err
			}
		}
		if readErr == io.EOF {
			return emit(dec.Flush(), fn)
		}
		if readErr != nil {
			// A canceled request surfaces as a body read error; report
			// it as cancellation, not as a source failure.
			if err := ctx.Err(); err != nil {
				return err
			}
			return readErr
		}
	}
}

func emit(events []Event, fn Handler) error {
	for _, ev := range events {
		if err := fn(ev); err != nil {
			return err
		}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
