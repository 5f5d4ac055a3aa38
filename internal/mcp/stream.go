package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/calcmcp/calcmcp/internal/core"
)

const maxLineBytes = 1024 * 1024

var initialStreamID = json.RawMessage("0")

// ServeStream runs the line-delimited protocol: one JSON request per input
// line, one JSON response per output line, flushed after every write.
// Requests are handled strictly in order. It returns nil when r is exhausted
// or ctx is done, even while a read on r is still blocked; that read is
// abandoned and its goroutine exits once r returns.
func (d *Dispatcher) ServeStream(ctx context.Context, r io.Reader, w io.Writer) error {
	lines := make(chan []byte)
	readErr := make(chan error, 1)
	stop := make(chan struct{})
	defer close(stop)

	go scanLines(r, lines, readErr, stop)

	out := bufio.NewWriter(w)

	// Parse errors are reported against the last id seen on this stream.
	lastID := initialStreamID

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			if err != nil {
				return fmt.Errorf("read request stream: %w", err)
			}
			return nil
		case line := <-lines:
			if ctx.Err() != nil {
				return nil
			}
			resp, ok := d.handleLine(ctx, line, &lastID)
			if !ok {
				continue
			}
			if err := writeLine(out, resp); err != nil {
				return fmt.Errorf("write response: %w", err)
			}
		}
	}
}

// scanLines feeds non-blank trimmed lines to lines and reports the scanner
// outcome on readErr once r is exhausted.
func scanLines(r io.Reader, lines chan<- []byte, readErr chan<- error, stop <-chan struct{}) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		select {
		case lines <- bytes.Clone(line):
		case <-stop:
			return
		}
	}
	readErr <- scanner.Err()
}

// handleLine returns the response for one line and whether it should be
// written at all.
func (d *Dispatcher) handleLine(ctx context.Context, line []byte, lastID *json.RawMessage) (Response, bool) {
	var req Request
	if err := json.Unmarshal(core.ReplaceNonFiniteLiterals(line), &req); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			d.logger.Error("invalid json", "err", err)
			return newErrorResponse(*lastID, ParseError(err.Error())), true
		}
		d.logger.Error("malformed request", "err", err)
		return newErrorResponse(*lastID, InternalError(err.Error())), true
	}

	if len(req.ID) > 0 {
		*lastID = req.ID
	} else {
		*lastID = initialStreamID
	}

	resp := d.Dispatch(ctx, req, ShapeFlat)
	if silentOnStream(req) {
		return resp, false
	}
	if resp.ID == nil {
		resp.ID = *lastID
	}
	return resp, true
}

// silentOnStream reports whether a request gets no output line: the
// initialized notification never does, other notifications only when they
// carry no id.
func silentOnStream(req Request) bool {
	if req.Method == MethodInitializedNotification {
		return true
	}
	return len(req.ID) == 0 && strings.HasPrefix(req.Method, "notifications/")
}

func writeLine(w *bufio.Writer, resp Response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		data, _ = json.Marshal(newErrorResponse(resp.ID, InternalError(err.Error())))
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return err
	}
	return w.Flush()
}
