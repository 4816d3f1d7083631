package providers

import (
	"bufio"
	"context"
	"io"
	"strings"
)

// sseDone is the end-of-stream marker sent by OpenAI-style APIs.
const sseDone = "[DONE]"

// SSEReader reads "data: " frames from a Server-Sent Events body.
type SSEReader struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	done    bool
}

// NewSSEReader wraps body. The reader owns body and closes it in Close.
func NewSSEReader(body io.ReadCloser) *SSEReader {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &SSEReader{body: body, scanner: scanner}
}

// Next returns the payload of the next data frame.
// It returns io.EOF after the [DONE] marker or when the body ends.
func (r *SSEReader) Next(ctx context.Context) (string, error) {
	if r.done {
		return "", io.EOF
	}

	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		if !r.scanner.Scan() {
			if err := r.scanner.Err(); err != nil {
				return "", err
			}
			r.done = true
			return "", io.EOF
		}

		data, ok := strings.CutPrefix(r.scanner.Text(), "data: ")
		if !ok {
			// Comments, event names and keep-alive blank lines.
			continue
		}
		if strings.TrimSpace(data) == sseDone {
			r.done = true
			return "", io.EOF
		}
		return data, nil
	}
}

// Close closes the underlying body.
func (r *SSEReader) Close() error {
	r.done = true
	return r.body.Close()
}
