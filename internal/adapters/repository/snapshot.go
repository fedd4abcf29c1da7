package repository

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/okian/bathlog/internal/domain/model"
	"github.com/okian/bathlog/pkg/metrics"
)

// countingWriter tracks compressed bytes written.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// WriteSnapshot writes events as zstd-compressed JSON lines, one event per
// line. It returns the compressed size.
func WriteSnapshot(w io.Writer, events []model.Event) (int64, error) {
	cw := &countingWriter{w: w}
	enc, err := zstd.NewWriter(cw)
	if err != nil {
		return 0, fmt.Errorf("open zstd writer: %w", err)
	}
	je := json.NewEncoder(enc)
	for _, e := range events {
		if err := je.Encode(e); err != nil {
			_ = enc.Close()
			return cw.n, fmt.Errorf("encode event %s: %w", e.ID, err)
		}
	}
	if err := enc.Close(); err != nil {
		return cw.n, fmt.Errorf("flush snapshot: %w", err)
	}
	metrics.RecordSnapshot("write", cw.n)
	return cw.n, nil
}

// ReadSnapshot decodes a snapshot written by WriteSnapshot. Blank lines are
// skipped; the result is normalized.
func ReadSnapshot(r io.Reader) ([]model.Event, error) {
	cr := &countingReader{r: r}
	zr, err := zstd.NewReader(cr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadSnapshot, err)
	}
	defer zr.Close()

	sc := bufio.NewScanner(zr)
	buf := make([]byte, 0, 64*1024)
	sc.Buffer(buf, 1<<20)

	var events []model.Event
	line := 0
	for sc.Scan() {
		line++
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}
		var e model.Event
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrBadSnapshot, line, err)
		}
		events = append(events, e)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadSnapshot, err)
	}
	metrics.RecordSnapshot("read", cr.n)
	normalized, _ := Normalize(events)
	return normalized, nil
}
