package pkg

import (
	"io"

	"go.uber.org/multierr"
)

// CombinedWriter fans a write out to every underlying writer. A failing
// writer does not stop the others; all failures come back combined.
type CombinedWriter struct {
	Writers []io.Writer
}

func NewCombinedWriter(writers ...io.Writer) *CombinedWriter {
	cw := &CombinedWriter{}
	for _, w := range writers {
		if w != nil {
			cw.Writers = append(cw.Writers, w)
		}
	}
	return cw
}

func (cw *CombinedWriter) Write(p []byte) (int, error) {
	var err error
	n := 0
	for _, w := range cw.Writers {
		written, werr := w.Write(p)
		if werr != nil {
			err = multierr.Append(err, werr)
			continue
		}
		n += written
	}
	return n, err
}
