package logs

import (
	"io"
	"os"
)

type Writer io.Writer

// NewWriter returns the default log destination: the process's stderr.
func NewWriter() Writer {
	return os.Stderr
}
