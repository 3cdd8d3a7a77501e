package logs

import (
	"testing"
)

func TestHandler(t *testing.T) {
	logger := NewLogger(NewWriter())
	logger.Info("test", "hello", "world!")
}
