package snmp

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gosnmp/gosnmp"
)

// slogBridge feeds gosnmp's internal tracing into slog at debug level.
type slogBridge struct {
	logger *slog.Logger
}

func (b slogBridge) Print(v ...interface{}) {
	b.logger.Debug(fmt.Sprint(v...), "component", "gosnmp")
}

func (b slogBridge) Printf(format string, v ...interface{}) {
	b.logger.Debug(fmt.Sprintf(format, v...), "component", "gosnmp")
}

// NewLogger returns a gosnmp logger writing through logger, or the silent
// default when debug logging is off.
func NewLogger(logger *slog.Logger) gosnmp.Logger {
	if logger == nil || !logger.Enabled(context.Background(), slog.LevelDebug) {
		return gosnmp.Logger{}
	}
	return gosnmp.NewLogger(slogBridge{logger: logger})
}
