package payment

import (
	"context"

	"go.uber.org/zap"
)

// LogAlerter reports operator alerts through the service logger. It stands in
// for a paging integration; the distinctive message is what monitoring keys
// on.
type LogAlerter struct {
	lg *zap.Logger
}

// NewLogAlerter creates a LogAlerter.
func NewLogAlerter(lg *zap.Logger) *LogAlerter {
	return &LogAlerter{lg: lg}
}

// Alert logs the failure at error level with an alert marker.
func (a *LogAlerter) Alert(_ context.Context, msg string, err error) {
	a.lg.Error("OPERATOR ALERT: "+msg, zap.Error(err))
}
