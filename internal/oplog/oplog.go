// Package oplog writes escrow operation logs as structured zap entries.
package oplog

import (
	"context"

	"github.com/MarkoPoloResearchLab/escrow/pkg/escrow"
	"go.uber.org/zap"
)

const logMessage = "escrow operation"

// ZapLogger implements escrow.OperationLogger.
type ZapLogger struct {
	logger *zap.Logger
}

// New wraps a zap logger. A nil logger discards entries.
func New(logger *zap.Logger) *ZapLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapLogger{logger: logger.Named("escrow")}
}

// LogOperation emits one line per operation; failures are logged at warn level.
func (operationLogger *ZapLogger) LogOperation(_ context.Context, entry escrow.OperationLog) {
	fields := []zap.Field{
		zap.String("operation", entry.Operation),
		zap.String("status", entry.Status),
	}
	if !entry.Caller.IsZero() {
		fields = append(fields, zap.String("caller", entry.Caller.String()))
	}
	if !entry.Address.IsZero() {
		fields = append(fields, zap.String("address", entry.Address.String()))
	}
	if !entry.Listing.IsZero() {
		fields = append(fields, zap.String("listing_id", entry.Listing.String()))
	}
	if entry.Amount > 0 {
		fields = append(fields, zap.Uint64("amount", entry.Amount.Uint64()))
	}
	if entry.OwnerAmount > 0 || entry.PlatformFee > 0 {
		fields = append(fields,
			zap.Uint64("owner_amount", entry.OwnerAmount.Uint64()),
			zap.Uint64("platform_fee", entry.PlatformFee.Uint64()),
		)
	}
	if entry.Error != nil {
		fields = append(fields, zap.Error(entry.Error))
		operationLogger.logger.Warn(logMessage, fields...)
		return
	}
	operationLogger.logger.Info(logMessage, fields...)
}
