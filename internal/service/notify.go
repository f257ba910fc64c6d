package service

import (
	"context"

	"github.com/Harshitk-cp/tenantgate/internal/domain"
	"go.uber.org/zap"
)

// publish emits e after the state change it describes has been stored.
// Delivery failures are logged and never undo or fail the operation.
func publish(ctx context.Context, pub domain.EventPublisher, logger *zap.Logger, e domain.Event) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, e); err != nil {
		logger.Warn("failed to publish event",
			zap.String("type", string(e.Type)),
			zap.String("tenant_id", e.TenantID.String()),
			zap.String("subject_id", e.SubjectID.String()),
			zap.Error(err))
	}
}
