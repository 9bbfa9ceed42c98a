package shared

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAuditLoggerRecord(t *testing.T) {
	var buf bytes.Buffer
	logger := NewAuditLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	err := logger.Record(context.Background(), AuditLog{
		Actor:    "procurement.lead",
		Action:   "order.approved",
		Entity:   "purchase order",
		EntityID: "PO-20261016-0001",
		Meta:     map[string]any{"from": "sent"},
	})
	require.NoError(t, err)
	require.Contains(t, buf.String(), `"action":"order.approved"`)
	require.Contains(t, buf.String(), `"channel":"audit"`)
	require.Contains(t, buf.String(), `"from":"sent"`)
}

func TestAuditLoggerRequiresFields(t *testing.T) {
	logger := NewAuditLogger(nil)
	require.Error(t, logger.Record(context.Background(), AuditLog{Action: "x"}))

	var nilLogger *AuditLogger
	require.Error(t, nilLogger.Record(context.Background(), AuditLog{Action: "a", Entity: "b", EntityID: "c"}))
}
