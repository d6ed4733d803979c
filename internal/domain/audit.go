package domain

import (
	"context"

	"kvtrade/internal/core/id"
)

// Audit actions recorded against entity snapshots.
const (
	AuditCreate = "create"
	AuditUpdate = "update"
	AuditDelete = "delete"
)

// Auditor records entity snapshots for traceability. Implementations must
// never fail the business operation; audit errors are logged and dropped.
type Auditor interface {
	Record(ctx context.Context, entity string, entityID id.ID, action string, snapshot any)
}

// NopAuditor discards audit records. Used in tests.
type NopAuditor struct{}

func (NopAuditor) Record(context.Context, string, id.ID, string, any) {}
