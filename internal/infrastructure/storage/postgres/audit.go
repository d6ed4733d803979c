package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"

	"kvtrade/internal/core/actor"
	"kvtrade/internal/core/id"
	"kvtrade/pkg/logger"
)

// AuditService persists entity snapshots into sys_audit.
// Snapshots are JSON compressed with zstd; rows are append-only.
type AuditService struct {
	tm      *TxManager
	encoder *zstd.Encoder
}

// NewAuditService creates the audit writer.
func NewAuditService(tm *TxManager) (*AuditService, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	return &AuditService{tm: tm, encoder: enc}, nil
}

const auditInsertSQL = `
INSERT INTO sys_audit (id, entity, entity_id, action, actor, snapshot, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

// Record writes one audit row inside the caller's transaction.
// Snapshot marshalling failures are logged, not propagated, so audit
// problems never fail the business operation.
func (s *AuditService) Record(ctx context.Context, entity string, entityID id.ID, action string, snapshot any) {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		logger.Warn(ctx, "audit snapshot marshal failed", "entity", entity, "error", err)
		return
	}
	compressed := s.encoder.EncodeAll(payload, nil)

	q := s.tm.GetQuerier(ctx)
	_, err = q.Exec(ctx, auditInsertSQL,
		id.New(), entity, entityID, action, actor.Name(ctx), compressed, time.Now().UTC())
	if err != nil {
		logger.Warn(ctx, "audit write failed", "entity", entity, "entity_id", entityID, "error", err)
	}
}

// Decompress restores a stored snapshot (used by audit inspection tooling).
func Decompress(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return dec.DecodeAll(data, nil)
}
