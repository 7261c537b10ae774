package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/corvinae/shopengine/internal/domain/audit"
)

const appendAuditSQL = `INSERT INTO audit_log (id, admin_id, action, entity_type, entity_id, changes, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`

var _ audit.Store = (*AuditStore)(nil)

// AuditStore implements audit.Store backed by PostgreSQL. Rows are only ever
// inserted; there is no update or delete path.
type AuditStore struct {
	pool *pgxpool.Pool
}

// NewAuditStore returns an AuditStore that uses the given pool.
func NewAuditStore(pool *pgxpool.Pool) *AuditStore {
	return &AuditStore{pool: pool}
}

// Append inserts one audit entry.
func (s *AuditStore) Append(ctx context.Context, e *audit.Entry) error {
	_, err := s.pool.Exec(ctx, appendAuditSQL,
		e.ID, e.AdminID, string(e.Action), e.EntityType, e.EntityID, e.Changes, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("appending audit entry %q: %w", e.ID, err)
	}
	return nil
}
