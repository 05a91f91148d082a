package repository

import (
	"context"
	"encoding/json"

	"edupass/internal/domain/voucher"
	"edupass/internal/infra"
	"edupass/internal/infra/db"
)

type AuditRepository struct {
	db db.DBTX
}

func NewAuditRepository(dbtx db.DBTX) *AuditRepository {
	return &AuditRepository{db: dbtx}
}

const insertAuditSQL = `
	INSERT INTO audit_records (id, voucher_id, action, actor_id, metadata, recorded_at)
	VALUES ($1, $2, $3, $4, $5, $6)`

// Append writes one immutable record. There is deliberately no update or
// delete statement in this repository.
func (r *AuditRepository) Append(ctx context.Context, record voucher.AuditRecord) error {
	var metadata []byte
	if record.Metadata != nil {
		var err error
		metadata, err = json.Marshal(record.Metadata)
		if err != nil {
			return infra.WrapRepoErr("failed to marshal audit metadata", err)
		}
	}

	_, err := r.db.Exec(ctx, insertAuditSQL,
		record.ID,
		record.VoucherID,
		string(record.Action),
		record.ActorID,
		metadata,
		record.RecordedAt,
	)
	if err != nil {
		return infra.WrapRepoErr("failed to append audit record", err)
	}
	return nil
}
