package components

import (
	"edupass/internal/infra/db"
	"edupass/internal/infra/readstore"
	"edupass/internal/infra/uow"
	"edupass/internal/scheduler"
	"edupass/internal/usecase/queries"
	"edupass/internal/usecase/shared"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

var PersistenceModule = fx.Module("persistence",
	fx.Provide(
		NewDBTX,
		fx.Annotate(
			uow.NewPostgresUoW,
			fx.As(new(shared.UnitOfWork)),
		),
		fx.Annotate(
			readstore.NewVoucherReadStore,
			fx.As(new(queries.VoucherReadStore)),
			fx.As(new(scheduler.ExpiryReads)),
		),
	),
)

func NewDBTX(pool *pgxpool.Pool) db.DBTX {
	return pool
}
