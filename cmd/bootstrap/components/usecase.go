package components

import (
	"edupass/internal/notifier"
	"edupass/internal/pkg/clock"
	"edupass/internal/pkg/config"
	"edupass/internal/usecase/commands"
	"edupass/internal/usecase/policy"
	"edupass/internal/usecase/queries"
	"edupass/internal/usecase/shared"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	usecaseBaseOption,
	usecaseCommandsModule,
	usecaseQueriesModule,
)

var usecaseBaseOption = fx.Provide(
	clock.NewRealClock,
	func(cfg config.Config) config.VoucherConfig { return cfg.Voucher },
	func(cfg config.Config) config.SchedulerConfig { return cfg.Scheduler },
	policy.NewRedemptionPolicy,
	fx.Annotate(
		notifier.NewLogNotifier,
		fx.As(new(shared.Notifier)),
	),
)

var usecaseCommandsModule = fx.Module("usecase/commands",
	fx.Provide(
		commands.NewVoucherUseCase,
	),
)

var usecaseQueriesModule = fx.Module("usecase/queries",
	fx.Provide(
		queries.NewVoucherQueries,
	),
)
