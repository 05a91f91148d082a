package notifier

import (
	"context"
	"log/slog"

	"edupass/internal/usecase/shared"
)

// LogNotifier emits notifications as structured log events. The messaging
// gateway that fans these out to guardians consumes the same port; swapping
// it in is a wiring change, not a code change.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) shared.Notifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) RedemptionCompleted(ctx context.Context, notice shared.RedemptionNotice) {
	n.logger.LogAttrs(ctx, slog.LevelInfo, "redemption completed",
		slog.String("voucher_id", notice.VoucherID.String()),
		slog.String("holder_name", notice.HolderName),
		slog.String("redeemed_by", notice.RedeemedByID),
		slog.Time("expires_at", notice.ExpiresAt),
	)
}

func (n *LogNotifier) ExpiryApproaching(ctx context.Context, warnings []shared.ExpiryWarning) {
	for _, w := range warnings {
		n.logger.LogAttrs(ctx, slog.LevelInfo, "voucher expiry approaching",
			slog.String("voucher_id", w.VoucherID.String()),
			slog.String("holder_name", w.HolderName),
			slog.Time("expires_at", w.ExpiresAt),
		)
	}
}
