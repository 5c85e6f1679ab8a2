package ports

import (
	"context"

	"github.com/vncsmyrnk/ballot/internal/core/domain"
)

type ReportService interface {
	Report(ctx context.Context) ([]domain.PartyTally, error)
}

type AuditService interface {
	AuditAll(ctx context.Context) ([]domain.Discrepancy, error)
}
