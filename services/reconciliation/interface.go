package reconciliation

import (
	"context"
	"time"

	bookingRepo "casabay/database/repository/booking"
	settlementRepo "casabay/database/repository/settlement"
	"casabay/models"
	"casabay/services/notification"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Service is the reconciliation and approval engine: it opens settlements,
// assembles the administrator's pending view, and runs the approve/cancel
// state machine that keeps settlement and booking in lockstep.
type Service interface {
	OpenSettlement(ctx context.Context, req models.OpenSettlementRequest) (*models.Settlement, error)
	Approve(ctx context.Context, reference, actor string) (*models.SettlementDecision, error)
	Cancel(ctx context.Context, reference, actor string) (*models.SettlementDecision, error)
	BuildPendingView(ctx context.Context) (*models.PendingSettlementView, error)
	ExpiredTransferReferences(ctx context.Context) ([]string, error)
}

// DefaultReconciliationService is the production implementation.
type DefaultReconciliationService struct {
	Bookings    bookingRepo.BookingRepository
	Settlements settlementRepo.SettlementRepository
	Notifier    notification.Service
	CacheClient *redis.Client // optional; nil disables view caching
	Logger      *zap.Logger
	Now         func() time.Time // overridable clock for tests
}

func (s *DefaultReconciliationService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
