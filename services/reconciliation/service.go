package reconciliation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"casabay/config"
	settlementRepo "casabay/database/repository/settlement"
	"casabay/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	pendingViewCacheKey = "reconciliation:pending-view"
	pendingViewCacheTTL = 30 * time.Second

	// maxReferenceAttempts bounds regeneration when a generated code collides
	// with an existing settlement.
	maxReferenceAttempts = 5
)

// OpenSettlement opens a new pending settlement against a booking. A booking
// may hold at most one pending settlement; the previous one (if any) must be
// cancelled first. Customer name/email are snapshotted from the booking at
// this moment and do not follow later edits.
func (s *DefaultReconciliationService) OpenSettlement(ctx context.Context, req models.OpenSettlementRequest) (*models.Settlement, error) {
	if req.Kind != models.KindBankTransfer && req.Kind != models.KindCash {
		return nil, ErrUnknownSettlementKind
	}

	booking, err := s.Bookings.GetByID(req.BookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up booking %s: %w", req.BookingID, err)
	}
	if booking == nil {
		return nil, ErrBookingNotFound
	}

	active, err := s.Settlements.FindActiveByBooking(req.BookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to check active settlement for booking %s: %w", req.BookingID, err)
	}
	if active != nil {
		return nil, ErrDuplicateActiveSettlement
	}

	amount := req.Amount
	if amount == 0 {
		amount = booking.TotalAmount
	}
	currency := req.Currency
	if currency == "" {
		currency = booking.Currency
	}
	if currency == "" {
		currency = config.AppConfig.DefaultCurrency
	}

	now := s.now()
	settlement := &models.Settlement{
		ID:            uuid.New().String(),
		BookingID:     booking.ID,
		Kind:          req.Kind,
		Amount:        amount,
		Currency:      currency,
		CustomerName:  booking.CustomerName,
		CustomerEmail: booking.CustomerEmail,
		State:         models.SettlementPending,
		CreatedAt:     now,
	}

	switch req.Kind {
	case models.KindBankTransfer:
		settlement.BankTransfer = &models.BankTransferDetails{
			AccountHolder: config.AppConfig.BankAccountHolder,
			IBAN:          config.AppConfig.BankIBAN,
			BIC:           config.AppConfig.BankBIC,
			BankName:      config.AppConfig.BankName,
			ExpiresAt:     now.Add(time.Duration(config.AppConfig.TransferExpiryHours) * time.Hour),
		}
	case models.KindCash:
		location := req.PayAtLocation
		if location == "" {
			location = booking.PropertyName
		}
		settlement.Cash = &models.CashDetails{
			ExpectedArrival: req.ExpectedArrival,
			PayAtLocation:   location,
		}
	}

	// Pick a reference code, regenerating on the off chance it collides.
	for attempt := 0; attempt < maxReferenceAttempts; attempt++ {
		code, err := GenerateReference()
		if err != nil {
			return nil, fmt.Errorf("failed to generate reference code: %w", err)
		}
		existing, err := s.Settlements.FindByReference(code)
		if err != nil {
			return nil, fmt.Errorf("failed to check reference uniqueness: %w", err)
		}
		if existing != nil {
			continue
		}

		settlement.Reference = code
		err = s.Settlements.Create(settlement)
		if err == nil {
			s.invalidateViewCache(ctx)
			return settlement, nil
		}
		if errors.Is(err, settlementRepo.ErrReferenceTaken) {
			continue // raced with another writer on the same code
		}
		if errors.Is(err, settlementRepo.ErrDuplicateActive) {
			return nil, ErrDuplicateActiveSettlement
		}
		return nil, fmt.Errorf("failed to create settlement: %w", err)
	}
	return nil, fmt.Errorf("failed to allocate a unique reference code after %d attempts", maxReferenceAttempts)
}

// BuildPendingView assembles the administrator's reconciliation view: every
// pending settlement joined with its booking, sorted newest-first, with
// aggregate counters. Booking lookups are independent and read-only, so they
// run in parallel; ordering is normalized after all of them complete. A
// settlement whose booking cannot be resolved is logged and skipped rather
// than failing the whole view.
func (s *DefaultReconciliationService) BuildPendingView(ctx context.Context) (*models.PendingSettlementView, error) {
	if view := s.readCachedView(ctx); view != nil {
		return view, nil
	}

	pending, err := s.Settlements.ListPending("")
	if err != nil {
		return nil, fmt.Errorf("failed to list pending settlements: %w", err)
	}

	now := s.now()
	resultsCh := make(chan models.PendingSettlementRow, len(pending))
	var wg sync.WaitGroup

	for _, st := range pending {
		wg.Add(1)
		go func(st models.Settlement) {
			defer wg.Done()
			booking, err := s.Bookings.GetByID(st.BookingID)
			if err != nil {
				s.Logger.Warn("booking lookup failed during view build",
					zap.String("settlement", st.ID), zap.String("booking", st.BookingID), zap.Error(err))
				return
			}
			if booking == nil {
				s.Logger.Warn("orphaned settlement excluded from pending view",
					zap.String("settlement", st.ID), zap.String("reference", st.Reference),
					zap.String("booking", st.BookingID))
				return
			}

			resultsCh <- models.PendingSettlementRow{
				SettlementID: st.ID,
				BookingID:    booking.ID,
				Reference:    st.Reference,
				Kind:         st.Kind,
				Amount:       st.Amount,
				Currency:     st.Currency,
				GuestName:    st.CustomerName,
				GuestEmail:   st.CustomerEmail,
				PropertyName: booking.PropertyName,
				CheckIn:      booking.CheckIn,
				CheckOut:     booking.CheckOut,
				Guests:       booking.Guests,
				CreatedAt:    st.CreatedAt,
				BankTransfer: st.BankTransfer,
				Cash:         st.Cash,
				Expired:      IsExpired(&st, now),
			}
		}(st)
	}

	wg.Wait()
	close(resultsCh)

	rows := make([]models.PendingSettlementRow, 0, len(pending))
	for row := range resultsCh {
		rows = append(rows, row)
	}

	// Newest first, so administrators see fresh work at the top.
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].CreatedAt.After(rows[j].CreatedAt)
	})

	counters := models.PendingCounters{Total: len(rows)}
	for _, row := range rows {
		switch row.Kind {
		case models.KindBankTransfer:
			counters.BankTransfer++
		case models.KindCash:
			counters.Cash++
		}
		counters.TotalAmount += row.Amount
	}

	view := &models.PendingSettlementView{
		Rows:        rows,
		Counters:    counters,
		GeneratedAt: now,
	}
	s.cacheView(ctx, view)
	return view, nil
}

// ExpiredTransferReferences returns the reference codes of pending bank
// transfers whose deadline has passed. Flagging only; cancellation remains an
// administrator decision.
func (s *DefaultReconciliationService) ExpiredTransferReferences(ctx context.Context) ([]string, error) {
	transfers, err := s.Settlements.ListPending(models.KindBankTransfer)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending transfers: %w", err)
	}

	now := s.now()
	var refs []string
	for i := range transfers {
		if IsExpired(&transfers[i], now) {
			refs = append(refs, transfers[i].Reference)
		}
	}
	return refs, nil
}

func (s *DefaultReconciliationService) readCachedView(ctx context.Context) *models.PendingSettlementView {
	if s.CacheClient == nil {
		return nil
	}
	data, err := s.CacheClient.Get(ctx, pendingViewCacheKey).Result()
	if err != nil {
		return nil
	}
	var view models.PendingSettlementView
	if err := json.Unmarshal([]byte(data), &view); err != nil {
		s.Logger.Warn("failed to parse cached pending view", zap.Error(err))
		return nil
	}
	return &view
}

func (s *DefaultReconciliationService) cacheView(ctx context.Context, view *models.PendingSettlementView) {
	if s.CacheClient == nil {
		return
	}
	data, err := json.Marshal(view)
	if err != nil {
		return
	}
	if err := s.CacheClient.Set(ctx, pendingViewCacheKey, data, pendingViewCacheTTL).Err(); err != nil {
		s.Logger.Warn("failed to cache pending view", zap.Error(err))
	}
}

func (s *DefaultReconciliationService) invalidateViewCache(ctx context.Context) {
	if s.CacheClient == nil {
		return
	}
	s.CacheClient.Del(ctx, pendingViewCacheKey)
}
