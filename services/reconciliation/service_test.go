package reconciliation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"casabay/config"
	settlementRepo "casabay/database/repository/settlement"
	"casabay/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// ---- in-memory fakes ----

type fakeBookingRepo struct {
	mu       sync.Mutex
	bookings map[string]*models.Booking
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{bookings: make(map[string]*models.Booking)}
}

func (r *fakeBookingRepo) Create(b *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *b
	r.bookings[b.ID] = &cp
	return nil
}

func (r *fakeBookingRepo) GetByID(id string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (r *fakeBookingRepo) GetAll() ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Booking, 0, len(r.bookings))
	for _, b := range r.bookings {
		out = append(out, *b)
	}
	return out, nil
}

func (r *fakeBookingRepo) Update(b *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *b
	r.bookings[b.ID] = &cp
	return nil
}

func (r *fakeBookingRepo) SetStatus(id string, status models.BookingStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.bookings[id]; ok {
		b.Status = status
	}
	return nil
}

func (r *fakeBookingRepo) SetPaymentStatus(id string, status models.PaymentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.bookings[id]; ok {
		b.PaymentStatus = status
	}
	return nil
}

type fakeSettlementRepo struct {
	mu          sync.Mutex
	settlements map[string]*models.Settlement // keyed by ID
	bookings    *fakeBookingRepo
}

func newFakeSettlementRepo(bookings *fakeBookingRepo) *fakeSettlementRepo {
	return &fakeSettlementRepo{
		settlements: make(map[string]*models.Settlement),
		bookings:    bookings,
	}
}

func (r *fakeSettlementRepo) Create(s *models.Settlement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.settlements {
		if existing.Reference == s.Reference {
			return settlementRepo.ErrReferenceTaken
		}
		if existing.BookingID == s.BookingID && existing.State == models.SettlementPending {
			return settlementRepo.ErrDuplicateActive
		}
	}
	cp := *s
	r.settlements[s.ID] = &cp
	return nil
}

func (r *fakeSettlementRepo) GetByID(id string) (*models.Settlement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.settlements[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSettlementRepo) FindByReference(code string) (*models.Settlement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.settlements {
		if s.Reference == code {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeSettlementRepo) FindActiveByBooking(bookingID string) (*models.Settlement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.settlements {
		if s.BookingID == bookingID && s.State == models.SettlementPending {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeSettlementRepo) ListPending(kind models.SettlementKind) ([]models.Settlement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Settlement
	for _, s := range r.settlements {
		if s.State != models.SettlementPending {
			continue
		}
		if kind != "" && s.Kind != kind {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}

func (r *fakeSettlementRepo) FinalizeWithBooking(
	ctx context.Context,
	reference string,
	newState models.SettlementState,
	actor string,
	decidedAt time.Time,
	bookingStatus models.BookingStatus,
	paymentStatus models.PaymentStatus,
) (*models.Settlement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var target *models.Settlement
	for _, s := range r.settlements {
		if s.Reference == reference && s.State == models.SettlementPending {
			target = s
			break
		}
	}
	if target == nil {
		return nil, settlementRepo.ErrNoPendingMatch
	}

	r.bookings.mu.Lock()
	booking, ok := r.bookings.bookings[target.BookingID]
	if !ok {
		r.bookings.mu.Unlock()
		return nil, settlementRepo.ErrBookingMissing
	}
	booking.Status = bookingStatus
	if paymentStatus != "" {
		booking.PaymentStatus = paymentStatus
	}
	r.bookings.mu.Unlock()

	target.State = newState
	target.DecidedBy = actor
	target.DecidedAt = &decidedAt
	cp := *target
	return &cp, nil
}

type fakeNotifier struct {
	mu            sync.Mutex
	confirmations []models.SettlementNotification
	digests       [][]string
	err           error
}

func (n *fakeNotifier) SendSettlementConfirmation(ctx context.Context, payload models.SettlementNotification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.confirmations = append(n.confirmations, payload)
	return n.err
}

func (n *fakeNotifier) NotifyExpiredTransfers(ctx context.Context, count int, references []string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.digests = append(n.digests, references)
	return n.err
}

func (n *fakeNotifier) confirmationCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.confirmations)
}

// ---- fixtures ----

type fixture struct {
	svc         *DefaultReconciliationService
	bookings    *fakeBookingRepo
	settlements *fakeSettlementRepo
	notifier    *fakeNotifier
	now         time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	config.AppConfig.DefaultCurrency = "EUR"
	config.AppConfig.TransferExpiryHours = 48
	config.AppConfig.BankAccountHolder = "Casabay Rentals SL"
	config.AppConfig.BankIBAN = "ES9121000418450200051332"
	config.AppConfig.BankBIC = "CAIXESBBXXX"
	config.AppConfig.BankName = "CaixaBank"

	bookings := newFakeBookingRepo()
	settlements := newFakeSettlementRepo(bookings)
	notifier := &fakeNotifier{}
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	return &fixture{
		svc: &DefaultReconciliationService{
			Bookings:    bookings,
			Settlements: settlements,
			Notifier:    notifier,
			Logger:      zap.NewNop(),
			Now:         func() time.Time { return now },
		},
		bookings:    bookings,
		settlements: settlements,
		notifier:    notifier,
		now:         now,
	}
}

func (f *fixture) addBooking(t *testing.T, id string) *models.Booking {
	t.Helper()
	booking := &models.Booking{
		ID:            id,
		CustomerName:  "Ana Martín",
		CustomerEmail: "ana@example.com",
		PropertyName:  "Villa Azul",
		CheckIn:       "2026-09-10",
		CheckOut:      "2026-09-14",
		Guests:        2,
		TotalAmount:   84000,
		Currency:      "EUR",
		Status:        models.BookingPending,
		PaymentStatus: models.PaymentPending,
	}
	require.NoError(t, f.bookings.Create(booking))
	return booking
}

func (f *fixture) openSettlement(t *testing.T, bookingID string, kind models.SettlementKind) *models.Settlement {
	t.Helper()
	settlement, err := f.svc.OpenSettlement(context.Background(), models.OpenSettlementRequest{
		BookingID: bookingID,
		Kind:      kind,
	})
	require.NoError(t, err)
	return settlement
}

// ---- OpenSettlement ----

func TestOpenSettlementBankTransfer(t *testing.T) {
	f := newFixture(t)
	f.addBooking(t, "bk-1")

	settlement := f.openSettlement(t, "bk-1", models.KindBankTransfer)

	assert.Equal(t, models.SettlementPending, settlement.State)
	assert.Equal(t, models.KindBankTransfer, settlement.Kind)
	assert.Equal(t, int64(84000), settlement.Amount, "amount defaults to the booking total")
	assert.Equal(t, "EUR", settlement.Currency)
	assert.Equal(t, "Ana Martín", settlement.CustomerName)
	assert.Len(t, settlement.Reference, 8)
	require.NotNil(t, settlement.BankTransfer)
	assert.Nil(t, settlement.Cash)
	assert.Equal(t, "ES9121000418450200051332", settlement.BankTransfer.IBAN)
	assert.Equal(t, f.now.Add(48*time.Hour), settlement.BankTransfer.ExpiresAt)
}

func TestOpenSettlementCashDefaultsLocation(t *testing.T) {
	f := newFixture(t)
	f.addBooking(t, "bk-1")

	settlement, err := f.svc.OpenSettlement(context.Background(), models.OpenSettlementRequest{
		BookingID:       "bk-1",
		Kind:            models.KindCash,
		ExpectedArrival: "15:00",
	})
	require.NoError(t, err)

	require.NotNil(t, settlement.Cash)
	assert.Nil(t, settlement.BankTransfer)
	assert.Equal(t, "Villa Azul", settlement.Cash.PayAtLocation, "location falls back to the property")
	assert.Equal(t, "15:00", settlement.Cash.ExpectedArrival)
}

func TestOpenSettlementUnknownKind(t *testing.T) {
	f := newFixture(t)
	f.addBooking(t, "bk-1")

	_, err := f.svc.OpenSettlement(context.Background(), models.OpenSettlementRequest{
		BookingID: "bk-1",
		Kind:      "credit_card",
	})
	assert.ErrorIs(t, err, ErrUnknownSettlementKind)
}

func TestOpenSettlementBookingMissing(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.OpenSettlement(context.Background(), models.OpenSettlementRequest{
		BookingID: "nope",
		Kind:      models.KindCash,
	})
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestOpenSettlementRejectsSecondActive(t *testing.T) {
	f := newFixture(t)
	f.addBooking(t, "bk-1")
	f.openSettlement(t, "bk-1", models.KindBankTransfer)

	_, err := f.svc.OpenSettlement(context.Background(), models.OpenSettlementRequest{
		BookingID: "bk-1",
		Kind:      models.KindCash,
	})
	assert.ErrorIs(t, err, ErrDuplicateActiveSettlement)
}

func TestOpenSettlementAllowedAfterCancel(t *testing.T) {
	f := newFixture(t)
	f.addBooking(t, "bk-1")
	first := f.openSettlement(t, "bk-1", models.KindBankTransfer)

	_, err := f.svc.Cancel(context.Background(), first.Reference, "admin@casabay.local")
	require.NoError(t, err)

	second := f.openSettlement(t, "bk-1", models.KindCash)
	assert.NotEqual(t, first.Reference, second.Reference)
	assert.Equal(t, models.SettlementPending, second.State)
}

// ---- BuildPendingView ----

func TestBuildPendingViewSortedWithCounters(t *testing.T) {
	f := newFixture(t)

	// Three transfers and two cash settlements, opened one hour apart.
	kinds := []models.SettlementKind{
		models.KindBankTransfer, models.KindCash, models.KindBankTransfer,
		models.KindCash, models.KindBankTransfer,
	}
	var refs []string
	base := f.now
	for i, kind := range kinds {
		id := string(rune('a'+i)) + "-bk"
		f.addBooking(t, id)
		created := base.Add(time.Duration(i) * time.Hour)
		f.svc.Now = func() time.Time { return created }
		s := f.openSettlement(t, id, kind)
		refs = append(refs, s.Reference)
	}
	f.svc.Now = func() time.Time { return base.Add(24 * time.Hour) }

	view, err := f.svc.BuildPendingView(context.Background())
	require.NoError(t, err)

	require.Len(t, view.Rows, 5)
	assert.Equal(t, 5, view.Counters.Total)
	assert.Equal(t, 3, view.Counters.BankTransfer)
	assert.Equal(t, 2, view.Counters.Cash)
	assert.Equal(t, int64(5*84000), view.Counters.TotalAmount)

	// Newest first: the last opened settlement leads.
	assert.Equal(t, refs[4], view.Rows[0].Reference)
	for i := 1; i < len(view.Rows); i++ {
		assert.False(t, view.Rows[i].CreatedAt.After(view.Rows[i-1].CreatedAt),
			"rows must be ordered newest first")
	}
}

func TestBuildPendingViewSkipsOrphans(t *testing.T) {
	f := newFixture(t)
	f.addBooking(t, "bk-1")
	f.addBooking(t, "bk-2")
	f.openSettlement(t, "bk-1", models.KindBankTransfer)
	kept := f.openSettlement(t, "bk-2", models.KindCash)

	// Simulate a booking deleted out from under its settlement.
	f.bookings.mu.Lock()
	delete(f.bookings.bookings, "bk-1")
	f.bookings.mu.Unlock()

	view, err := f.svc.BuildPendingView(context.Background())
	require.NoError(t, err)

	require.Len(t, view.Rows, 1)
	assert.Equal(t, kept.Reference, view.Rows[0].Reference)
	assert.Equal(t, 1, view.Counters.Total)
}

func TestBuildPendingViewExcludesFinalized(t *testing.T) {
	f := newFixture(t)
	f.addBooking(t, "bk-1")
	f.addBooking(t, "bk-2")
	approved := f.openSettlement(t, "bk-1", models.KindCash)
	pending := f.openSettlement(t, "bk-2", models.KindCash)

	_, err := f.svc.Approve(context.Background(), approved.Reference, "admin@casabay.local")
	require.NoError(t, err)

	view, err := f.svc.BuildPendingView(context.Background())
	require.NoError(t, err)
	require.Len(t, view.Rows, 1)
	assert.Equal(t, pending.Reference, view.Rows[0].Reference)
}

func TestBuildPendingViewFlagsExpiredTransfers(t *testing.T) {
	f := newFixture(t)
	f.addBooking(t, "bk-1")
	f.openSettlement(t, "bk-1", models.KindBankTransfer)

	// Advance the clock past the 48h transfer deadline.
	f.svc.Now = func() time.Time { return f.now.Add(49 * time.Hour) }

	view, err := f.svc.BuildPendingView(context.Background())
	require.NoError(t, err)
	require.Len(t, view.Rows, 1)
	assert.True(t, view.Rows[0].Expired)
}

// ---- ExpiredTransferReferences ----

func TestExpiredTransferReferences(t *testing.T) {
	f := newFixture(t)
	f.addBooking(t, "bk-1")
	f.addBooking(t, "bk-2")
	f.addBooking(t, "bk-3")

	expired := f.openSettlement(t, "bk-1", models.KindBankTransfer)

	// Opened a day later, still inside its window at sweep time.
	f.svc.Now = func() time.Time { return f.now.Add(24 * time.Hour) }
	f.openSettlement(t, "bk-2", models.KindBankTransfer)
	f.openSettlement(t, "bk-3", models.KindCash)

	f.svc.Now = func() time.Time { return f.now.Add(50 * time.Hour) }
	refs, err := f.svc.ExpiredTransferReferences(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{expired.Reference}, refs)
}

// ---- reference collision handling ----

func TestOpenSettlementRetriesOnReferenceCollision(t *testing.T) {
	f := newFixture(t)
	f.addBooking(t, "bk-1")
	f.addBooking(t, "bk-2")

	first := f.openSettlement(t, "bk-1", models.KindCash)
	second := f.openSettlement(t, "bk-2", models.KindCash)

	assert.NotEqual(t, first.Reference, second.Reference)
}

func TestFakeCreateEnforcesUniqueReference(t *testing.T) {
	// Sanity check on the fake itself so the collision tests mean something.
	f := newFixture(t)
	s1 := &models.Settlement{ID: "s1", BookingID: "b1", Reference: "SAME", State: models.SettlementPending}
	s2 := &models.Settlement{ID: "s2", BookingID: "b2", Reference: "SAME", State: models.SettlementPending}

	require.NoError(t, f.settlements.Create(s1))
	err := f.settlements.Create(s2)
	assert.True(t, errors.Is(err, settlementRepo.ErrReferenceTaken))
}
