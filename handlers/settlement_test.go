package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"casabay/models"
	"casabay/services/reconciliation"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubReconciliationService lets each test script the service outcome.
type stubReconciliationService struct {
	openFn    func(ctx context.Context, req models.OpenSettlementRequest) (*models.Settlement, error)
	approveFn func(ctx context.Context, reference, actor string) (*models.SettlementDecision, error)
	cancelFn  func(ctx context.Context, reference, actor string) (*models.SettlementDecision, error)
	viewFn    func(ctx context.Context) (*models.PendingSettlementView, error)
}

func (s *stubReconciliationService) OpenSettlement(ctx context.Context, req models.OpenSettlementRequest) (*models.Settlement, error) {
	return s.openFn(ctx, req)
}

func (s *stubReconciliationService) Approve(ctx context.Context, reference, actor string) (*models.SettlementDecision, error) {
	return s.approveFn(ctx, reference, actor)
}

func (s *stubReconciliationService) Cancel(ctx context.Context, reference, actor string) (*models.SettlementDecision, error) {
	return s.cancelFn(ctx, reference, actor)
}

func (s *stubReconciliationService) BuildPendingView(ctx context.Context) (*models.PendingSettlementView, error) {
	return s.viewFn(ctx)
}

func (s *stubReconciliationService) ExpiredTransferReferences(ctx context.Context) ([]string, error) {
	return nil, nil
}

func performDecision(t *testing.T, handler gin.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("adminEmail", "admin@casabay.local")

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler(c)
	return w
}

func TestApproveSettlementHandlerSuccess(t *testing.T) {
	var gotRef, gotActor string
	svc := &stubReconciliationService{
		approveFn: func(ctx context.Context, reference, actor string) (*models.SettlementDecision, error) {
			gotRef, gotActor = reference, actor
			return &models.SettlementDecision{
				Settlement:       &models.Settlement{Reference: reference, State: models.SettlementConfirmed},
				NotificationSent: true,
			}, nil
		},
	}
	sh := NewSettlementHandler(svc, zap.NewNop())

	w := performDecision(t, sh.ApproveSettlementHandler, `{"reference_code":"ABCD2345"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ABCD2345", gotRef)
	assert.Equal(t, "admin@casabay.local", gotActor)

	var decision models.SettlementDecision
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decision))
	assert.Equal(t, models.SettlementConfirmed, decision.Settlement.State)
	assert.True(t, decision.NotificationSent)
}

func TestDecisionHandlerRequiresReference(t *testing.T) {
	sh := NewSettlementHandler(&stubReconciliationService{}, zap.NewNop())

	w := performDecision(t, sh.ApproveSettlementHandler, `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDecisionHandlerUnknownReference(t *testing.T) {
	svc := &stubReconciliationService{
		cancelFn: func(ctx context.Context, reference, actor string) (*models.SettlementDecision, error) {
			return nil, reconciliation.ErrSettlementNotFound
		},
	}
	sh := NewSettlementHandler(svc, zap.NewNop())

	w := performDecision(t, sh.CancelSettlementHandler, `{"reference_code":"NOPE1234"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDecisionHandlerAlreadyFinalized(t *testing.T) {
	existing := &models.Settlement{Reference: "ABCD2345", State: models.SettlementCancelled}
	svc := &stubReconciliationService{
		approveFn: func(ctx context.Context, reference, actor string) (*models.SettlementDecision, error) {
			return nil, &reconciliation.AlreadyFinalizedError{Settlement: existing}
		},
	}
	sh := NewSettlementHandler(svc, zap.NewNop())

	w := performDecision(t, sh.ApproveSettlementHandler, `{"reference_code":"ABCD2345"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	var body struct {
		Settlement models.Settlement `json:"settlement"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, models.SettlementCancelled, body.Settlement.State,
		"the conflict response carries the existing decision")
}

func TestOpenSettlementHandlerMapsDomainErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"duplicate active", reconciliation.ErrDuplicateActiveSettlement, http.StatusConflict},
		{"unknown kind", reconciliation.ErrUnknownSettlementKind, http.StatusBadRequest},
		{"booking missing", reconciliation.ErrBookingNotFound, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubReconciliationService{
				openFn: func(ctx context.Context, req models.OpenSettlementRequest) (*models.Settlement, error) {
					return nil, tt.err
				},
			}
			sh := NewSettlementHandler(svc, zap.NewNop())

			w := performDecision(t, sh.OpenSettlementHandler,
				`{"booking_id":"bk-1","kind":"bank_transfer"}`)
			assert.Equal(t, tt.code, w.Code)
		})
	}
}
