package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vendra/internal/domain/entity"
	ws "vendra/internal/infrastructure/websocket"
	"vendra/pkg/errors"
)

// paidEngagement drives the pipeline to the point where an earning
// exists, then returns the engagement.
func paidEngagement(t *testing.T, s *testStack, price float64, reference string) *entity.Engagement {
	t.Helper()
	engagement := acceptProposal(t, s, price)
	updated, err := s.engagementUC.RecordPaymentCaptured(context.Background(), engagement.ID, reference, price)
	require.NoError(t, err)
	return updated
}

func TestEarningAmountsFixedAtCreation(t *testing.T) {
	s := newTestStack()
	ctx := context.Background()

	base := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	s.ledgerUC.now = func() time.Time { return base }

	engagement := paidEngagement(t, s, 3333, "cap-1")

	earning, err := s.mem.Earnings().GetByEngagementID(ctx, engagement.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(3333), earning.GrossAmount)
	assert.Equal(t, float64(167), earning.ServiceFee, "fee is rounded, not truncated")
	assert.Equal(t, float64(3166), earning.NetAmount)
	assert.Equal(t, base.Add(7*24*time.Hour), earning.AvailableDate)
	assert.InDelta(t, earning.GrossAmount, earning.ServiceFee+earning.NetAmount, 1e-9)
}

func TestMaturityIsLazyAndAnnouncedOnce(t *testing.T) {
	s := newTestStack()
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	s.ledgerUC.now = func() time.Time { return base }

	paidEngagement(t, s, 5000, "cap-1")

	earnings, totals, err := s.ledgerUC.List(ctx, "pro")
	require.NoError(t, err)
	assert.Equal(t, entity.EarningStatusPending, earnings[0].Status)
	assert.Equal(t, float64(4750), totals.Pending)
	assert.Zero(t, totals.Available)

	// One hour short of the hold period: still pending.
	s.ledgerUC.now = func() time.Time { return base.Add(7*24*time.Hour - time.Hour) }
	_, totals, err = s.ledgerUC.List(ctx, "pro")
	require.NoError(t, err)
	assert.Equal(t, float64(4750), totals.Pending)

	// Past the hold period the entry flips and is announced.
	s.ledgerUC.now = func() time.Time { return base.Add(7*24*time.Hour + time.Hour) }
	earnings, totals, err = s.ledgerUC.List(ctx, "pro")
	require.NoError(t, err)
	assert.Equal(t, entity.EarningStatusAvailable, earnings[0].Status)
	assert.Equal(t, float64(4750), totals.Available)
	assert.Zero(t, totals.Pending)
	assert.Len(t, s.publisher.byType(ws.EventEarningMatured), 1)

	// Later reads see the persisted flip and stay quiet.
	_, _, err = s.ledgerUC.List(ctx, "pro")
	require.NoError(t, err)
	assert.Len(t, s.publisher.byType(ws.EventEarningMatured), 1)
}

func TestWithdrawRequiresMaturity(t *testing.T) {
	s := newTestStack()
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	s.ledgerUC.now = func() time.Time { return base }

	engagement := paidEngagement(t, s, 5000, "cap-1")

	_, err := s.ledgerUC.Withdraw(ctx, "pro", "batch-1", []string{engagement.ID})
	assert.True(t, errors.Is(err, "ILLEGAL_STATE_TRANSITION"), "pending earnings cannot be withdrawn")

	s.ledgerUC.now = func() time.Time { return base.Add(8 * 24 * time.Hour) }

	withdrawal, err := s.ledgerUC.Withdraw(ctx, "pro", "batch-1", []string{engagement.ID})
	require.NoError(t, err)
	assert.Equal(t, float64(4750), withdrawal.TotalNet)

	earning, err := s.mem.Earnings().GetByEngagementID(ctx, engagement.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.EarningStatusWithdrawn, earning.Status)
	assert.Equal(t, "batch-1", earning.WithdrawalID)
}

func TestWithdrawBatchIsAllOrNothing(t *testing.T) {
	s := newTestStack()
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	s.ledgerUC.now = func() time.Time { return base }
	mature := paidEngagement(t, s, 5000, "cap-1")

	// Second engagement earns a week later, so it is still on hold when
	// the first has matured.
	s.directory.events["event-2"] = &entity.Event{
		ID:          "event-2",
		OrganizerID: "organizer",
		StartTime:   base.Add(30 * 24 * time.Hour),
		Location:    "Annex",
	}
	envelope, err := s.envelopeUC.Send(ctx, "organizer", SendEnvelopeInput{
		ReceiverID:    "pro",
		Kind:          entity.EnvelopeKindHireRequest,
		Services:      []string{"sound"},
		EventID:       "event-2",
		ProposedPrice: 2000,
	})
	require.NoError(t, err)
	young, err := s.envelopeUC.Accept(ctx, envelope.ID, "pro")
	require.NoError(t, err)
	s.ledgerUC.now = func() time.Time { return base.Add(6 * 24 * time.Hour) }
	_, err = s.engagementUC.RecordPaymentCaptured(ctx, young.ID, "cap-2", 2000)
	require.NoError(t, err)

	s.ledgerUC.now = func() time.Time { return base.Add(8 * 24 * time.Hour) }

	_, err = s.ledgerUC.Withdraw(ctx, "pro", "batch-1", []string{mature.ID, young.ID})
	assert.True(t, errors.Is(err, "ILLEGAL_STATE_TRANSITION"))

	// The mature entry must be untouched by the failed batch.
	earning, err := s.mem.Earnings().GetByEngagementID(ctx, mature.ID)
	require.NoError(t, err)
	assert.NotEqual(t, entity.EarningStatusWithdrawn, earning.Status)
}

func TestWithdrawBatchIdempotent(t *testing.T) {
	s := newTestStack()
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	s.ledgerUC.now = func() time.Time { return base }
	engagement := paidEngagement(t, s, 5000, "cap-1")

	s.ledgerUC.now = func() time.Time { return base.Add(8 * 24 * time.Hour) }

	first, err := s.ledgerUC.Withdraw(ctx, "pro", "batch-1", []string{engagement.ID})
	require.NoError(t, err)

	// Resubmission of the same batch returns the stored result instead
	// of failing on the now-withdrawn entries.
	second, err := s.ledgerUC.Withdraw(ctx, "pro", "batch-1", []string{engagement.ID})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.TotalNet, second.TotalNet)
	assert.Equal(t, first.CreatedAt.Unix(), second.CreatedAt.Unix())
}

func TestWithdrawOnlyOwnEarnings(t *testing.T) {
	s := newTestStack()
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	s.ledgerUC.now = func() time.Time { return base }
	engagement := paidEngagement(t, s, 5000, "cap-1")

	s.ledgerUC.now = func() time.Time { return base.Add(8 * 24 * time.Hour) }

	_, err := s.ledgerUC.Withdraw(ctx, "organizer", "batch-1", []string{engagement.ID})
	assert.True(t, errors.Is(err, "FORBIDDEN"))
}
