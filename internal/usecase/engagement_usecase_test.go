package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vendra/internal/domain/entity"
	"vendra/pkg/errors"
)

func acceptProposal(t *testing.T, s *testStack, price float64) *entity.Engagement {
	t.Helper()
	ctx := context.Background()

	envelope, err := s.sendProposal(ctx, price)
	require.NoError(t, err)

	engagement, err := s.envelopeUC.Accept(ctx, envelope.ID, "pro")
	require.NoError(t, err)
	return engagement
}

func TestCompleteIsProfessionalOnly(t *testing.T) {
	s := newTestStack()
	ctx := context.Background()
	engagement := acceptProposal(t, s, 5000)

	_, err := s.engagementUC.Complete(ctx, engagement.ID, "organizer")
	assert.True(t, errors.Is(err, "FORBIDDEN"))

	completed, err := s.engagementUC.Complete(ctx, engagement.ID, "pro")
	require.NoError(t, err)
	assert.Equal(t, entity.EngagementStatusCompleted, completed.Status)
	require.NotNil(t, completed.CompletedAt)

	_, err = s.engagementUC.Complete(ctx, engagement.ID, "pro")
	assert.True(t, errors.Is(err, "ILLEGAL_STATE_TRANSITION"))
}

func TestCancelByEitherParty(t *testing.T) {
	s := newTestStack()
	ctx := context.Background()
	engagement := acceptProposal(t, s, 5000)

	_, err := s.engagementUC.Cancel(ctx, engagement.ID, "stranger")
	assert.True(t, errors.Is(err, "FORBIDDEN"))

	cancelled, err := s.engagementUC.Cancel(ctx, engagement.ID, "organizer")
	require.NoError(t, err)
	assert.Equal(t, entity.EngagementStatusCancelled, cancelled.Status)

	_, err = s.engagementUC.Complete(ctx, engagement.ID, "pro")
	assert.True(t, errors.Is(err, "ILLEGAL_STATE_TRANSITION"), "cancelled never becomes completed")
}

func TestCancelAfterCaptureRejected(t *testing.T) {
	s := newTestStack()
	ctx := context.Background()
	engagement := acceptProposal(t, s, 5000)

	_, err := s.engagementUC.RecordPaymentCaptured(ctx, engagement.ID, "cap-1", 5000)
	require.NoError(t, err)

	// The earning exists the moment the capture lands; cancelling now
	// would leave it maturing against cancelled work.
	_, err = s.engagementUC.Cancel(ctx, engagement.ID, "organizer")
	assert.True(t, errors.Is(err, "ILLEGAL_STATE_TRANSITION"))
	_, err = s.engagementUC.Cancel(ctx, engagement.ID, "pro")
	assert.True(t, errors.Is(err, "ILLEGAL_STATE_TRANSITION"))

	current, err := s.engagementUC.GetByID(ctx, engagement.ID, "organizer")
	require.NoError(t, err)
	assert.Equal(t, entity.EngagementStatusActive, current.Status)

	earning, err := s.mem.Earnings().GetByEngagementID(ctx, engagement.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.EarningStatusPending, earning.Status)
}

func TestCaptureMarksPaidAndCreatesEarning(t *testing.T) {
	s := newTestStack()
	ctx := context.Background()
	engagement := acceptProposal(t, s, 5000)

	// Captured total may exceed the agreed price (buyer-side charges);
	// the ledger is still keyed to the price.
	updated, err := s.engagementUC.RecordPaymentCaptured(ctx, engagement.ID, "cap-1", 5250)
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentStatusPaid, updated.PaymentStatus)
	assert.Equal(t, entity.EngagementStatusActive, updated.Status, "payment does not complete the work")

	earning, err := s.mem.Earnings().GetByEngagementID(ctx, engagement.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(5000), earning.GrossAmount)
	assert.Equal(t, float64(250), earning.ServiceFee)
	assert.Equal(t, float64(4750), earning.NetAmount)
	assert.Equal(t, entity.EarningStatusPending, earning.Status)
}

func TestCaptureIsIdempotentPerReference(t *testing.T) {
	s := newTestStack()
	ctx := context.Background()
	engagement := acceptProposal(t, s, 5000)

	_, err := s.engagementUC.RecordPaymentCaptured(ctx, engagement.ID, "cap-1", 5000)
	require.NoError(t, err)

	// Collaborator retry with the same reference changes nothing.
	_, err = s.engagementUC.RecordPaymentCaptured(ctx, engagement.ID, "cap-1", 5000)
	require.NoError(t, err)

	earnings, err := s.mem.Earnings().ListByProfessional(ctx, "pro")
	require.NoError(t, err)
	assert.Len(t, earnings, 1)
}

func TestCaptureAfterCancelNeverEarns(t *testing.T) {
	s := newTestStack()
	ctx := context.Background()
	engagement := acceptProposal(t, s, 5000)

	_, err := s.engagementUC.Cancel(ctx, engagement.ID, "pro")
	require.NoError(t, err)

	// Late capture is acknowledged, not errored, and leaves no entry.
	updated, err := s.engagementUC.RecordPaymentCaptured(ctx, engagement.ID, "cap-late", 5000)
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentStatusPending, updated.PaymentStatus)

	_, err = s.mem.Earnings().GetByEngagementID(ctx, engagement.ID)
	assert.True(t, errors.Is(err, "NOT_FOUND"))
}

func TestCompleteThenCaptureCreatesOneEarning(t *testing.T) {
	s := newTestStack()
	ctx := context.Background()
	engagement := acceptProposal(t, s, 5000)

	_, err := s.engagementUC.Complete(ctx, engagement.ID, "pro")
	require.NoError(t, err)

	_, err = s.engagementUC.RecordPaymentCaptured(ctx, engagement.ID, "cap-1", 5000)
	require.NoError(t, err)

	earnings, err := s.mem.Earnings().ListByProfessional(ctx, "pro")
	require.NoError(t, err)
	assert.Len(t, earnings, 1)
}

func TestCaptureThenCompleteCreatesOneEarning(t *testing.T) {
	s := newTestStack()
	ctx := context.Background()
	engagement := acceptProposal(t, s, 5000)

	_, err := s.engagementUC.RecordPaymentCaptured(ctx, engagement.ID, "cap-1", 5000)
	require.NoError(t, err)

	// Completion finds the engagement already paid and re-triggers the
	// ledger, which must be a no-op.
	_, err = s.engagementUC.Complete(ctx, engagement.ID, "pro")
	require.NoError(t, err)

	earnings, err := s.mem.Earnings().ListByProfessional(ctx, "pro")
	require.NoError(t, err)
	assert.Len(t, earnings, 1)
}

func TestGetAndListScopedToParties(t *testing.T) {
	s := newTestStack()
	ctx := context.Background()
	engagement := acceptProposal(t, s, 5000)

	_, err := s.engagementUC.GetByID(ctx, engagement.ID, "stranger")
	assert.True(t, errors.Is(err, "FORBIDDEN"))

	got, err := s.engagementUC.GetByID(ctx, engagement.ID, "organizer")
	require.NoError(t, err)
	assert.Equal(t, engagement.ID, got.ID)

	mine, total, err := s.engagementUC.ListByUser(ctx, "pro", 20, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, mine, 1)

	none, total, err := s.engagementUC.ListByUser(ctx, "stranger", 20, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
	assert.Empty(t, none)
}
