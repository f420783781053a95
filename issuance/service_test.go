package issuance_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketing/db"
	"ticketing/entity"
	"ticketing/event"
	"ticketing/issuance"
)

type fakeEventRepo struct {
	events map[string]entity.Event
}

func (f *fakeEventRepo) GetByID(_ context.Context, eventID string) (entity.Event, error) {
	ev, ok := f.events[eventID]
	if !ok {
		return entity.Event{}, db.ErrNotFound
	}
	return ev, nil
}

func (f *fakeEventRepo) GetBySlug(_ context.Context, slug string) (entity.Event, error) {
	for _, ev := range f.events {
		if ev.Slug == slug {
			return ev, nil
		}
	}
	return entity.Event{}, db.ErrNotFound
}

type fakeTicketTypeRepo struct {
	types map[string]entity.TicketType
}

func (f *fakeTicketTypeRepo) Get(_ context.Context, ticketTypeID string) (entity.TicketType, error) {
	tt, ok := f.types[ticketTypeID]
	if !ok {
		return entity.TicketType{}, db.ErrNotFound
	}
	return tt, nil
}

type fakeTicketRepo struct {
	lock     sync.Mutex
	issued   []entity.Ticket
	events   []event.TicketIssued
	issueErr error

	// blindReads makes the next N payment-ref lookups miss, simulating a
	// guard read that ran before a racing transaction committed.
	blindReads int
}

func (f *fakeTicketRepo) Issue(_ context.Context, ticket entity.Ticket, issued event.TicketIssued) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	if f.issueErr != nil {
		return f.issueErr
	}

	for _, existing := range f.issued {
		if ticket.Payment != nil && existing.Payment != nil &&
			existing.Payment.Reference == ticket.Payment.Reference {
			return db.DuplicateTicketError{Constraint: "tickets_payment_id_key"}
		}
		if ticket.TicketTypeID == nil && existing.TicketTypeID == nil &&
			existing.EventID == ticket.EventID && existing.UserID == ticket.UserID {
			return db.DuplicateTicketError{Constraint: "tickets_one_free_per_user"}
		}
	}

	f.issued = append(f.issued, ticket)
	f.events = append(f.events, issued)
	return nil
}

func (f *fakeTicketRepo) FindByPaymentRef(_ context.Context, paymentRef string) (entity.Ticket, bool, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.blindReads > 0 {
		f.blindReads--
		return entity.Ticket{}, false, nil
	}
	for _, t := range f.issued {
		if t.Payment != nil && t.Payment.Reference == paymentRef {
			return t, true, nil
		}
	}
	return entity.Ticket{}, false, nil
}

func (f *fakeTicketRepo) FindLegacyFree(_ context.Context, eventID, userID string) (entity.Ticket, bool, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	for _, t := range f.issued {
		if t.TicketTypeID == nil && t.EventID == eventID && t.UserID == userID {
			return t, true, nil
		}
	}
	return entity.Ticket{}, false, nil
}

type fixture struct {
	service issuance.Service
	tickets *fakeTicketRepo

	freeEvent entity.Event
	paidEvent entity.Event
	freeType  entity.TicketType
	paidType  entity.TicketType
	soldOut   entity.TicketType
	inactive  entity.TicketType
	purchaser entity.Purchaser
}

func setup(t *testing.T) fixture {
	t.Helper()

	freeEvent := entity.Event{
		ID:       uuid.NewString(),
		Slug:     "sunday-service",
		Title:    "Sunday Service",
		Date:     "2026-09-06",
		Time:     "10:30",
		Location: "Main Hall",
		Price:    decimal.Zero,
	}
	paidEvent := entity.Event{
		ID:    uuid.NewString(),
		Slug:  "gala-dinner",
		Title: "Gala Dinner",
		Price: decimal.NewFromInt(25),
	}

	freeType := entity.TicketType{
		ID:                uuid.NewString(),
		EventID:           freeEvent.ID,
		Name:              "General",
		Price:             decimal.Zero,
		QuantityAvailable: 100,
		MaxPerOrder:       2,
		IsActive:          true,
	}
	paidType := entity.TicketType{
		ID:                uuid.NewString(),
		EventID:           freeEvent.ID,
		Name:              "Supporter",
		Price:             decimal.NewFromInt(5),
		QuantityAvailable: 100,
		MaxPerOrder:       4,
		IsActive:          true,
	}
	soldOut := entity.TicketType{
		ID:                uuid.NewString(),
		EventID:           freeEvent.ID,
		Name:              "Early Bird",
		Price:             decimal.Zero,
		QuantityAvailable: 10,
		QuantitySold:      10,
		MaxPerOrder:       2,
		IsActive:          true,
	}
	inactive := entity.TicketType{
		ID:                uuid.NewString(),
		EventID:           freeEvent.ID,
		Name:              "Retired",
		Price:             decimal.Zero,
		QuantityAvailable: 100,
		MaxPerOrder:       2,
		IsActive:          false,
	}

	tickets := &fakeTicketRepo{}
	svc := issuance.NewService(
		&fakeEventRepo{events: map[string]entity.Event{
			freeEvent.ID: freeEvent,
			paidEvent.ID: paidEvent,
		}},
		&fakeTicketTypeRepo{types: map[string]entity.TicketType{
			freeType.ID: freeType,
			paidType.ID: paidType,
			soldOut.ID:  soldOut,
			inactive.ID: inactive,
		}},
		tickets,
		"GBP",
	)

	return fixture{
		service:   svc,
		tickets:   tickets,
		freeEvent: freeEvent,
		paidEvent: paidEvent,
		freeType:  freeType,
		paidType:  paidType,
		soldOut:   soldOut,
		inactive:  inactive,
		purchaser: entity.Purchaser{ID: uuid.NewString(), Email: "someone@example.com"},
	}
}

func TestClaimFree_LegacyEvent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	result, err := f.service.ClaimFree(ctx, issuance.FreeClaim{
		EventID:   f.freeEvent.ID,
		Quantity:  1,
		Purchaser: f.purchaser,
	})
	require.NoError(t, err)
	assert.False(t, result.AlreadyExisted)
	assert.Equal(t, entity.StatusConfirmed, result.Ticket.Status)
	assert.Nil(t, result.Ticket.Payment)
	require.Len(t, f.tickets.issued, 1)

	issued := f.tickets.events[0]
	assert.Equal(t, "Sunday Service", issued.EventTitle)
	assert.Equal(t, f.purchaser.Email, issued.CustomerEmail)
	assert.Equal(t, "0.00", issued.Price.Amount)
}

func TestClaimFree_LegacyEventIsIdempotentPerUser(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	claim := issuance.FreeClaim{
		EventSlug: f.freeEvent.Slug,
		Quantity:  1,
		Purchaser: f.purchaser,
	}

	first, err := f.service.ClaimFree(ctx, claim)
	require.NoError(t, err)

	second, err := f.service.ClaimFree(ctx, claim)
	require.NoError(t, err)

	assert.True(t, second.AlreadyExisted)
	assert.Equal(t, first.Ticket.ID, second.Ticket.ID)
	assert.Len(t, f.tickets.issued, 1)
}

func TestClaimFree_TicketTypeAllowsRepeatClaimsWithinOrderCap(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	// With a ticket type the legacy one-per-person rule does not apply;
	// only the per-order cap limits a single claim.
	for i := 0; i < 2; i++ {
		result, err := f.service.ClaimFree(ctx, issuance.FreeClaim{
			EventID:      f.freeEvent.ID,
			TicketTypeID: &f.freeType.ID,
			Quantity:     1,
			Purchaser:    f.purchaser,
		})
		require.NoError(t, err)
		assert.False(t, result.AlreadyExisted)
	}
	assert.Len(t, f.tickets.issued, 2)

	_, err := f.service.ClaimFree(ctx, issuance.FreeClaim{
		EventID:      f.freeEvent.ID,
		TicketTypeID: &f.freeType.ID,
		Quantity:     3,
		Purchaser:    f.purchaser,
	})
	var orderLimit issuance.OrderLimitError
	require.ErrorAs(t, err, &orderLimit)
	assert.Equal(t, 2, orderLimit.Max)
	assert.Equal(t, 3, orderLimit.Requested)
	assert.Len(t, f.tickets.issued, 2)
}

func TestClaimFree_PaidTicketTypeRequiresPayment(t *testing.T) {
	f := setup(t)

	_, err := f.service.ClaimFree(context.Background(), issuance.FreeClaim{
		EventID:      f.freeEvent.ID,
		TicketTypeID: &f.paidType.ID,
		Quantity:     1,
		Purchaser:    f.purchaser,
	})
	require.ErrorIs(t, err, issuance.ErrPaymentRequired)
	assert.Empty(t, f.tickets.issued)
}

func TestClaimFree_PaidLegacyEventRequiresPayment(t *testing.T) {
	f := setup(t)

	_, err := f.service.ClaimFree(context.Background(), issuance.FreeClaim{
		EventID:   f.paidEvent.ID,
		Quantity:  1,
		Purchaser: f.purchaser,
	})
	require.ErrorIs(t, err, issuance.ErrPaymentRequired)
	assert.Empty(t, f.tickets.issued)
}

func TestClaimFree_SoldOutTicketType(t *testing.T) {
	f := setup(t)

	_, err := f.service.ClaimFree(context.Background(), issuance.FreeClaim{
		EventID:      f.freeEvent.ID,
		TicketTypeID: &f.soldOut.ID,
		Quantity:     1,
		Purchaser:    f.purchaser,
	})
	var outOfStock issuance.OutOfStockError
	require.ErrorAs(t, err, &outOfStock)
	assert.Equal(t, 0, outOfStock.Available)
	assert.Empty(t, f.tickets.issued)
}

func TestClaimFree_InactiveTicketType(t *testing.T) {
	f := setup(t)

	_, err := f.service.ClaimFree(context.Background(), issuance.FreeClaim{
		EventID:      f.freeEvent.ID,
		TicketTypeID: &f.inactive.ID,
		Quantity:     1,
		Purchaser:    f.purchaser,
	})
	require.ErrorIs(t, err, issuance.ErrTicketTypeInactive)
}

func TestClaimFree_Validation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.service.ClaimFree(ctx, issuance.FreeClaim{
		EventID:  f.freeEvent.ID,
		Quantity: 1,
	})
	require.ErrorIs(t, err, issuance.ErrUnauthenticated)

	_, err = f.service.ClaimFree(ctx, issuance.FreeClaim{
		EventID:   f.freeEvent.ID,
		Quantity:  0,
		Purchaser: f.purchaser,
	})
	require.ErrorIs(t, err, issuance.ErrInvalidQuantity)

	_, err = f.service.ClaimFree(ctx, issuance.FreeClaim{
		EventID:   uuid.NewString(),
		Quantity:  1,
		Purchaser: f.purchaser,
	})
	require.ErrorIs(t, err, issuance.ErrNotFound)
}

func paidSession(f fixture, sessionID string) issuance.PaymentSession {
	return issuance.PaymentSession{
		ID:            sessionID,
		PaymentStatus: "paid",
		AmountTotal:   1000,
		Currency:      "gbp",
		CustomerEmail: "buyer@example.com",
		Metadata: map[string]string{
			"event_id": f.paidEvent.ID,
			"user_id":  f.purchaser.ID,
			"quantity": "2",
		},
	}
}

func TestReconcileSession_IssuesOneTicket(t *testing.T) {
	f := setup(t)

	result, err := f.service.ReconcileSession(context.Background(), paidSession(f, "sess_123"))
	require.NoError(t, err)
	assert.False(t, result.AlreadyExisted)

	require.Len(t, f.tickets.issued, 1)
	ticket := f.tickets.issued[0]
	assert.Equal(t, 2, ticket.Quantity)
	assert.Equal(t, entity.StatusConfirmed, ticket.Status)
	require.NotNil(t, ticket.Payment)
	assert.Equal(t, "sess_123", ticket.Payment.Reference)
	assert.Equal(t, int64(1000), ticket.Payment.AmountTotal)
	assert.Equal(t, "GBP", ticket.Payment.Currency)

	issued := f.tickets.events[0]
	assert.Equal(t, "10.00", issued.Price.Amount)
	assert.Equal(t, "GBP", issued.Price.Currency)
}

func TestReconcileSession_ReplayReturnsOriginalTicket(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	first, err := f.service.ReconcileSession(ctx, paidSession(f, "sess_123"))
	require.NoError(t, err)

	second, err := f.service.ReconcileSession(ctx, paidSession(f, "sess_123"))
	require.NoError(t, err)

	assert.True(t, second.AlreadyExisted)
	assert.Equal(t, first.Ticket.ID, second.Ticket.ID)
	assert.Len(t, f.tickets.issued, 1)
}

func TestReconcileSession_UnpaidSessionIsNoOp(t *testing.T) {
	f := setup(t)

	session := paidSession(f, "sess_unpaid")
	session.PaymentStatus = "unpaid"

	_, err := f.service.ReconcileSession(context.Background(), session)
	require.ErrorIs(t, err, issuance.ErrPaymentNotCompleted)
	assert.Empty(t, f.tickets.issued)
}

func TestReconcileSession_MissingMetadataFailsFast(t *testing.T) {
	f := setup(t)

	session := paidSession(f, "sess_bad")
	delete(session.Metadata, "user_id")

	_, err := f.service.ReconcileSession(context.Background(), session)
	var metadataErr entity.MetadataError
	require.ErrorAs(t, err, &metadataErr)
	assert.Equal(t, "user_id", metadataErr.Field)
	assert.Empty(t, f.tickets.issued)
}

func TestIssue_DuplicateInsertRaceReturnsWinner(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	first, err := f.service.ReconcileSession(ctx, paidSession(f, "sess_race"))
	require.NoError(t, err)

	// The losing invocation's guard read ran before the winner committed,
	// so it proceeds to the insert and hits the unique constraint.
	f.tickets.blindReads = 1
	second, err := f.service.ReconcileSession(ctx, paidSession(f, "sess_race"))
	require.NoError(t, err)

	assert.True(t, second.AlreadyExisted)
	assert.Equal(t, first.Ticket.ID, second.Ticket.ID)
	assert.Len(t, f.tickets.issued, 1)
}

func TestIssue_InsufficientInventoryMapsToOutOfStock(t *testing.T) {
	f := setup(t)

	f.tickets.issueErr = db.InsufficientInventoryError{Available: 1, Requested: 2}

	_, err := f.service.ClaimFree(context.Background(), issuance.FreeClaim{
		EventID:      f.freeEvent.ID,
		TicketTypeID: &f.freeType.ID,
		Quantity:     2,
		Purchaser:    f.purchaser,
	})
	var outOfStock issuance.OutOfStockError
	require.ErrorAs(t, err, &outOfStock)
	assert.Equal(t, 1, outOfStock.Available)
	assert.Equal(t, 2, outOfStock.Requested)
}
