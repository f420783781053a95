package issuance

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"ticketing/db"
	"ticketing/entity"
	"ticketing/event"
	"ticketing/monitoring"
)

type EventRepo interface {
	GetByID(ctx context.Context, eventID string) (entity.Event, error)
	GetBySlug(ctx context.Context, slug string) (entity.Event, error)
}

type TicketTypeRepo interface {
	Get(ctx context.Context, ticketTypeID string) (entity.TicketType, error)
}

type TicketRepo interface {
	FindByPaymentRef(ctx context.Context, paymentRef string) (entity.Ticket, bool, error)
	FindLegacyFree(ctx context.Context, eventID, userID string) (entity.Ticket, bool, error)
	Issue(ctx context.Context, ticket entity.Ticket, issued event.TicketIssued) error
}

// Service is the reconciliation engine. Both the free-claim path and the
// paid path (webhook or client session verify) converge on issue(), so
// replays of either arrive at the same ticket.
type Service struct {
	events      EventRepo
	ticketTypes TicketTypeRepo
	tickets     TicketRepo
	currency    string
}

func NewService(events EventRepo, ticketTypes TicketTypeRepo, tickets TicketRepo, defaultCurrency string) Service {
	return Service{
		events:      events,
		ticketTypes: ticketTypes,
		tickets:     tickets,
		currency:    strings.ToUpper(defaultCurrency),
	}
}

// FreeClaim is a request to issue a free ticket to an authenticated
// purchaser. Exactly one of EventID and EventSlug must be set.
type FreeClaim struct {
	EventID      string
	EventSlug    string
	TicketTypeID *string
	Quantity     int
	Purchaser    entity.Purchaser
}

// IssueResult reports the issued ticket. AlreadyExisted is set when the
// idempotency guard matched an earlier ticket; callers treat that as
// success, not as an error.
type IssueResult struct {
	Ticket         entity.Ticket
	AlreadyExisted bool
}

// PaymentSession is the provider-confirmed checkout session, either pushed
// by webhook or pulled by the client-initiated verify call. Metadata was
// attached at checkout creation and is the only trusted request channel.
type PaymentSession struct {
	ID            string
	PaymentStatus string
	AmountTotal   int64
	Currency      string
	CustomerEmail string
	Metadata      map[string]string
}

const paymentStatusPaid = "paid"

// ClaimFree issues a ticket for a free event or a zero-priced ticket type.
// A non-zero price fails with ErrPaymentRequired before any mutation.
func (s Service) ClaimFree(ctx context.Context, claim FreeClaim) (IssueResult, error) {
	if claim.Purchaser.ID == "" {
		return IssueResult{}, ErrUnauthenticated
	}
	if claim.Quantity < 1 {
		return IssueResult{}, ErrInvalidQuantity
	}

	ev, err := s.resolveEvent(ctx, claim.EventID, claim.EventSlug)
	if err != nil {
		return IssueResult{}, err
	}

	var ticketType *entity.TicketType
	if claim.TicketTypeID != nil {
		tt, err := s.validTicketType(ctx, *claim.TicketTypeID, ev.ID, claim.Quantity)
		if err != nil {
			return IssueResult{}, err
		}
		if !tt.IsFree() {
			return IssueResult{}, ErrPaymentRequired
		}
		ticketType = &tt
	} else {
		if !ev.IsFree() {
			return IssueResult{}, ErrPaymentRequired
		}

		// Legacy free events allow one ticket per person; the (event, user)
		// pair is the idempotency key.
		existing, found, err := s.tickets.FindLegacyFree(ctx, ev.ID, claim.Purchaser.ID)
		if err != nil {
			return IssueResult{}, fmt.Errorf("checking for existing free ticket: %w", err)
		}
		if found {
			monitoring.DuplicateReplay()
			return IssueResult{Ticket: existing, AlreadyExisted: true}, nil
		}
	}

	ticket := entity.Ticket{
		ID:            uuid.NewString(),
		EventID:       ev.ID,
		TicketTypeID:  claim.TicketTypeID,
		UserID:        claim.Purchaser.ID,
		CustomerEmail: claim.Purchaser.Email,
		Quantity:      claim.Quantity,
		Status:        entity.StatusConfirmed,
		CheckInStatus: entity.CheckInPending,
	}

	var typeName string
	if ticketType != nil {
		typeName = ticketType.Name
	}
	price := entity.Money{Amount: "0.00", Currency: s.currency}
	issued := event.NewTicketIssued(ticket, ev, typeName, price)

	result, err := s.issue(ctx, ticket, issued)
	if err != nil {
		return IssueResult{}, err
	}
	if !result.AlreadyExisted {
		monitoring.TicketIssued("free")
	}

	return result, nil
}

// ReconcileSession turns a completed payment session into exactly one
// ticket. An incomplete session is reported as ErrPaymentNotCompleted and
// must not create a ticket; webhook callers treat it as a no-op.
func (s Service) ReconcileSession(ctx context.Context, session PaymentSession) (IssueResult, error) {
	if session.PaymentStatus != paymentStatusPaid {
		return IssueResult{}, ErrPaymentNotCompleted
	}

	md, err := entity.ParseCheckoutMetadata(session.Metadata)
	if err != nil {
		return IssueResult{}, err
	}

	// The payment reference is the natural idempotency key: the webhook and
	// the client verify call can both arrive for the same session.
	existing, found, err := s.tickets.FindByPaymentRef(ctx, session.ID)
	if err != nil {
		return IssueResult{}, fmt.Errorf("checking for existing payment: %w", err)
	}
	if found {
		monitoring.DuplicateReplay()
		return IssueResult{Ticket: existing, AlreadyExisted: true}, nil
	}

	ev, err := s.resolveEvent(ctx, md.EventID, md.EventSlug)
	if err != nil {
		return IssueResult{}, err
	}

	typeName := md.TicketTypeName
	if md.TicketTypeID != nil {
		tt, err := s.validTicketType(ctx, *md.TicketTypeID, ev.ID, md.Quantity)
		if err != nil {
			return IssueResult{}, err
		}
		typeName = tt.Name
	}
	// Legacy single-price paid events have no per-type inventory; the
	// events.available_tickets column is informational only and is not
	// enforced here, matching how these events have always behaved.

	currency := strings.ToUpper(session.Currency)
	if currency == "" {
		currency = s.currency
	}

	ticket := entity.Ticket{
		ID:            uuid.NewString(),
		EventID:       ev.ID,
		TicketTypeID:  md.TicketTypeID,
		UserID:        md.UserID,
		CustomerEmail: session.CustomerEmail,
		Quantity:      md.Quantity,
		Status:        entity.StatusConfirmed,
		CheckInStatus: entity.CheckInPending,
		Payment: &entity.PaymentInfo{
			Reference:   session.ID,
			AmountTotal: session.AmountTotal,
			Currency:    currency,
			SessionID:   session.ID,
		},
	}

	price := entity.Money{
		Amount:   decimal.NewFromInt(session.AmountTotal).Div(decimal.NewFromInt(100)).StringFixed(2),
		Currency: currency,
	}
	issued := event.NewTicketIssued(ticket, ev, typeName, price)

	result, err := s.issue(ctx, ticket, issued)
	if err != nil {
		return IssueResult{}, err
	}
	if !result.AlreadyExisted {
		monitoring.TicketIssued("paid")
	}

	return result, nil
}

func (s Service) issue(ctx context.Context, ticket entity.Ticket, issued event.TicketIssued) (IssueResult, error) {
	err := s.tickets.Issue(ctx, ticket, issued)
	if err == nil {
		return IssueResult{Ticket: ticket}, nil
	}

	var dup db.DuplicateTicketError
	if errors.As(err, &dup) {
		// Lost the race to another invocation with the same key. Return the
		// winner's ticket as if this call had issued it.
		winner, found, findErr := s.findWinner(ctx, ticket)
		if findErr != nil {
			return IssueResult{}, fmt.Errorf("fetching ticket after duplicate insert: %w", findErr)
		}
		if !found {
			return IssueResult{}, fmt.Errorf("duplicate insert but no existing ticket: %w", err)
		}
		monitoring.DuplicateReplay()
		return IssueResult{Ticket: winner, AlreadyExisted: true}, nil
	}

	var insufficient db.InsufficientInventoryError
	if errors.As(err, &insufficient) {
		monitoring.OverSellRejected()
		return IssueResult{}, OutOfStockError{
			Available: insufficient.Available,
			Requested: insufficient.Requested,
		}
	}

	switch {
	case errors.Is(err, db.ErrTicketTypeInactive):
		return IssueResult{}, ErrTicketTypeInactive
	case errors.Is(err, db.ErrNotFound):
		return IssueResult{}, ErrNotFound
	}

	return IssueResult{}, fmt.Errorf("issuing ticket: %w", err)
}

func (s Service) findWinner(ctx context.Context, ticket entity.Ticket) (entity.Ticket, bool, error) {
	if ticket.Payment != nil {
		return s.tickets.FindByPaymentRef(ctx, ticket.Payment.Reference)
	}
	return s.tickets.FindLegacyFree(ctx, ticket.EventID, ticket.UserID)
}

func (s Service) resolveEvent(ctx context.Context, eventID, slug string) (entity.Event, error) {
	var ev entity.Event
	var err error
	switch {
	case eventID != "":
		ev, err = s.events.GetByID(ctx, eventID)
	case slug != "":
		ev, err = s.events.GetBySlug(ctx, slug)
	default:
		return entity.Event{}, ErrNotFound
	}

	if errors.Is(err, db.ErrNotFound) {
		return entity.Event{}, ErrNotFound
	}
	if err != nil {
		return entity.Event{}, fmt.Errorf("resolving event: %w", err)
	}

	return ev, nil
}

func (s Service) validTicketType(ctx context.Context, ticketTypeID, eventID string, quantity int) (entity.TicketType, error) {
	tt, err := s.ticketTypes.Get(ctx, ticketTypeID)
	if errors.Is(err, db.ErrNotFound) {
		return entity.TicketType{}, ErrNotFound
	}
	if err != nil {
		return entity.TicketType{}, fmt.Errorf("resolving ticket type: %w", err)
	}

	if tt.EventID != eventID {
		return entity.TicketType{}, ErrNotFound
	}
	if !tt.IsActive {
		return entity.TicketType{}, ErrTicketTypeInactive
	}
	if quantity > tt.MaxPerOrder {
		return entity.TicketType{}, OrderLimitError{
			Max:       tt.MaxPerOrder,
			Requested: quantity,
		}
	}
	if remaining := tt.Remaining(); quantity > remaining {
		monitoring.OverSellRejected()
		return entity.TicketType{}, OutOfStockError{
			Available: remaining,
			Requested: quantity,
		}
	}

	return tt, nil
}
