package service

import (
	"context"
	"time"

	"github.com/labstack/gommon/log"

	"github.com/iliyamo/flight-booking/internal/model"
	"github.com/iliyamo/flight-booking/internal/queue"
)

// EventPublisher delivers ticket events after their transaction commits.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.TicketEvent) error
}

const publishTimeout = 3 * time.Second

// publish sends ev if a publisher is configured.  Delivery is best effort:
// the booking is already durable, so failures are only logged.
func publish(ctx context.Context, p EventPublisher, ev queue.TicketEvent) {
	if p == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := p.Publish(ctx, ev); err != nil {
		log.Warnf("publish %s for ticket %d: %v", ev.Type, ev.TicketID, err)
	}
}

func ticketEvent(kind string, t model.Ticket, f model.Flight, actor uint64, now time.Time) queue.TicketEvent {
	return queue.TicketEvent{
		Type:             kind,
		TicketID:         t.ID,
		TicketNumber:     t.TicketNumber,
		BookingReference: t.BookingReference,
		UserID:           t.UserID,
		ActorID:          actor,
		FlightID:         f.ID,
		FlightNumber:     f.FlightNumber,
		SeatNumber:       t.SeatNumber,
		SeatClass:        t.SeatClass,
		Amount:           t.Price.String(),
		OccurredAt:       now.UTC().Format(time.RFC3339),
	}
}
