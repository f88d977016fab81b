package service

import (
	"context"
	"log"
	"time"

	"github.com/iliyamo/mealhub-reservation/internal/model"
	"github.com/iliyamo/mealhub-reservation/internal/queue"
)

// ShortLinkPath is the route under which short tokens resolve.
const ShortLinkPath = "/v1/reservations/short/"

// dispatchCreated sends one reservation-created event to the owner and to
// every guest, de-duplicated, on its own goroutine.  Failures are logged and
// never reach the booking caller.
func (s *ReservationService) dispatchCreated(res model.Reservation, restaurantName string, guests []string) {
	if s.notifier == nil {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.notifyTimeout)
		defer cancel()

		recipients := make([]string, 0, len(guests)+1)
		if s.users != nil {
			email, err := s.users.EmailOf(ctx, res.UserID)
			if err != nil {
				log.Printf("booking: lookup email for user %d: %v", res.UserID, err)
			} else if email != "" {
				recipients = append(recipients, email)
			}
		}
		recipients = normalizeEmails(append(recipients, guests...))

		createdAt := res.CreatedAt
		if createdAt.IsZero() {
			createdAt = s.now()
		}
		for _, to := range recipients {
			ev := queue.ReservationCreatedEvent{
				ReservationID:  res.ID,
				RestaurantID:   res.RestaurantID,
				RestaurantName: restaurantName,
				Recipient:      to,
				Date:           res.Date,
				Timeslot:       res.Timeslot,
				PartySize:      res.PartySize,
				ShortLink:      s.baseURL + ShortLinkPath + res.ShortToken,
				CreatedAt:      createdAt.UTC().Format(time.RFC3339),
			}
			if err := s.notifier.PublishReservationCreated(ctx, ev); err != nil {
				log.Printf("booking: notify %s for reservation %d: %v", to, res.ID, err)
			}
		}
	}()
}
