package service

import (
	"context"
	"fmt"
	"time"

	"github.com/iliyamo/mealhub-reservation/internal/model"
)

// SlotAvailability is the usage of one timeslot for a single party size.
type SlotAvailability struct {
	Start     string `json:"start"`
	End       string `json:"end"`
	Capacity  int    `json:"capacity"`
	Reserved  int    `json:"reserved"`
	Available int    `json:"available"`
}

// PartySizeAvailability is one bucket inside a TimeslotAvailability.
type PartySizeAvailability struct {
	Size      int `json:"size"`
	Capacity  int `json:"capacity"`
	Reserved  int `json:"reserved"`
	Available int `json:"available"`
}

// AvailabilityTotals sums a timeslot's buckets.
type AvailabilityTotals struct {
	Capacity  int `json:"capacity"`
	Reserved  int `json:"reserved"`
	Available int `json:"available"`
}

// TimeslotAvailability is the usage of one timeslot across every party size
// in the catalog.
type TimeslotAvailability struct {
	Start       string                  `json:"start"`
	End         string                  `json:"end"`
	ByPartySize []PartySizeAvailability `json:"byPartySize"`
	Totals      AvailabilityTotals      `json:"totals"`
}

// Availability reports capacity, reserved and available seats for partySize
// in every catalog timeslot on date.  A party size missing from the catalog
// yields zero capacity rather than an error.
func (s *ReservationService) Availability(ctx context.Context, restaurantID uint64, date string, partySize int) ([]SlotAvailability, error) {
	rest, used, err := s.snapshot(ctx, restaurantID, date)
	if err != nil {
		return nil, err
	}
	capacity := rest.Capacity(partySize)
	out := make([]SlotAvailability, 0, len(rest.Timeslots))
	for _, ts := range rest.Timeslots {
		if ts.Start == "" || ts.End == "" {
			continue
		}
		reserved := used[bucket{ts.Label(), partySize}]
		out = append(out, SlotAvailability{
			Start:     ts.Start,
			End:       ts.End,
			Capacity:  capacity,
			Reserved:  reserved,
			Available: available(capacity, reserved),
		})
	}
	return out, nil
}

// AvailabilityDetail reports every party-size bucket of every catalog
// timeslot on date, sizes ascending, with per-timeslot totals.
func (s *ReservationService) AvailabilityDetail(ctx context.Context, restaurantID uint64, date string) ([]TimeslotAvailability, error) {
	rest, used, err := s.snapshot(ctx, restaurantID, date)
	if err != nil {
		return nil, err
	}
	sizes := rest.PartySizes()
	out := make([]TimeslotAvailability, 0, len(rest.Timeslots))
	for _, ts := range rest.Timeslots {
		if ts.Start == "" || ts.End == "" {
			continue
		}
		row := TimeslotAvailability{
			Start:       ts.Start,
			End:         ts.End,
			ByPartySize: make([]PartySizeAvailability, 0, len(sizes)),
		}
		for _, size := range sizes {
			capacity := rest.Capacity(size)
			reserved := used[bucket{ts.Label(), size}]
			avail := available(capacity, reserved)
			row.ByPartySize = append(row.ByPartySize, PartySizeAvailability{
				Size: size, Capacity: capacity, Reserved: reserved, Available: avail,
			})
			row.Totals.Capacity += capacity
			row.Totals.Reserved += reserved
			row.Totals.Available += avail
		}
		out = append(out, row)
	}
	return out, nil
}

type bucket struct {
	label string
	size  int
}

// snapshot loads the catalog and all ledger rows of the day with one
// unlocked read.  Buckets without a row count as empty.
func (s *ReservationService) snapshot(ctx context.Context, restaurantID uint64, date string) (*model.Restaurant, map[bucket]int, error) {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return nil, nil, ErrInvalidDate
	}
	rest, err := s.restaurant(ctx, restaurantID)
	if err != nil {
		return nil, nil, err
	}
	rows, err := s.store.ListSlotsByDate(ctx, restaurantID, date)
	if err != nil {
		return nil, nil, fmt.Errorf("availability: %w", err)
	}
	used := make(map[bucket]int, len(rows))
	for _, r := range rows {
		used[bucket{r.Timeslot, r.PartySize}] = r.Reserved
	}
	return rest, used, nil
}

func available(capacity, reserved int) int {
	if capacity-reserved < 0 {
		return 0
	}
	return capacity - reserved
}
