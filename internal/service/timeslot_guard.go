package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/iliyamo/mealhub-reservation/internal/model"
)

// RemovalCheck is the verdict of CheckRemovable.  BlockingLabels lists the
// dropped timeslots that still hold live reservations, sorted.
type RemovalCheck struct {
	Removable      bool     `json:"removable"`
	BlockingLabels []string `json:"blockingLabels"`
}

// CheckRemovable decides whether the restaurant may switch to the proposed
// timeslot labels.  Every label that would be dropped is checked for
// CONFIRMED reservations dated today or later whose timeslot has not ended.
// One live reservation blocks the whole update: the result is then not
// removable and the error is ErrCannotModifyActiveTimeslots.
func (s *ReservationService) CheckRemovable(ctx context.Context, restaurantID uint64, proposed []string) (RemovalCheck, error) {
	rest, err := s.restaurant(ctx, restaurantID)
	if err != nil {
		return RemovalCheck{}, err
	}

	keep := make(map[string]struct{}, len(proposed))
	for _, p := range proposed {
		if ts, ok := model.ParseTimeslot(p); ok {
			keep[ts.Label()] = struct{}{}
		}
	}
	toRemove := make([]string, 0)
	seen := make(map[string]struct{})
	for _, label := range rest.Labels() {
		if _, ok := keep[label]; ok {
			continue
		}
		if _, dup := seen[label]; dup {
			continue
		}
		seen[label] = struct{}{}
		toRemove = append(toRemove, label)
	}
	if len(toRemove) == 0 {
		return RemovalCheck{Removable: true, BlockingLabels: []string{}}, nil
	}

	now := s.now()
	today := now.In(s.loc).Format(dateLayout)
	reservations, err := s.store.ListConfirmedByTimeslots(ctx, restaurantID, toRemove, today)
	if err != nil {
		return RemovalCheck{}, fmt.Errorf("check removable: %w", err)
	}

	blocking := make(map[string]struct{})
	for _, res := range reservations {
		if res.IsActive(now, s.loc) {
			blocking[res.Timeslot] = struct{}{}
		}
	}
	labels := make([]string, 0, len(blocking))
	for l := range blocking {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	if len(labels) > 0 {
		return RemovalCheck{Removable: false, BlockingLabels: labels}, ErrCannotModifyActiveTimeslots
	}
	return RemovalCheck{Removable: true, BlockingLabels: labels}, nil
}

// ReplaceTimeslots runs the retirement guard and, when it passes, persists
// slots as the restaurant's new catalog.  Duplicate windows are dropped.
func (s *ReservationService) ReplaceTimeslots(ctx context.Context, restaurantID uint64, slots []model.Timeslot) (RemovalCheck, error) {
	clean := make([]model.Timeslot, 0, len(slots))
	labels := make([]string, 0, len(slots))
	seen := make(map[string]struct{}, len(slots))
	for _, ts := range slots {
		if !ts.Valid() {
			return RemovalCheck{}, ErrInvalidTimeslot
		}
		if _, dup := seen[ts.Label()]; dup {
			continue
		}
		seen[ts.Label()] = struct{}{}
		clean = append(clean, ts)
		labels = append(labels, ts.Label())
	}

	check, err := s.CheckRemovable(ctx, restaurantID, labels)
	if err != nil {
		return check, err
	}
	if err := s.catalog.UpdateTimeslots(ctx, restaurantID, clean); err != nil {
		return check, mapStoreError("replace timeslots", err)
	}
	return check, nil
}
