package model

import (
	"sort"
	"time"
)

// Restaurant is the catalog snapshot the booking core reads: the ordered
// timeslots on offer and the number of tables per party size.
//
// Fields:
//
//	ID           – primary key identifier.
//	Name         – display name used in notifications.
//	Description  – optional description.
//	Address      – optional street address.
//	Timeslots    – ordered list of bookable windows.
//	TableBuckets – party size -> table count (capacity per bucket).
//	Status       – ACTIVE, INACTIVE or CLOSED.
//	CreatedAt    – creation timestamp.
//	UpdatedAt    – last update timestamp.
type Restaurant struct {
	ID           uint64      // restaurants.id
	Name         string      // restaurants.name
	Description  *string     // restaurants.description (nullable)
	Address      *string     // restaurants.address (nullable)
	Timeslots    []Timeslot  // restaurants.timeslots (JSON)
	TableBuckets map[int]int // restaurants.table_buckets (JSON)
	Status       string      // restaurants.status
	CreatedAt    time.Time   // restaurants.created_at
	UpdatedAt    time.Time   // restaurants.updated_at
}

// Capacity returns the table count configured for partySize, or 0 when the
// catalog has no entry for it.
func (r *Restaurant) Capacity(partySize int) int {
	if r == nil || r.TableBuckets == nil {
		return 0
	}
	return r.TableBuckets[partySize]
}

// PartySizes returns the configured party sizes in ascending order.
func (r *Restaurant) PartySizes() []int {
	sizes := make([]int, 0, len(r.TableBuckets))
	for size := range r.TableBuckets {
		sizes = append(sizes, size)
	}
	sort.Ints(sizes)
	return sizes
}

// Labels returns the canonical labels of the catalog's timeslots in catalog
// order.
func (r *Restaurant) Labels() []string {
	labels := make([]string, 0, len(r.Timeslots))
	for _, ts := range r.Timeslots {
		if ts.Start == "" || ts.End == "" {
			continue
		}
		labels = append(labels, ts.Label())
	}
	return labels
}

// OffersTimeslot reports whether label is one of the catalog's timeslots.
func (r *Restaurant) OffersTimeslot(label string) bool {
	for _, l := range r.Labels() {
		if l == label {
			return true
		}
	}
	return false
}
