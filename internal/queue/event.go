// Package queue defines message payloads exchanged over the message broker.
package queue

// ReservationCreatedEvent is published once per recipient after a reservation
// commits.  It carries everything the mail collaborator needs to render the
// confirmation without querying the primary database.
type ReservationCreatedEvent struct {
	ReservationID  uint64 `json:"reservation_id"`
	RestaurantID   uint64 `json:"restaurant_id"`
	RestaurantName string `json:"restaurant_name"`
	Recipient      string `json:"recipient"`
	Date           string `json:"date"`
	Timeslot       string `json:"timeslot"`
	PartySize      int    `json:"party_size"`
	ShortLink      string `json:"short_link"`
	CreatedAt      string `json:"created_at"`
}
