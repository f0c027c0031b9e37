// Package booking holds the reservation rules that do not touch storage.
//
// It computes the weekly slot grid for a room, marks slots as reserved from a
// set of reservations, models the reservation status values, and filters
// rooms by their features. Every function here is deterministic and free of
// side effects so the application layer can call it inside or outside a
// transaction.
package booking
