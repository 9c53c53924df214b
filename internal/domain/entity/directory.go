package entity

import "time"

// Event holds the immutable fields the pipeline copies from the event
// directory at engagement creation. The directory owns the record; this
// core never mutates it.
type Event struct {
	ID          string    `json:"id" firestore:"id"`
	OrganizerID string    `json:"organizer_id" firestore:"organizerId"`
	Title       string    `json:"title" firestore:"title"`
	StartTime   time.Time `json:"start_time" firestore:"startTime"`
	Location    string    `json:"location,omitempty" firestore:"location,omitempty"`
}

// Profile is the read-only view of a user resolved from the profile
// directory.
type Profile struct {
	ID       string `json:"id" firestore:"id"`
	Username string `json:"username" firestore:"username"`
	Role     string `json:"role" firestore:"role"` // "organizer" or "professional"
}
