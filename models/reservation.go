package models

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

// Reservation belongs to either a table or a room; the API names the owner
// field after the unit kind.
type Reservation struct {
	ID        int       `json:"id,omitempty"`
	Table     int       `json:"table,omitempty"`
	Room      int       `json:"room,omitempty"`
	Date      string    `json:"date"`
	Time      string    `json:"time"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	CreatedAt Timestamp `json:"created_at"`
}

func (r Reservation) UnitID() int {
	if r.Table != 0 {
		return r.Table
	}
	return r.Room
}
