package model

import "time"

type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusClosed     TicketStatus = "closed"
)

// Valid reports whether s is one of the known statuses.
func (s TicketStatus) Valid() bool {
	return s == TicketStatusOpen || s == TicketStatusInProgress || s == TicketStatusClosed
}

type Ticket struct {
	ID          uint64       `gorm:"primaryKey" json:"id"`
	UserNumber  string       `gorm:"index;not null" json:"user_number"`
	Category    string       `gorm:"type:varchar(32);index;not null" json:"category"`
	Subcategory string       `gorm:"type:varchar(64);not null" json:"subcategory"`
	Description *string      `gorm:"type:text" json:"description,omitempty"`
	Location    *string      `gorm:"type:varchar(64)" json:"location,omitempty"`
	Details     *string      `gorm:"type:text" json:"details,omitempty"`
	Status      TicketStatus `gorm:"type:varchar(32);index;not null;default:'open'" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StudentProfile: анкета студента, ключ: номер WhatsApp (user_number).
type StudentProfile struct {
	ID         uint64 `gorm:"primaryKey" json:"id"`
	UserNumber string `gorm:"type:varchar(32);uniqueIndex;not null" json:"user_number"`
	FullName   string `gorm:"type:text" json:"full_name,omitempty"`
	Email      string `gorm:"type:varchar(255)" json:"email,omitempty"`
	RoomNumber string `gorm:"type:text" json:"room_number,omitempty"`
	Mobile     string `gorm:"type:text" json:"mobile,omitempty"`
	Hostel     string `gorm:"type:varchar(64)" json:"hostel,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (StudentProfile) TableName() string { return "students" }

// Registered is true once the last registration field (hostel) has been captured.
func (p *StudentProfile) Registered() bool {
	return p != nil && p.Hostel != ""
}
