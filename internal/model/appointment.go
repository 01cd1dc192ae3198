package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AppointmentStatus represents the lifecycle state of an appointment.
type AppointmentStatus string

const (
	StatusBooked    AppointmentStatus = "BOOKED"
	StatusCancelled AppointmentStatus = "CANCELLED"
	StatusCompleted AppointmentStatus = "COMPLETED"
)

// Appointment is a single booked slot for one user with one doctor.
//
// ActiveSlot is TRUE while the appointment is BOOKED and NULL otherwise.
// Together with the unique index it allows one BOOKED row per
// (doctor, date, time) while any number of CANCELLED rows may coexist.
type Appointment struct {
	ID         uuid.UUID         `json:"id" gorm:"type:char(36);primaryKey"`
	UserID     uuid.UUID         `json:"user_id" gorm:"type:char(36);not null;index"`
	DoctorID   uuid.UUID         `json:"doctor_id" gorm:"type:char(36);not null;uniqueIndex:idx_appointments_active_slot,priority:1"`
	Date       Date              `json:"date" gorm:"column:appointment_date;type:date;not null;uniqueIndex:idx_appointments_active_slot,priority:2"`
	Time       TimeOfDay         `json:"time" gorm:"column:appointment_time;type:time;not null;uniqueIndex:idx_appointments_active_slot,priority:3"`
	Status     AppointmentStatus `json:"status" gorm:"type:varchar(20);not null;default:'BOOKED';index"`
	ActiveSlot *bool             `json:"-" gorm:"uniqueIndex:idx_appointments_active_slot,priority:4"`
	CreatedAt  time.Time         `json:"created_at" gorm:"autoCreateTime:false;not null"`

	// Relations
	User   *User   `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Doctor *Doctor `json:"-" gorm:"foreignKey:DoctorID;constraint:OnDelete:CASCADE"`
}

// BeforeCreate sets UUID before creating the record.
func (a *Appointment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// IsBooked reports whether the appointment still holds its slot.
func (a *Appointment) IsBooked() bool {
	return a.Status == StatusBooked
}

// IsCancelled reports whether the appointment was cancelled.
func (a *Appointment) IsCancelled() bool {
	return a.Status == StatusCancelled
}

// OwnedBy reports whether user owns the appointment.
func (a *Appointment) OwnedBy(user *User) bool {
	return user != nil && a.UserID == user.ID
}

// SlotMarker returns the active_slot value for a BOOKED appointment.
func SlotMarker() *bool {
	v := true
	return &v
}
