// Package transport defines DTOs for the staff API.
package transport

import "time"

// CreateStaffRequest registers a responder.
type CreateStaffRequest struct {
	Name  string `json:"name" validate:"required,notblank"`
	Email string `json:"email" validate:"required,email"`
}

// StaffResponse is the JSON shape of a staff member.
type StaffResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// CreatePinRequest adds a coverage pin.
type CreatePinRequest struct {
	StaffID   string  `json:"staffId" validate:"required,uuid"`
	Label     string  `json:"label" validate:"omitempty,notblank"`
	Latitude  float64 `json:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"required,gte=-180,lte=180"`
}

// PinResponse is the JSON shape of a coverage pin.
type PinResponse struct {
	ID        string    `json:"id"`
	StaffID   string    `json:"staffId"`
	Label     string    `json:"label"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	CreatedAt time.Time `json:"createdAt"`
}
