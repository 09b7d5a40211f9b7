// Package transport defines DTOs for the settings API.
package transport

import "time"

// UpdateSettingsRequest appends a new settings snapshot.
type UpdateSettingsRequest struct {
	GeofenceAddressPrefix       string `json:"geofenceAddressPrefix" validate:"omitempty,notblank"`
	EventClusteringTimeMinutes  int    `json:"eventClusteringTimeMinutes" validate:"required,gt=0"`
	EventClusteringRadiusMeters int    `json:"eventClusteringRadiusMeters" validate:"required,gt=0"`
	LineSessionTimeoutHours     int    `json:"lineSessionTimeoutHours" validate:"required,gt=0"`
}

// SettingsResponse is the JSON shape of a settings snapshot.
type SettingsResponse struct {
	ID                          string    `json:"id"`
	GeofenceAddressPrefix       string    `json:"geofenceAddressPrefix"`
	EventClusteringTimeMinutes  int       `json:"eventClusteringTimeMinutes"`
	EventClusteringRadiusMeters int       `json:"eventClusteringRadiusMeters"`
	LineSessionTimeoutHours     int       `json:"lineSessionTimeoutHours"`
	CreatedAt                   time.Time `json:"createdAt"`
}
