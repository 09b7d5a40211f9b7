// Package geofence implements the address-prefix admission rule that
// restricts which locations may be reported.
package geofence

import (
	"context"
	"strings"

	"wildguard_backend/internal/settings/repository"
)

// SettingsSource yields the live settings snapshot.
type SettingsSource interface {
	Current(ctx context.Context) (repository.Snapshot, error)
}

// Decision is the outcome of an admission check.
type Decision struct {
	Allowed bool
	Prefix  string
}

// Validator checks reverse-geocoded addresses against the configured
// address prefix. It has no side effects; the conversation layer decides
// how to respond to a rejection.
type Validator struct {
	settings SettingsSource
}

// New creates a geofence validator.
func New(settings SettingsSource) *Validator {
	return &Validator{settings: settings}
}

// Validate admits the address iff it starts with the configured prefix.
// An empty prefix admits everything. The match is exact and case-sensitive;
// no normalization is applied.
func (v *Validator) Validate(ctx context.Context, address string) (Decision, error) {
	snap, err := v.settings.Current(ctx)
	if err != nil {
		return Decision{}, err
	}

	return Check(address, snap.GeofenceAddressPrefix), nil
}

// Check is the pure prefix rule, split out for direct testing.
func Check(address, prefix string) Decision {
	if prefix == "" {
		return Decision{Allowed: true, Prefix: prefix}
	}
	return Decision{Allowed: strings.HasPrefix(address, prefix), Prefix: prefix}
}
