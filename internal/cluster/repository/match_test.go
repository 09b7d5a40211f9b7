package repository

import (
	"testing"

	"wildguard_backend/internal/geo"

	"github.com/google/uuid"
)

// pointAtMeters offsets a latitude by roughly the given distance in meters.
// One degree of latitude is about 111.32km everywhere.
func pointAtMeters(origin geo.Point, meters float64) geo.Point {
	return geo.Point{Lat: origin.Lat + meters/111320.0, Lng: origin.Lng}
}

func TestMatchCandidateWithinRadiusJoins(t *testing.T) {
	origin := geo.Point{Lat: 35.689, Lng: 139.691}
	eventID := uuid.New()
	candidates := []candidate{
		{id: eventID, center: pointAtMeters(origin, 400)},
	}

	match := matchCandidate(origin, candidates, 500)
	if match == nil {
		t.Fatal("report 400m from event center did not join under 500m radius")
	}
	if match.id != eventID {
		t.Fatalf("matched wrong event: %s", match.id)
	}
}

func TestMatchCandidateBeyondRadiusCreatesNew(t *testing.T) {
	origin := geo.Point{Lat: 35.689, Lng: 139.691}
	candidates := []candidate{
		{id: uuid.New(), center: pointAtMeters(origin, 600)},
	}

	if match := matchCandidate(origin, candidates, 500); match != nil {
		t.Fatal("report 600m from event center joined under 500m radius")
	}
}

func TestMatchCandidatePrefersNearestEvent(t *testing.T) {
	origin := geo.Point{Lat: 35.689, Lng: 139.691}
	near := uuid.New()
	candidates := []candidate{
		{id: uuid.New(), center: pointAtMeters(origin, 450)},
		{id: near, center: pointAtMeters(origin, 100)},
		{id: uuid.New(), center: pointAtMeters(origin, 300)},
	}

	match := matchCandidate(origin, candidates, 500)
	if match == nil || match.id != near {
		t.Fatalf("nearest event not chosen: %+v", match)
	}
}

func TestMatchCandidateNoCandidates(t *testing.T) {
	if match := matchCandidate(geo.Point{Lat: 35.689, Lng: 139.691}, nil, 500); match != nil {
		t.Fatal("match found with no candidates")
	}
}
