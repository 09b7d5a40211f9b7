package geo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"wildguard_backend/platform/logger"
)

func TestNearbyLandmarksSendsPhraseQueries(t *testing.T) {
	var queries []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		q := r.URL.Query().Get("q")
		queries = append(queries, q)

		if q == "" {
			t.Error("search request sent without a query")
		}
		if !strings.HasPrefix(q, "[") || !strings.HasSuffix(q, "]") {
			t.Errorf("query %q is not a bracketed special phrase", q)
		}
		if r.URL.Query().Get("bounded") != "1" {
			t.Error("search request not bounded to the viewbox")
		}
		if r.URL.Query().Get("viewbox") == "" {
			t.Error("search request missing viewbox")
		}
		if r.URL.Query().Get("accept-language") != "ja" {
			t.Errorf("accept-language = %q, want ja", r.URL.Query().Get("accept-language"))
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	svc := NewNominatimService(server.URL, logger.New("development"))
	if _, err := svc.NearbyLandmarks(context.Background(), Point{Lat: 35.0, Lng: 139.0}, 4); err != nil {
		t.Fatalf("NearbyLandmarks: %v", err)
	}

	if len(queries) != len(landmarkPhrases) {
		t.Fatalf("sent %d search requests, want %d", len(queries), len(landmarkPhrases))
	}
	for i, phrase := range landmarkPhrases {
		if queries[i] != phrase {
			t.Errorf("request %d query = %q, want %q", i, queries[i], phrase)
		}
	}
}

func TestNearbyLandmarksMergesAndSortsByDistance(t *testing.T) {
	origin := Point{Lat: 35.0, Lng: 139.0}
	// One degree of latitude is roughly 111km, so a factor puts results at
	// increasing distances from the origin.
	byPhrase := map[string][]nominatimSearchResult{
		"[school]":  {{Name: "第一小学校", Type: "school", Lat: "35.003", Lon: "139.0"}},
		"[park]":    {{Name: "中央公園", Type: "park", Lat: "35.001", Lon: "139.0"}},
		"[shrine]":  {{Name: "中央公園", Type: "shrine", Lat: "35.001", Lon: "139.0"}},
		"[station]": {{Name: "山里駅", Type: "station", Lat: "35.002", Lon: "139.0"}},
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(byPhrase[r.URL.Query().Get("q")])
	}))
	defer server.Close()

	svc := NewNominatimService(server.URL, logger.New("development"))
	landmarks, err := svc.NearbyLandmarks(context.Background(), origin, 5)
	if err != nil {
		t.Fatalf("NearbyLandmarks: %v", err)
	}

	names := make([]string, 0, len(landmarks))
	for _, lm := range landmarks {
		names = append(names, lm.Name)
	}
	want := []string{"中央公園", "山里駅", "第一小学校"}
	if len(names) != len(want) {
		t.Fatalf("got %d landmarks %v, want %d (duplicates merged)", len(names), names, len(want))
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("landmark %d = %q, want %q (nearest first)", i, names[i], want[i])
		}
	}
}

func TestNearbyLandmarksFailsWhenAllQueriesFail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	svc := NewNominatimService(server.URL, logger.New("development"))
	if _, err := svc.NearbyLandmarks(context.Background(), Point{Lat: 35.0, Lng: 139.0}, 4); err == nil {
		t.Fatal("expected error when every search request fails")
	}
}

func TestNearbyLandmarksTolerateOneFailedCategory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "[school]" {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"name":"中央公園","type":"park","lat":"35.001","lon":"139.0"}]`))
	}))
	defer server.Close()

	svc := NewNominatimService(server.URL, logger.New("development"))
	landmarks, err := svc.NearbyLandmarks(context.Background(), Point{Lat: 35.0, Lng: 139.0}, 4)
	if err != nil {
		t.Fatalf("NearbyLandmarks: %v", err)
	}
	if len(landmarks) != 1 || landmarks[0].Name != "中央公園" {
		t.Fatalf("got %v, want the single park result", landmarks)
	}
}
