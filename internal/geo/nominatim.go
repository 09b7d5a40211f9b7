package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"wildguard_backend/platform/logger"
)

const (
	userAgent = "WildguardIntake/1.0"
	// landmarkBoxDegrees bounds the landmark search to roughly 1km around
	// the reported point.
	landmarkBoxDegrees = 0.01
)

// NominatimService implements Provider against the OSM Nominatim API.
type NominatimService struct {
	baseURL string
	client  *http.Client
	log     *logger.Logger
}

// NewNominatimService creates a Nominatim-backed geo provider.
func NewNominatimService(baseURL string, log *logger.Logger) *NominatimService {
	return &NominatimService{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 5 * time.Second},
		log:     log,
	}
}

type nominatimAddress struct {
	Province      string `json:"province"`
	State         string `json:"state"`
	City          string `json:"city"`
	Town          string `json:"town"`
	Village       string `json:"village"`
	Municipality  string `json:"municipality"`
	Suburb        string `json:"suburb"`
	Neighbourhood string `json:"neighbourhood"`
	Hamlet        string `json:"hamlet"`
	Quarter       string `json:"quarter"`
}

type nominatimReverseResponse struct {
	DisplayName string           `json:"display_name"`
	Address     nominatimAddress `json:"address"`
}

type nominatimSearchResult struct {
	DisplayName string `json:"display_name"`
	Name        string `json:"name"`
	Class       string `json:"class"`
	Type        string `json:"type"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
}

// ReverseGeocode resolves a point to a human-readable address plus the
// structured prefecture/city decomposition.
func (s *NominatimService) ReverseGeocode(ctx context.Context, p Point) (ReverseResult, error) {
	params := url.Values{}
	params.Add("lat", strconv.FormatFloat(p.Lat, 'f', -1, 64))
	params.Add("lon", strconv.FormatFloat(p.Lng, 'f', -1, 64))
	params.Add("format", "json")
	params.Add("addressdetails", "1")
	params.Add("accept-language", "ja")

	var raw nominatimReverseResponse
	if err := s.get(ctx, "/reverse", params, &raw); err != nil {
		return ReverseResult{}, err
	}

	structured := buildStructuredAddress(raw.Address)
	address := joinAddress(structured)
	if address == "" {
		address = raw.DisplayName
	}
	if address == "" {
		return ReverseResult{}, fmt.Errorf("reverse geocode returned no address for %.5f,%.5f", p.Lat, p.Lng)
	}

	return ReverseResult{Address: address, Structured: structured}, nil
}

// landmarkPhrases are the Nominatim special phrases queried around the
// reported point. A bounded viewbox search requires a non-empty query;
// the bracket form selects POI categories instead of matching free text.
var landmarkPhrases = []string{"[school]", "[park]", "[shrine]", "[station]"}

// NearbyLandmarks searches for named places in a small box around the point
// and returns them ordered by distance. Each landmark category is queried
// separately and the results are merged.
func (s *NominatimService) NearbyLandmarks(ctx context.Context, p Point, limit int) ([]Landmark, error) {
	if limit <= 0 {
		limit = 5
	}

	viewbox := fmt.Sprintf("%f,%f,%f,%f",
		p.Lng-landmarkBoxDegrees, p.Lat+landmarkBoxDegrees,
		p.Lng+landmarkBoxDegrees, p.Lat-landmarkBoxDegrees)

	seen := make(map[string]bool)
	var landmarks []Landmark
	var firstErr error
	for _, phrase := range landmarkPhrases {
		params := url.Values{}
		params.Add("q", phrase)
		params.Add("format", "json")
		params.Add("bounded", "1")
		params.Add("limit", strconv.Itoa(limit))
		params.Add("accept-language", "ja")
		params.Add("viewbox", viewbox)

		var raw []nominatimSearchResult
		if err := s.get(ctx, "/search", params, &raw); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		for _, result := range raw {
			name := result.Name
			if name == "" {
				name = firstSegment(result.DisplayName)
			}
			if name == "" || seen[name] {
				continue
			}

			lat, errLat := strconv.ParseFloat(result.Lat, 64)
			lng, errLon := strconv.ParseFloat(result.Lon, 64)
			if errLat != nil || errLon != nil {
				continue
			}

			seen[name] = true
			point := Point{Lat: lat, Lng: lng}
			landmarks = append(landmarks, Landmark{
				Name:     name,
				Category: result.Type,
				Point:    point,
				Distance: DistanceMeters(p, point),
			})
		}
	}

	if len(landmarks) == 0 && firstErr != nil {
		return nil, firstErr
	}

	sort.Slice(landmarks, func(i, j int) bool {
		return landmarks[i].Distance < landmarks[j].Distance
	})
	if len(landmarks) > limit {
		landmarks = landmarks[:limit]
	}

	return landmarks, nil
}

func (s *NominatimService) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	reqURL := fmt.Sprintf("%s%s?%s", s.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		s.log.UpstreamError("nominatim", path, err)
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		s.log.UpstreamError("nominatim", path, fmt.Errorf("status %d", resp.StatusCode))
		return fmt.Errorf("upstream api error: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		s.log.UpstreamError("nominatim", path, err)
		return err
	}

	return nil
}

func buildStructuredAddress(addr nominatimAddress) StructuredAddress {
	prefecture := addr.Province
	if prefecture == "" {
		prefecture = addr.State
	}

	city := pickCity(addr)
	subArea := pickSubArea(addr)

	structured := StructuredAddress{
		Prefecture: prefecture,
		City:       city,
		SubArea:    subArea,
	}
	structured.AreaKey = joinAddress(structured)
	return structured
}

func pickCity(addr nominatimAddress) string {
	if addr.City != "" {
		return addr.City
	}
	if addr.Town != "" {
		return addr.Town
	}
	if addr.Village != "" {
		return addr.Village
	}
	return addr.Municipality
}

func pickSubArea(addr nominatimAddress) string {
	if addr.Suburb != "" {
		return addr.Suburb
	}
	if addr.Neighbourhood != "" {
		return addr.Neighbourhood
	}
	if addr.Quarter != "" {
		return addr.Quarter
	}
	return addr.Hamlet
}

// joinAddress concatenates the structured parts in Japanese address order
// with no separators.
func joinAddress(structured StructuredAddress) string {
	return structured.Prefecture + structured.City + structured.SubArea
}

func firstSegment(displayName string) string {
	if idx := strings.Index(displayName, ","); idx > 0 {
		return strings.TrimSpace(displayName[:idx])
	}
	return strings.TrimSpace(displayName)
}
