package conversation

import (
	"encoding/json"
	"time"

	"wildguard_backend/internal/geo"
)

// CollectedFields is the partial report built up over a conversation.
// It is serialized into the session row between webhook deliveries.
type CollectedFields struct {
	AnimalType      AnimalType            `json:"animalType,omitempty"`
	PhotoURL        string                `json:"photoUrl,omitempty"`
	PhotoCapturedAt *time.Time            `json:"photoCapturedAt,omitempty"`
	Description     string                `json:"description,omitempty"`
	SituationDetail string                `json:"situationDetail,omitempty"`
	ObservedAt      *time.Time            `json:"observedAt,omitempty"`
	HasOnlyDate     bool                  `json:"hasOnlyDate,omitempty"`
	Location        *geo.Point            `json:"location,omitempty"`
	Address         string                `json:"address,omitempty"`
	Structured      geo.StructuredAddress `json:"structured,omitempty"`
	LandmarkHint    string                `json:"landmarkHint,omitempty"`
	LandmarkOptions []geo.Landmark        `json:"landmarkOptions,omitempty"`
	PhoneNumber     *string               `json:"phoneNumber,omitempty"`
}

// MarshalFields serializes collected fields for the session row.
func MarshalFields(fields CollectedFields) (json.RawMessage, error) {
	return json.Marshal(fields)
}

// UnmarshalFields restores collected fields from a session row. An empty
// payload yields zero-valued fields.
func UnmarshalFields(raw json.RawMessage) (CollectedFields, error) {
	var fields CollectedFields
	if len(raw) == 0 {
		return fields, nil
	}
	err := json.Unmarshal(raw, &fields)
	return fields, err
}
