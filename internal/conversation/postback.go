package conversation

import (
	"fmt"
	"net/url"

	"wildguard_backend/platform/apperr"
)

// Action is the closed set of postback actions the state machine accepts.
// Every decoded postback resolves to one of these; unknown actions are a
// validation failure, never a silent default.
type Action string

const (
	ActionSelectAnimal    Action = "select_animal"
	ActionSkipPhoto       Action = "skip_photo"
	ActionConfirmPhoto    Action = "confirm_photo"
	ActionRetakePhoto     Action = "retake_photo"
	ActionUsePhotoTime    Action = "use_photo_time"
	ActionSelectLandmark  Action = "select_landmark"
	ActionSkipLandmark    Action = "skip_landmark"
	ActionConfirmReport   Action = "confirm_report"
	ActionRejectDesc      Action = "reject_desc"
	ActionSkipPhoneNumber Action = "skip_phone_number"
	ActionStartOver       Action = "start_over"
)

var knownActions = map[Action]bool{
	ActionSelectAnimal:    true,
	ActionSkipPhoto:       true,
	ActionConfirmPhoto:    true,
	ActionRetakePhoto:     true,
	ActionUsePhotoTime:    true,
	ActionSelectLandmark:  true,
	ActionSkipLandmark:    true,
	ActionConfirmReport:   true,
	ActionRejectDesc:      true,
	ActionSkipPhoneNumber: true,
	ActionStartOver:       true,
}

// Postback is a decoded button press.
type Postback struct {
	Action Action
	Value  string
}

// EncodePostback produces the opaque data token for a button. The shape is
// a standard URL query string: action=X&value=Y.
func EncodePostback(action Action, value string) string {
	values := url.Values{}
	values.Set("action", string(action))
	if value != "" {
		values.Set("value", value)
	}
	return values.Encode()
}

// DecodePostback parses a postback data token. The action key is mandatory
// and must belong to the known action set.
func DecodePostback(data string) (Postback, error) {
	values, err := url.ParseQuery(data)
	if err != nil {
		return Postback{}, apperr.Wrap(apperr.KindValidation, "malformed postback data", err)
	}

	action := Action(values.Get("action"))
	if action == "" {
		return Postback{}, apperr.Validation("postback missing action")
	}
	if !knownActions[action] {
		return Postback{}, apperr.Validation(fmt.Sprintf("unknown postback action %q", action))
	}

	return Postback{
		Action: action,
		Value:  values.Get("value"),
	}, nil
}
