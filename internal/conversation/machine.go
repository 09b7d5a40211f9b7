// Package conversation drives the report-collection dialog. The machine
// owns the session rows exclusively: it loads state, applies exactly one
// transition per inbound event, and persists the result.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"wildguard_backend/internal/geo"
	"wildguard_backend/internal/geofence"
	"wildguard_backend/internal/line"
	"wildguard_backend/internal/relay"
	"wildguard_backend/internal/reports/transport"
	"wildguard_backend/internal/session"
	settingsrepo "wildguard_backend/internal/settings/repository"
	"wildguard_backend/platform/logger"
	"wildguard_backend/platform/phone"

	"github.com/google/uuid"
)

// SessionStore persists conversation state between webhook deliveries.
type SessionStore interface {
	Find(ctx context.Context, userID string) (session.Session, error)
	Save(ctx context.Context, s *session.Session) error
	Delete(ctx context.Context, userID string) error
}

// AdmissionValidator checks a reverse-geocoded address against the
// configured geofence.
type AdmissionValidator interface {
	Validate(ctx context.Context, address string) (geofence.Decision, error)
}

// ImageRelay re-hosts an inbound photo and returns its durable URL.
type ImageRelay interface {
	Relay(ctx context.Context, sourceMessageID string) (relay.Result, error)
}

// ReportSubmitter turns a finished conversation into a persisted report
// with its post-submission side effects.
type ReportSubmitter interface {
	CreateFromConversation(ctx context.Context, input transport.CreateReportInput) (transport.CreateReportResult, error)
}

// SettingsSource yields the live settings snapshot.
type SettingsSource interface {
	Current(ctx context.Context) (settingsrepo.Snapshot, error)
}

// Machine is the conversation state machine. One instance serves all
// users; per-user state lives entirely in the session store.
type Machine struct {
	sessions  SessionStore
	geofence  AdmissionValidator
	geo       geo.Provider
	relay     ImageRelay
	reports   ReportSubmitter
	settings  SettingsSource
	log       *logger.Logger
	landmarks int
}

// NewMachine wires the state machine with its collaborators.
func NewMachine(
	sessions SessionStore,
	admission AdmissionValidator,
	geoProvider geo.Provider,
	imageRelay ImageRelay,
	reports ReportSubmitter,
	settings SettingsSource,
	log *logger.Logger,
) *Machine {
	return &Machine{
		sessions:  sessions,
		geofence:  admission,
		geo:       geoProvider,
		relay:     imageRelay,
		reports:   reports,
		settings:  settings,
		log:       log,
		landmarks: 4,
	}
}

// outcome is the result of one transition: the step and fields to persist
// plus the replies to send. A nil persist skips the session write (the
// session was deleted or never existed).
type outcome struct {
	step     Step
	fields   CollectedFields
	replies  []line.ReplyMessage
	finished bool
}

// HandleEvent processes one inbound webhook event for one user and returns
// the replies to send. Recoverable conditions (validation, admission) never
// escape as errors; they become re-prompts. Infrastructure failures return
// a best-effort failure reply alongside the error.
func (m *Machine) HandleEvent(ctx context.Context, ev line.Event) ([]line.ReplyMessage, error) {
	userID := ev.Source.UserID
	if userID == "" {
		return nil, nil
	}
	log := m.log.WithLineUserID(userID)

	if ev.Type == line.EventTypeFollow {
		if err := m.sessions.Delete(ctx, userID); err != nil {
			return m.failure(log, StepAnimalType, "follow", err)
		}
		return m.freshStart(ctx, log, userID, textGreeting)
	}

	sess, fields, found, err := m.loadSession(ctx, userID)
	if err != nil {
		return m.failure(log, StepAnimalType, "load", err)
	}

	// start over resets from any step, session or not
	if pb, ok := decodedPostback(ev); ok && pb.Action == ActionStartOver {
		if err := m.sessions.Delete(ctx, userID); err != nil {
			return m.failure(log, Step(sess.Step), "start_over", err)
		}
		return m.freshStart(ctx, log, userID, textStartOver)
	}

	if !found {
		return m.freshStart(ctx, log, userID, textGreeting)
	}

	step := Step(sess.Step)
	log.WebhookEvent(ev.Type, postbackAction(ev), string(step))

	out, err := m.transition(ctx, step, ev, fields)
	if err != nil {
		return m.failure(log, step, postbackAction(ev), err)
	}

	if out.finished {
		replies, err := m.finalize(ctx, log, userID, out.fields)
		if err != nil {
			return m.failure(log, step, postbackAction(ev), err)
		}
		return replies, nil
	}

	if err := m.persist(ctx, &sess, out); err != nil {
		return m.failure(log, step, postbackAction(ev), err)
	}
	return out.replies, nil
}

// transition applies the single valid transition for the current step.
// Input of the wrong kind re-prompts without a state change.
func (m *Machine) transition(ctx context.Context, step Step, ev line.Event, fields CollectedFields) (outcome, error) {
	switch step {
	case StepAnimalType:
		return m.stepAnimalType(ev, fields)
	case StepPhoto:
		return m.stepPhoto(ctx, ev, fields)
	case StepPhotoConfirm:
		return m.stepPhotoConfirm(ev, fields)
	case StepSituation:
		return m.stepSituation(ev, fields)
	case StepSituationDetail:
		return m.stepSituationDetail(ev, fields)
	case StepDatetime:
		return m.stepDatetime(ev, fields)
	case StepLocation:
		return m.stepLocation(ctx, ev, fields)
	case StepLandmarkSelect:
		return m.stepLandmarkSelect(ev, fields)
	case StepConfirm:
		return m.stepConfirm(ev, fields)
	case StepCorrection:
		return m.stepCorrection(ev, fields)
	case StepPhoneNumber:
		return m.stepPhoneNumber(ev, fields)
	default:
		// completed or unknown rows never resume; treat as fresh start
		return outcome{
			step:    StepAnimalType,
			replies: []line.ReplyMessage{line.NewText(textGreeting), promptAnimalType()},
		}, nil
	}
}

func (m *Machine) stepAnimalType(ev line.Event, fields CollectedFields) (outcome, error) {
	pb, ok := decodedPostback(ev)
	if !ok || pb.Action != ActionSelectAnimal {
		return to(StepAnimalType, fields, promptAnimalType()), nil
	}
	animal, ok := ParseAnimalType(pb.Value)
	if !ok {
		return to(StepAnimalType, fields, promptAnimalType()), nil
	}

	fields.AnimalType = animal
	return to(StepPhoto, fields, promptPhoto()), nil
}

func (m *Machine) stepPhoto(ctx context.Context, ev line.Event, fields CollectedFields) (outcome, error) {
	if pb, ok := decodedPostback(ev); ok && pb.Action == ActionSkipPhoto {
		return to(StepSituation, fields, promptSituation()), nil
	}

	if ev.Message == nil || ev.Message.Type != line.MessageTypeImage {
		return to(StepPhoto, fields, promptPhoto()), nil
	}

	result, err := m.relay.Relay(ctx, ev.Message.ID)
	if err != nil {
		return outcome{}, fmt.Errorf("relay photo: %w", err)
	}

	fields.PhotoURL = result.URL
	fields.PhotoCapturedAt = result.CapturedAt
	return to(StepPhotoConfirm, fields, promptPhotoConfirm()), nil
}

func (m *Machine) stepPhotoConfirm(ev line.Event, fields CollectedFields) (outcome, error) {
	pb, ok := decodedPostback(ev)
	if !ok {
		return to(StepPhotoConfirm, fields, promptPhotoConfirm()), nil
	}

	switch pb.Action {
	case ActionConfirmPhoto:
		return to(StepSituation, fields, promptSituation()), nil
	case ActionRetakePhoto:
		fields.PhotoURL = ""
		fields.PhotoCapturedAt = nil
		return to(StepPhoto, fields, promptPhoto()), nil
	default:
		return to(StepPhotoConfirm, fields, promptPhotoConfirm()), nil
	}
}

func (m *Machine) stepSituation(ev line.Event, fields CollectedFields) (outcome, error) {
	text, ok := textInput(ev)
	if !ok {
		return to(StepSituation, fields, promptSituation()), nil
	}
	fields.Description = text
	return to(StepSituationDetail, fields, promptDetail()), nil
}

func (m *Machine) stepSituationDetail(ev line.Event, fields CollectedFields) (outcome, error) {
	text, ok := textInput(ev)
	if !ok {
		return to(StepSituationDetail, fields, promptDetail()), nil
	}
	fields.SituationDetail = text
	return to(StepDatetime, fields, promptDatetime(fields)), nil
}

func (m *Machine) stepDatetime(ev line.Event, fields CollectedFields) (outcome, error) {
	if pb, ok := decodedPostback(ev); ok && pb.Action == ActionUsePhotoTime && fields.PhotoCapturedAt != nil {
		observed := *fields.PhotoCapturedAt
		fields.ObservedAt = &observed
		fields.HasOnlyDate = false
		return to(StepLocation, fields, promptLocation()), nil
	}

	text, ok := textInput(ev)
	if !ok {
		return to(StepDatetime, fields, promptDatetime(fields)), nil
	}

	observed, dateOnly, ok := parseObservedAt(text, time.Now())
	if !ok {
		return to(StepDatetime, fields, line.NewText(textInvalidDatetime)), nil
	}

	fields.ObservedAt = &observed
	fields.HasOnlyDate = dateOnly
	return to(StepLocation, fields, promptLocation()), nil
}

func (m *Machine) stepLocation(ctx context.Context, ev line.Event, fields CollectedFields) (outcome, error) {
	if ev.Message == nil || ev.Message.Type != line.MessageTypeLocation {
		return to(StepLocation, fields, promptLocation()), nil
	}

	point := geo.Point{Lat: ev.Message.Latitude, Lng: ev.Message.Longitude}
	if point.Lat < -90 || point.Lat > 90 || point.Lng < -180 || point.Lng > 180 {
		return to(StepLocation, fields, promptLocation()), nil
	}

	reversed, err := m.geo.ReverseGeocode(ctx, point)
	if err != nil {
		return outcome{}, fmt.Errorf("reverse geocode: %w", err)
	}

	decision, err := m.geofence.Validate(ctx, reversed.Address)
	if err != nil {
		return outcome{}, fmt.Errorf("geofence check: %w", err)
	}
	if !decision.Allowed {
		return to(StepLocation, fields,
			line.NewText(textGeofenceRejected), promptLocation()), nil
	}

	fields.Location = &point
	fields.Address = reversed.Address
	fields.Structured = reversed.Structured

	// landmark search is a hint, not a gate
	landmarks, err := m.geo.NearbyLandmarks(ctx, point, m.landmarks)
	if err != nil {
		m.log.UpstreamError("nominatim", "landmark search", err)
		landmarks = nil
	}
	fields.LandmarkOptions = landmarks
	if len(landmarks) == 0 {
		return to(StepConfirm, fields, promptConfirm(fields)...), nil
	}
	return to(StepLandmarkSelect, fields, promptLandmarks(landmarkButtons(fields))), nil
}

func (m *Machine) stepLandmarkSelect(ev line.Event, fields CollectedFields) (outcome, error) {
	pb, ok := decodedPostback(ev)
	if !ok {
		return to(StepLandmarkSelect, fields, promptLandmarks(landmarkButtons(fields))), nil
	}

	switch pb.Action {
	case ActionSelectLandmark:
		fields.LandmarkHint = pb.Value
		return to(StepConfirm, fields, promptConfirm(fields)...), nil
	case ActionSkipLandmark:
		fields.LandmarkHint = ""
		return to(StepConfirm, fields, promptConfirm(fields)...), nil
	default:
		return to(StepLandmarkSelect, fields, promptLandmarks(landmarkButtons(fields))), nil
	}
}

func (m *Machine) stepConfirm(ev line.Event, fields CollectedFields) (outcome, error) {
	pb, ok := decodedPostback(ev)
	if !ok {
		return to(StepConfirm, fields, promptConfirm(fields)...), nil
	}

	switch pb.Action {
	case ActionConfirmReport:
		return to(StepPhoneNumber, fields, promptPhone()), nil
	case ActionRejectDesc:
		return to(StepCorrection, fields, line.NewText(textAskCorrection)), nil
	default:
		return to(StepConfirm, fields, promptConfirm(fields)...), nil
	}
}

func (m *Machine) stepCorrection(ev line.Event, fields CollectedFields) (outcome, error) {
	text, ok := textInput(ev)
	if !ok {
		return to(StepCorrection, fields, line.NewText(textAskCorrection)), nil
	}
	fields.Description = text
	return to(StepConfirm, fields, promptConfirm(fields)...), nil
}

func (m *Machine) stepPhoneNumber(ev line.Event, fields CollectedFields) (outcome, error) {
	if pb, ok := decodedPostback(ev); ok && pb.Action == ActionSkipPhoneNumber {
		fields.PhoneNumber = nil
		return outcome{step: StepCompleted, fields: fields, finished: true}, nil
	}

	text, ok := textInput(ev)
	if !ok {
		return to(StepPhoneNumber, fields, promptPhone()), nil
	}

	normalized, valid := phone.NormalizeE164(text)
	if !valid {
		return to(StepPhoneNumber, fields, line.NewText(textInvalidPhone)), nil
	}

	fields.PhoneNumber = &normalized
	return outcome{step: StepCompleted, fields: fields, finished: true}, nil
}

// finalize converts the collected fields into a report submission and
// deletes the session so the next inbound message starts fresh. If the
// submission fails the session is untouched and the user can retry.
func (m *Machine) finalize(ctx context.Context, log *logger.Logger, userID string, fields CollectedFields) ([]line.ReplyMessage, error) {
	if fields.Location == nil {
		return nil, errors.New("finalize without location")
	}

	observed := time.Now()
	if fields.ObservedAt != nil {
		observed = *fields.ObservedAt
	}

	input := transport.CreateReportInput{
		AnimalType:   string(fields.AnimalType),
		Location:     *fields.Location,
		Address:      fields.Address,
		Structured:   fields.Structured,
		Description:  combinedDescription(fields),
		LandmarkHint: fields.LandmarkHint,
		PhoneNumber:  fields.PhoneNumber,
		ObservedAt:   &observed,
		HasOnlyDate:  fields.HasOnlyDate,
	}
	if fields.PhotoURL != "" {
		input.Images = []string{fields.PhotoURL}
	}

	result, err := m.reports.CreateFromConversation(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("submit report: %w", err)
	}
	log.Info("report submitted",
		"report_id", result.ReportID,
		"event_id", result.EventID,
		"event_created", result.EventCreated,
	)

	if err := m.sessions.Delete(ctx, userID); err != nil {
		// the report exists; a stale completed session only costs the
		// user one extra greeting
		log.DatabaseError("delete session", err)
	}

	return []line.ReplyMessage{line.NewText(textCompleted)}, nil
}

// freshStart creates a new session at the first step.
func (m *Machine) freshStart(ctx context.Context, log *logger.Logger, userID, lead string) ([]line.ReplyMessage, error) {
	fieldsRaw, err := MarshalFields(CollectedFields{})
	if err != nil {
		return m.failure(log, StepAnimalType, "fresh", err)
	}

	ttl, err := m.sessionTTL(ctx)
	if err != nil {
		return m.failure(log, StepAnimalType, "fresh", err)
	}

	now := time.Now()
	sess := session.Session{
		ID:        uuid.New(),
		UserID:    userID,
		Step:      string(StepAnimalType),
		Fields:    fieldsRaw,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if err := m.sessions.Save(ctx, &sess); err != nil {
		return m.failure(log, StepAnimalType, "fresh", err)
	}

	return []line.ReplyMessage{line.NewText(lead), promptAnimalType()}, nil
}

func (m *Machine) loadSession(ctx context.Context, userID string) (session.Session, CollectedFields, bool, error) {
	sess, err := m.sessions.Find(ctx, userID)
	if errors.Is(err, session.ErrNotFound) {
		return session.Session{}, CollectedFields{}, false, nil
	}
	if err != nil {
		return session.Session{}, CollectedFields{}, false, err
	}
	if sess.Expired(time.Now()) {
		return session.Session{}, CollectedFields{}, false, nil
	}

	fields, err := UnmarshalFields(sess.Fields)
	if err != nil {
		// a corrupt row is unrecoverable state; treat as absent
		return session.Session{}, CollectedFields{}, false, nil
	}
	return sess, fields, true, nil
}

// persist writes the transition result back, sliding the expiry forward.
func (m *Machine) persist(ctx context.Context, sess *session.Session, out outcome) error {
	raw, err := MarshalFields(out.fields)
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}

	ttl, err := m.sessionTTL(ctx)
	if err != nil {
		return err
	}

	now := time.Now()
	sess.Step = string(out.step)
	sess.Fields = raw
	sess.UpdatedAt = now
	sess.ExpiresAt = now.Add(ttl)
	return m.sessions.Save(ctx, sess)
}

func (m *Machine) sessionTTL(ctx context.Context) (time.Duration, error) {
	snap, err := m.settings.Current(ctx)
	if err != nil {
		return 0, fmt.Errorf("load settings: %w", err)
	}
	return time.Duration(snap.LineSessionTimeoutHours) * time.Hour, nil
}

// failure logs the error and returns the generic retry prompt as a
// best-effort final reply alongside the error.
func (m *Machine) failure(log *logger.Logger, step Step, action string, err error) ([]line.ReplyMessage, error) {
	log.Error("conversation step failed", "step", string(step), "action", action, "error", err)
	return []line.ReplyMessage{line.NewText(textTransientFailure)}, err
}

// to builds the outcome of a transition: the step to persist and the
// replies to send. Re-prompts pass the current step unchanged.
func to(step Step, fields CollectedFields, replies ...line.ReplyMessage) outcome {
	return outcome{step: step, fields: fields, replies: replies}
}

func decodedPostback(ev line.Event) (Postback, bool) {
	if ev.Type != line.EventTypePostback || ev.Postback == nil {
		return Postback{}, false
	}
	pb, err := DecodePostback(ev.Postback.Data)
	if err != nil {
		return Postback{}, false
	}
	return pb, true
}

func postbackAction(ev line.Event) string {
	if pb, ok := decodedPostback(ev); ok {
		return string(pb.Action)
	}
	return ""
}

func textInput(ev line.Event) (string, bool) {
	if ev.Type != line.EventTypeMessage || ev.Message == nil || ev.Message.Type != line.MessageTypeText {
		return "", false
	}
	text := strings.TrimSpace(ev.Message.Text)
	if text == "" {
		return "", false
	}
	return text, true
}

// parseObservedAt accepts a handful of common Japanese date inputs. Date
// only input pins the time to noon JST and flags hasOnlyDate.
func parseObservedAt(text string, now time.Time) (time.Time, bool, bool) {
	text = strings.TrimSpace(strings.ReplaceAll(text, "　", " "))

	datetimeLayouts := []string{
		"2006-01-02 15:04",
		"2006/01/02 15:04",
		"2006年1月2日 15:04",
		"2006年1月2日15時4分",
	}
	for _, layout := range datetimeLayouts {
		if t, err := time.ParseInLocation(layout, text, jst); err == nil && !t.After(now.Add(time.Minute)) {
			return t.UTC(), false, true
		}
	}

	dateLayouts := []string{
		"2006-01-02",
		"2006/01/02",
		"2006年1月2日",
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, text, jst); err == nil {
			t = t.Add(12 * time.Hour)
			if !t.After(now.Add(24 * time.Hour)) {
				return t.UTC(), true, true
			}
		}
	}

	return time.Time{}, false, false
}

func combinedDescription(fields CollectedFields) string {
	if fields.SituationDetail == "" {
		return fields.Description
	}
	return fields.Description + "\n" + fields.SituationDetail
}
