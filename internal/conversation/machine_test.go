package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"wildguard_backend/internal/geo"
	"wildguard_backend/internal/geofence"
	"wildguard_backend/internal/line"
	"wildguard_backend/internal/relay"
	"wildguard_backend/internal/reports/transport"
	"wildguard_backend/internal/session"
	settingsrepo "wildguard_backend/internal/settings/repository"
	"wildguard_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeStore struct {
	sessions map[string]session.Session
	deletes  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{sessions: make(map[string]session.Session)}
}

func (f *fakeStore) Find(_ context.Context, userID string) (session.Session, error) {
	s, ok := f.sessions[userID]
	if !ok || s.Expired(time.Now()) {
		return session.Session{}, session.ErrNotFound
	}
	return s, nil
}

func (f *fakeStore) Save(_ context.Context, s *session.Session) error {
	f.sessions[s.UserID] = *s
	return nil
}

func (f *fakeStore) Delete(_ context.Context, userID string) error {
	delete(f.sessions, userID)
	f.deletes++
	return nil
}

type fakeAdmission struct {
	prefix string
}

func (f *fakeAdmission) Validate(_ context.Context, address string) (geofence.Decision, error) {
	return geofence.Check(address, f.prefix), nil
}

type fakeGeo struct {
	reverse      geo.ReverseResult
	reverseErr   error
	landmarks    []geo.Landmark
	landmarksErr error
}

func (f *fakeGeo) ReverseGeocode(context.Context, geo.Point) (geo.ReverseResult, error) {
	return f.reverse, f.reverseErr
}

func (f *fakeGeo) NearbyLandmarks(context.Context, geo.Point, int) ([]geo.Landmark, error) {
	return f.landmarks, f.landmarksErr
}

type fakeRelay struct {
	result relay.Result
	err    error
	calls  int
}

func (f *fakeRelay) Relay(context.Context, string) (relay.Result, error) {
	f.calls++
	return f.result, f.err
}

type fakeSubmitter struct {
	inputs []transport.CreateReportInput
	err    error
}

func (f *fakeSubmitter) CreateFromConversation(_ context.Context, input transport.CreateReportInput) (transport.CreateReportResult, error) {
	if f.err != nil {
		return transport.CreateReportResult{}, f.err
	}
	f.inputs = append(f.inputs, input)
	return transport.CreateReportResult{ReportID: uuid.New(), EventID: uuid.New(), EventCreated: true}, nil
}

type fakeSettings struct{}

func (fakeSettings) Current(context.Context) (settingsrepo.Snapshot, error) {
	return settingsrepo.Snapshot{
		GeofenceAddressPrefix:       "",
		EventClusteringTimeMinutes:  60,
		EventClusteringRadiusMeters: 500,
		LineSessionTimeoutHours:     24,
	}, nil
}

type harness struct {
	machine   *Machine
	store     *fakeStore
	geo       *fakeGeo
	relay     *fakeRelay
	submitter *fakeSubmitter
	admission *fakeAdmission
}

func newHarness() *harness {
	store := newFakeStore()
	admission := &fakeAdmission{}
	geoProvider := &fakeGeo{
		reverse: geo.ReverseResult{
			Address: "東京都新宿区西新宿2-8-1",
			Structured: geo.StructuredAddress{
				Prefecture: "東京都",
				City:       "新宿区",
				SubArea:    "西新宿",
				AreaKey:    "東京都新宿区西新宿",
			},
		},
	}
	imageRelay := &fakeRelay{result: relay.Result{URL: "https://img.example/abc.jpg"}}
	submitter := &fakeSubmitter{}

	machine := NewMachine(store, admission, geoProvider, imageRelay, submitter, fakeSettings{}, logger.New("development"))
	return &harness{
		machine:   machine,
		store:     store,
		geo:       geoProvider,
		relay:     imageRelay,
		submitter: submitter,
		admission: admission,
	}
}

func (h *harness) seed(t *testing.T, userID string, step Step, fields CollectedFields) {
	t.Helper()
	raw, err := MarshalFields(fields)
	if err != nil {
		t.Fatalf("marshal fields: %v", err)
	}
	now := time.Now()
	h.store.sessions[userID] = session.Session{
		ID:        uuid.New(),
		UserID:    userID,
		Step:      string(step),
		Fields:    raw,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}
}

func (h *harness) stepOf(t *testing.T, userID string) Step {
	t.Helper()
	s, ok := h.store.sessions[userID]
	if !ok {
		t.Fatal("no session stored")
	}
	return Step(s.Step)
}

func (h *harness) fieldsOf(t *testing.T, userID string) CollectedFields {
	t.Helper()
	s, ok := h.store.sessions[userID]
	if !ok {
		t.Fatal("no session stored")
	}
	fields, err := UnmarshalFields(s.Fields)
	if err != nil {
		t.Fatalf("unmarshal fields: %v", err)
	}
	return fields
}

func postbackEvent(userID string, action Action, value string) line.Event {
	return line.Event{
		Type:       line.EventTypePostback,
		ReplyToken: "rt",
		Source:     line.Source{Type: "user", UserID: userID},
		Postback:   &line.Postback{Data: EncodePostback(action, value)},
	}
}

func textEvent(userID, text string) line.Event {
	return line.Event{
		Type:       line.EventTypeMessage,
		ReplyToken: "rt",
		Source:     line.Source{Type: "user", UserID: userID},
		Message:    &line.Message{ID: "m1", Type: line.MessageTypeText, Text: text},
	}
}

func imageEvent(userID string) line.Event {
	return line.Event{
		Type:       line.EventTypeMessage,
		ReplyToken: "rt",
		Source:     line.Source{Type: "user", UserID: userID},
		Message:    &line.Message{ID: "img1", Type: line.MessageTypeImage},
	}
}

func locationEvent(userID string, lat, lng float64) line.Event {
	return line.Event{
		Type:       line.EventTypeMessage,
		ReplyToken: "rt",
		Source:     line.Source{Type: "user", UserID: userID},
		Message:    &line.Message{ID: "loc1", Type: line.MessageTypeLocation, Latitude: lat, Longitude: lng},
	}
}

func TestFirstContactStartsFreshSession(t *testing.T) {
	h := newHarness()

	replies, err := h.machine.HandleEvent(context.Background(), textEvent("U1", "こんにちは"))
	if err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if len(replies) == 0 {
		t.Fatal("expected a greeting reply")
	}
	if got := h.stepOf(t, "U1"); got != StepAnimalType {
		t.Fatalf("step = %s, want %s", got, StepAnimalType)
	}
}

func TestSelectAnimalAdvancesToPhoto(t *testing.T) {
	h := newHarness()
	h.seed(t, "U1", StepAnimalType, CollectedFields{})

	if _, err := h.machine.HandleEvent(context.Background(), postbackEvent("U1", ActionSelectAnimal, "bear")); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}

	if got := h.stepOf(t, "U1"); got != StepPhoto {
		t.Fatalf("step = %s, want %s", got, StepPhoto)
	}
	if got := h.fieldsOf(t, "U1").AnimalType; got != AnimalBear {
		t.Fatalf("animal = %s, want bear", got)
	}
}

func TestUnrecognizedAnimalHoldsStep(t *testing.T) {
	h := newHarness()
	h.seed(t, "U1", StepAnimalType, CollectedFields{})

	if _, err := h.machine.HandleEvent(context.Background(), postbackEvent("U1", ActionSelectAnimal, "dragon")); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if got := h.stepOf(t, "U1"); got != StepAnimalType {
		t.Fatalf("step = %s, want %s", got, StepAnimalType)
	}
}

func TestSkipPhotoAdvancesToSituationWithoutImage(t *testing.T) {
	h := newHarness()
	h.seed(t, "U1", StepPhoto, CollectedFields{AnimalType: AnimalBoar})

	if _, err := h.machine.HandleEvent(context.Background(), postbackEvent("U1", ActionSkipPhoto, "")); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}

	if got := h.stepOf(t, "U1"); got != StepSituation {
		t.Fatalf("step = %s, want %s", got, StepSituation)
	}
	if url := h.fieldsOf(t, "U1").PhotoURL; url != "" {
		t.Fatalf("photo url = %q, want empty", url)
	}
	if h.relay.calls != 0 {
		t.Fatal("relay called on skip")
	}
}

func TestImageUploadRelaysAndAsksForConfirmation(t *testing.T) {
	h := newHarness()
	h.seed(t, "U1", StepPhoto, CollectedFields{AnimalType: AnimalBoar})

	if _, err := h.machine.HandleEvent(context.Background(), imageEvent("U1")); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}

	if got := h.stepOf(t, "U1"); got != StepPhotoConfirm {
		t.Fatalf("step = %s, want %s", got, StepPhotoConfirm)
	}
	if url := h.fieldsOf(t, "U1").PhotoURL; url != "https://img.example/abc.jpg" {
		t.Fatalf("photo url = %q", url)
	}
}

func TestRelayFailureHoldsPhotoStep(t *testing.T) {
	h := newHarness()
	h.relay.err = errors.New("storage down")
	h.seed(t, "U1", StepPhoto, CollectedFields{AnimalType: AnimalBoar})

	replies, err := h.machine.HandleEvent(context.Background(), imageEvent("U1"))
	if err == nil {
		t.Fatal("expected relay failure to propagate")
	}
	if len(replies) == 0 {
		t.Fatal("expected a best-effort failure reply")
	}
	if got := h.stepOf(t, "U1"); got != StepPhoto {
		t.Fatalf("step = %s, want %s", got, StepPhoto)
	}
}

func TestGeofenceRejectionHoldsLocationStep(t *testing.T) {
	h := newHarness()
	h.admission.prefix = "埼玉県"
	h.seed(t, "U1", StepLocation, CollectedFields{AnimalType: AnimalDeer, Description: "畑が荒らされていた"})

	replies, err := h.machine.HandleEvent(context.Background(), locationEvent("U1", 35.689, 139.691))
	if err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if len(replies) == 0 {
		t.Fatal("expected a rejection reply")
	}
	if got := h.stepOf(t, "U1"); got != StepLocation {
		t.Fatalf("step = %s, want %s", got, StepLocation)
	}
	if h.fieldsOf(t, "U1").Location != nil {
		t.Fatal("rejected location stored")
	}
}

func TestReverseGeocodeFailureNeverAdvances(t *testing.T) {
	h := newHarness()
	h.geo.reverseErr = errors.New("nominatim unavailable")
	h.seed(t, "U1", StepLocation, CollectedFields{AnimalType: AnimalDeer})

	if _, err := h.machine.HandleEvent(context.Background(), locationEvent("U1", 35.689, 139.691)); err == nil {
		t.Fatal("expected enrichment failure to propagate")
	}
	if got := h.stepOf(t, "U1"); got != StepLocation {
		t.Fatalf("step = %s, want %s", got, StepLocation)
	}
}

func TestAdmittedLocationWithLandmarksAdvancesToLandmarkSelect(t *testing.T) {
	h := newHarness()
	h.geo.landmarks = []geo.Landmark{{Name: "新宿中央公園", Distance: 120}}
	h.seed(t, "U1", StepLocation, CollectedFields{AnimalType: AnimalMonkey})

	if _, err := h.machine.HandleEvent(context.Background(), locationEvent("U1", 35.689, 139.691)); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}

	if got := h.stepOf(t, "U1"); got != StepLandmarkSelect {
		t.Fatalf("step = %s, want %s", got, StepLandmarkSelect)
	}
	fields := h.fieldsOf(t, "U1")
	if fields.Address != "東京都新宿区西新宿2-8-1" {
		t.Fatalf("address = %q", fields.Address)
	}
	if len(fields.LandmarkOptions) != 1 {
		t.Fatalf("landmark options = %d, want 1", len(fields.LandmarkOptions))
	}
}

func TestAdmittedLocationWithoutLandmarksSkipsToConfirm(t *testing.T) {
	h := newHarness()
	h.geo.landmarksErr = errors.New("search failed")
	h.seed(t, "U1", StepLocation, CollectedFields{AnimalType: AnimalMonkey, Description: "住宅地で見かけた"})

	if _, err := h.machine.HandleEvent(context.Background(), locationEvent("U1", 35.689, 139.691)); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if got := h.stepOf(t, "U1"); got != StepConfirm {
		t.Fatalf("step = %s, want %s", got, StepConfirm)
	}
}

func TestCorrectionLoopRegeneratesSummary(t *testing.T) {
	h := newHarness()
	h.seed(t, "U1", StepConfirm, completedFields())

	if _, err := h.machine.HandleEvent(context.Background(), postbackEvent("U1", ActionRejectDesc, "")); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if got := h.stepOf(t, "U1"); got != StepCorrection {
		t.Fatalf("step = %s, want %s", got, StepCorrection)
	}

	replies, err := h.machine.HandleEvent(context.Background(), textEvent("U1", "柵が壊されていた"))
	if err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if got := h.stepOf(t, "U1"); got != StepConfirm {
		t.Fatalf("step = %s, want %s", got, StepConfirm)
	}
	if got := h.fieldsOf(t, "U1").Description; got != "柵が壊されていた" {
		t.Fatalf("description = %q", got)
	}
	if len(replies) < 2 {
		t.Fatalf("expected summary plus confirm prompt, got %d replies", len(replies))
	}
}

func TestSkipPhoneFinalizesExactlyOneReport(t *testing.T) {
	h := newHarness()
	h.seed(t, "U1", StepPhoneNumber, completedFields())

	replies, err := h.machine.HandleEvent(context.Background(), postbackEvent("U1", ActionSkipPhoneNumber, ""))
	if err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if len(replies) == 0 {
		t.Fatal("expected a completion reply")
	}

	if len(h.submitter.inputs) != 1 {
		t.Fatalf("reports submitted = %d, want 1", len(h.submitter.inputs))
	}
	input := h.submitter.inputs[0]
	if input.AnimalType != "boar" {
		t.Fatalf("animal = %q", input.AnimalType)
	}
	if input.PhoneNumber != nil {
		t.Fatal("skipped phone number still set")
	}

	if _, ok := h.store.sessions["U1"]; ok {
		t.Fatal("session survived completion")
	}
}

func TestValidPhoneNumberFinalizesWithE164(t *testing.T) {
	h := newHarness()
	h.seed(t, "U1", StepPhoneNumber, completedFields())

	if _, err := h.machine.HandleEvent(context.Background(), textEvent("U1", "090-1234-5678")); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}

	if len(h.submitter.inputs) != 1 {
		t.Fatalf("reports submitted = %d, want 1", len(h.submitter.inputs))
	}
	phone := h.submitter.inputs[0].PhoneNumber
	if phone == nil || *phone != "+819012345678" {
		t.Fatalf("phone = %v, want +819012345678", phone)
	}
}

func TestInvalidPhoneNumberHoldsStep(t *testing.T) {
	h := newHarness()
	h.seed(t, "U1", StepPhoneNumber, completedFields())

	if _, err := h.machine.HandleEvent(context.Background(), textEvent("U1", "not a number")); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if len(h.submitter.inputs) != 0 {
		t.Fatal("report submitted with invalid phone")
	}
	if got := h.stepOf(t, "U1"); got != StepPhoneNumber {
		t.Fatalf("step = %s, want %s", got, StepPhoneNumber)
	}
}

func TestSubmitFailureKeepsSessionForRetry(t *testing.T) {
	h := newHarness()
	h.submitter.err = errors.New("database down")
	h.seed(t, "U1", StepPhoneNumber, completedFields())

	if _, err := h.machine.HandleEvent(context.Background(), postbackEvent("U1", ActionSkipPhoneNumber, "")); err == nil {
		t.Fatal("expected submit failure to propagate")
	}
	if _, ok := h.store.sessions["U1"]; !ok {
		t.Fatal("session deleted despite failed submission")
	}
}

func TestStartOverResetsFromAnyStep(t *testing.T) {
	h := newHarness()
	h.seed(t, "U1", StepConfirm, completedFields())

	if _, err := h.machine.HandleEvent(context.Background(), postbackEvent("U1", ActionStartOver, "")); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}

	if got := h.stepOf(t, "U1"); got != StepAnimalType {
		t.Fatalf("step = %s, want %s", got, StepAnimalType)
	}
	fields := h.fieldsOf(t, "U1")
	if fields.AnimalType != "" || fields.Description != "" || fields.Location != nil {
		t.Fatalf("fields not cleared: %+v", fields)
	}
}

func TestExpiredSessionStartsFresh(t *testing.T) {
	h := newHarness()
	raw, _ := json.Marshal(CollectedFields{AnimalType: AnimalBear})
	h.store.sessions["U1"] = session.Session{
		ID:        uuid.New(),
		UserID:    "U1",
		Step:      string(StepConfirm),
		Fields:    raw,
		ExpiresAt: time.Now().Add(-time.Minute),
	}

	if _, err := h.machine.HandleEvent(context.Background(), textEvent("U1", "続き")); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}

	if got := h.stepOf(t, "U1"); got != StepAnimalType {
		t.Fatalf("step = %s, want %s", got, StepAnimalType)
	}
	if got := h.fieldsOf(t, "U1").AnimalType; got != "" {
		t.Fatalf("stale fields carried into fresh session: %q", got)
	}
}

func TestDatetimeAcceptsDateOnlyInput(t *testing.T) {
	h := newHarness()
	h.seed(t, "U1", StepDatetime, CollectedFields{AnimalType: AnimalDeer, Description: "x"})

	if _, err := h.machine.HandleEvent(context.Background(), textEvent("U1", "2026-08-29")); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}

	fields := h.fieldsOf(t, "U1")
	if fields.ObservedAt == nil || !fields.HasOnlyDate {
		t.Fatalf("date-only input not recorded: %+v", fields)
	}
	if got := h.stepOf(t, "U1"); got != StepLocation {
		t.Fatalf("step = %s, want %s", got, StepLocation)
	}
}

func TestDatetimeRejectsUnparseableInput(t *testing.T) {
	h := newHarness()
	h.seed(t, "U1", StepDatetime, CollectedFields{AnimalType: AnimalDeer})

	if _, err := h.machine.HandleEvent(context.Background(), textEvent("U1", "さっき")); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if got := h.stepOf(t, "U1"); got != StepDatetime {
		t.Fatalf("step = %s, want %s", got, StepDatetime)
	}
}

func completedFields() CollectedFields {
	observed := time.Date(2026, 8, 29, 5, 0, 0, 0, time.UTC)
	return CollectedFields{
		AnimalType:  AnimalBoar,
		Description: "畑が荒らされていた",
		ObservedAt:  &observed,
		Location:    &geo.Point{Lat: 35.689, Lng: 139.691},
		Address:     "東京都新宿区西新宿2-8-1",
		Structured: geo.StructuredAddress{
			Prefecture: "東京都",
			City:       "新宿区",
			SubArea:    "西新宿",
			AreaKey:    "東京都新宿区西新宿",
		},
	}
}
