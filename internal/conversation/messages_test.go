package conversation

import (
	"strings"
	"testing"
	"time"
)

func TestParseObservedAtDatetimeFormats(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, jst)
	cases := []string{
		"2026-08-29 14:00",
		"2026/08/29 14:00",
		"2026年8月29日 14:00",
	}

	want := time.Date(2026, 8, 29, 14, 0, 0, 0, jst).UTC()
	for _, input := range cases {
		got, dateOnly, ok := parseObservedAt(input, now)
		if !ok {
			t.Errorf("parseObservedAt(%q) not accepted", input)
			continue
		}
		if dateOnly {
			t.Errorf("parseObservedAt(%q) flagged date-only", input)
		}
		if !got.Equal(want) {
			t.Errorf("parseObservedAt(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestParseObservedAtDateOnlyPinsNoon(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, jst)

	got, dateOnly, ok := parseObservedAt("2026-08-29", now)
	if !ok || !dateOnly {
		t.Fatalf("date-only input: ok=%v dateOnly=%v", ok, dateOnly)
	}
	want := time.Date(2026, 8, 29, 12, 0, 0, 0, jst).UTC()
	if !got.Equal(want) {
		t.Fatalf("observed = %v, want %v", got, want)
	}
}

func TestParseObservedAtRejectsFutureAndGarbage(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, jst)
	for _, input := range []string{"さっき", "昨日", "2030-01-01 10:00", ""} {
		if _, _, ok := parseObservedAt(input, now); ok {
			t.Errorf("parseObservedAt(%q) accepted", input)
		}
	}
}

func TestBuildSummaryIncludesCollectedFields(t *testing.T) {
	observed := time.Date(2026, 8, 29, 5, 0, 0, 0, time.UTC) // 14:00 JST
	fields := CollectedFields{
		AnimalType:   AnimalBoar,
		PhotoURL:     "https://img.example/a.jpg",
		Description:  "畑が荒らされていた",
		ObservedAt:   &observed,
		Address:      "東京都新宿区西新宿2-8-1",
		LandmarkHint: "新宿中央公園",
	}

	summary := buildSummary(fields)
	for _, fragment := range []string{"イノシシ", "写真: あり", "畑が荒らされていた", "2026-08-29 14:00", "東京都新宿区西新宿2-8-1", "新宿中央公園"} {
		if !strings.Contains(summary, fragment) {
			t.Errorf("summary missing %q:\n%s", fragment, summary)
		}
	}
}

func TestBuildSummaryDateOnlyOmitsTime(t *testing.T) {
	observed := time.Date(2026, 8, 29, 3, 0, 0, 0, time.UTC) // noon JST
	fields := CollectedFields{
		AnimalType:  AnimalDeer,
		Description: "x",
		ObservedAt:  &observed,
		HasOnlyDate: true,
		Address:     "東京都新宿区",
	}

	summary := buildSummary(fields)
	if !strings.Contains(summary, "2026-08-29") {
		t.Fatalf("summary missing date:\n%s", summary)
	}
	if strings.Contains(summary, "12:00") {
		t.Fatalf("date-only summary shows a time:\n%s", summary)
	}
}

func TestAnimalPromptListsAllTypesInOrder(t *testing.T) {
	msg := promptAnimalType()
	if msg.QuickReply == nil {
		t.Fatal("no quick reply buttons")
	}
	if len(msg.QuickReply.Items) != len(animalOrder) {
		t.Fatalf("buttons = %d, want %d", len(msg.QuickReply.Items), len(animalOrder))
	}
	for i, animal := range animalOrder {
		item := msg.QuickReply.Items[i]
		if item.Action.Label != animal.Label() {
			t.Errorf("button %d label = %q, want %q", i, item.Action.Label, animal.Label())
		}
		pb, err := DecodePostback(item.Action.Data)
		if err != nil {
			t.Fatalf("button %d data undecodable: %v", i, err)
		}
		if pb.Action != ActionSelectAnimal || pb.Value != string(animal) {
			t.Errorf("button %d postback = %+v", i, pb)
		}
	}
}
