package validator

import "testing"

func TestNotBlankRejectsWhitespaceOnly(t *testing.T) {
	val := New()

	type payload struct {
		Name string `validate:"required,notblank"`
	}

	if err := val.Struct(payload{Name: "山田"}); err != nil {
		t.Fatalf("valid name rejected: %v", err)
	}
	if err := val.Struct(payload{Name: "   "}); err == nil {
		t.Fatal("whitespace-only name accepted")
	}
	if err := val.Struct(payload{Name: "\t\n"}); err == nil {
		t.Fatal("tab and newline name accepted")
	}
	if err := val.Struct(payload{Name: ""}); err == nil {
		t.Fatal("empty name accepted")
	}
}

func TestNotBlankWithOmitemptySkipsEmpty(t *testing.T) {
	val := New()

	type payload struct {
		Label string `validate:"omitempty,notblank"`
	}

	if err := val.Struct(payload{}); err != nil {
		t.Fatalf("empty optional field rejected: %v", err)
	}
	if err := val.Struct(payload{Label: " "}); err == nil {
		t.Fatal("whitespace-only optional field accepted")
	}
}
