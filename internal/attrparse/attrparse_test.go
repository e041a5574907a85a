package attrparse

import "testing"

func TestParseEmptyOnInvalidBase64(t *testing.T) {
	got := Parse("not-valid-base64!!!")
	if len(got) != 0 {
		t.Errorf("expected empty map, got %v", got)
	}
}

func TestParseEmptyOnEmptyInput(t *testing.T) {
	got := Parse("")
	if len(got) != 0 {
		t.Errorf("expected empty map, got %v", got)
	}
}
