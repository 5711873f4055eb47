package hints

import (
	"strings"
	"testing"

	"globe-quiz/internal/countries"
)

func TestHintKnownCountry(t *testing.T) {
	h := Provider{}.Hint(&countries.Feature{Code: "DE", Admin: "Germany"})
	if !strings.Contains(h, "Europe") {
		t.Fatalf("hint %q should mention the region", h)
	}
	if !strings.Contains(h, `capital starts with "B"`) {
		t.Fatalf("hint %q should mention the capital initial", h)
	}
	if !strings.Contains(h, `starts with "G" and has 7 letters`) {
		t.Fatalf("hint %q should describe the name", h)
	}
}

func TestHintPrefersEnglishName(t *testing.T) {
	h := Provider{}.Hint(&countries.Feature{Code: "ZZ", Admin: "Xx", NameEN: "Atlantis Isle"})
	if !strings.HasPrefix(h, "The name starts with \"A\" and has 12 letters") {
		t.Fatalf("hint = %q", h)
	}
}

func TestHintNothingKnown(t *testing.T) {
	if h := (Provider{}).Hint(&countries.Feature{Code: "ZZ"}); h != "No hint available for this one" {
		t.Fatalf("hint = %q", h)
	}
}
