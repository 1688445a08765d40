package i18n

import (
	"net/http/httptest"
	"testing"

	"golang.org/x/text/language"
)

func TestStrategyText(t *testing.T) {
	c, err := NewCatalog()
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	for _, kind := range []string{"hot", "balanced", "cold", "mixed", "uniform"} {
		for _, tag := range Supported() {
			label, desc, err := c.StrategyText(tag, kind)
			if err != nil {
				t.Fatalf("%s/%s: %v", tag, kind, err)
			}
			if label == "" || desc == "" {
				t.Fatalf("%s/%s: empty text", tag, kind)
			}
		}
	}
	en, _, _ := c.StrategyText(language.English, "hot")
	ko, _, _ := c.StrategyText(language.Korean, "hot")
	if en != "Hot numbers" || ko != "핫 번호" {
		t.Fatalf("labels en=%q ko=%q", en, ko)
	}
	if _, _, err := c.StrategyText(language.English, "lucky"); err == nil {
		t.Fatal("expected error for unknown strategy")
	}
}

func TestResolveTag(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		accept string
		want   language.Tag
	}{
		{"default", "", "", language.English},
		{"query", "lang=ko", "", language.Korean},
		{"query wins", "lang=en", "ko-KR", language.English},
		{"accept", "", "ko-KR,ko;q=0.9", language.Korean},
		{"unsupported accept", "", "fr-FR", language.English},
		{"bad query", "lang=%%%", "", language.English},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/api/strategies", nil)
			r.URL.RawQuery = tt.query
			if tt.accept != "" {
				r.Header.Set("Accept-Language", tt.accept)
			}
			if got := ResolveTag(r); got.String() != tt.want.String() {
				t.Fatalf("ResolveTag = %v, want %v", got, tt.want)
			}
		})
	}
}
