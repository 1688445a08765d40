// Package i18n localises user-facing strategy text. Message files are
// embedded TOML loaded into a go-i18n bundle.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"strings"

	"github.com/BurntSushi/toml"
	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

// LangParam is the query parameter used to select a language.
const LangParam = "lang"

//go:embed locales/*.toml
var localeFS embed.FS

var supported = []language.Tag{language.English, language.Korean}

var matcher = language.NewMatcher(supported)

// Supported returns the languages with message files.
func Supported() []language.Tag {
	return append([]language.Tag(nil), supported...)
}

// Default returns the fallback language.
func Default() language.Tag {
	return language.English
}

// Catalog resolves message IDs per language.
type Catalog struct {
	bundle *goi18n.Bundle
}

// NewCatalog loads the embedded message files.
func NewCatalog() (*Catalog, error) {
	return LoadFS(localeFS)
}

// LoadFS loads every locales/*.toml file in fsys.
func LoadFS(fsys fs.FS) (*Catalog, error) {
	bundle := goi18n.NewBundle(Default())
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)
	paths, err := fs.Glob(fsys, "locales/*.toml")
	if err != nil {
		return nil, fmt.Errorf("i18n: glob locales: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("i18n: no message files found")
	}
	for _, p := range paths {
		if _, err := bundle.LoadMessageFileFS(fsys, p); err != nil {
			return nil, fmt.Errorf("i18n: load %s: %w", p, err)
		}
	}
	return &Catalog{bundle: bundle}, nil
}

// StrategyText returns the label and description of a strategy in tag's
// language, falling back to English.
func (c *Catalog) StrategyText(tag language.Tag, kind string) (label, description string, err error) {
	loc := goi18n.NewLocalizer(c.bundle, tag.String(), Default().String())
	label, err = loc.Localize(&goi18n.LocalizeConfig{MessageID: "strategy_" + kind + "_label"})
	if err != nil {
		return "", "", fmt.Errorf("i18n: strategy %s label: %w", kind, err)
	}
	description, err = loc.Localize(&goi18n.LocalizeConfig{MessageID: "strategy_" + kind + "_description"})
	if err != nil {
		return "", "", fmt.Errorf("i18n: strategy %s description: %w", kind, err)
	}
	return label, description, nil
}

// ParseTag matches a raw language value against the supported set.
func ParseTag(raw string) (language.Tag, bool) {
	tag, err := language.Parse(strings.TrimSpace(raw))
	if err != nil {
		return Default(), false
	}
	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return Default(), false
	}
	return supported[idx], true
}

// ResolveTag picks the response language from the lang query parameter, then
// Accept-Language, then the default.
func ResolveTag(r *http.Request) language.Tag {
	if r == nil {
		return Default()
	}
	if v := strings.TrimSpace(r.URL.Query().Get(LangParam)); v != "" {
		if tag, ok := ParseTag(v); ok {
			return tag
		}
	}
	if accept := strings.TrimSpace(r.Header.Get("Accept-Language")); accept != "" {
		if tags, _, err := language.ParseAcceptLanguage(accept); err == nil && len(tags) > 0 {
			_, idx, conf := matcher.Match(tags...)
			if conf != language.No {
				return supported[idx]
			}
		}
	}
	return Default()
}
