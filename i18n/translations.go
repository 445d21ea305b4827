// Package i18n renders the user-facing strings of scans and previews.
// file: i18n/translations.go
package i18n

import (
	"embed"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"

	"go-event-checkin/logger"
)

//go:embed active.*.toml
var localeFS embed.FS

// Message keys.
const (
	EntryValidated         = "EntryValidated"
	ExitValidated          = "ExitValidated"
	ReentryNotAllowed      = "ReentryNotAllowed"
	ReadyForEntry          = "ReadyForEntry"
	ReadyForExit           = "ReadyForExit"
	AlreadyVisited         = "AlreadyVisited"
	BulkExitCompleted      = "BulkExitCompleted"
	ScanAnnouncement       = "ScanAnnouncement"
	CheckpointAnnouncement = "CheckpointAnnouncement"
)

// Translator is a thin wrapper around go-i18n's Bundle/Localizer.
type Translator struct {
	bundle          *i18n.Bundle
	defaultLanguage language.Tag
}

// NewTranslator builds a Translator using the given default locale (e.g. "en").
// English is always loaded, so an unknown locale still yields English text.
func NewTranslator(defaultLocale string) *Translator {
	tag, err := language.Parse(defaultLocale)
	if err != nil {
		tag = language.English
	}
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	for _, file := range []string{"active.en.toml", "active.fr.toml"} {
		if _, err := bundle.LoadMessageFileFS(localeFS, file); err != nil {
			logger.Warn.Printf("[i18n] failed to load %s: %v", file, err)
		}
	}

	return &Translator{
		bundle:          bundle,
		defaultLanguage: tag,
	}
}

// T renders the message identified by key for the given locale.
// It falls back to the default locale, then English, then the key itself.
func (t *Translator) T(locale, key string, data map[string]any) string {
	if key == "" {
		return ""
	}

	languages := []string{}
	if locale != "" {
		languages = append(languages, locale)
	}
	languages = append(languages, t.defaultLanguage.String(), language.English.String())

	localizer := i18n.NewLocalizer(t.bundle, languages...)
	msg, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: data,
	})
	if err != nil {
		logger.Warn.Printf("[i18n] localize failed (key=%s, locales=%v): %v", key, languages, err)
		return key
	}
	return msg
}
