// Package locale resolves the active locale and formats values for it.
package locale

import (
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultTag is used when neither an override nor a configured locale parses.
const DefaultTag = "pt-BR"

// Formatter formats numbers for one locale.
type Formatter struct {
	tag     language.Tag
	printer *message.Printer
}

// NewFormatter picks the forced locale when set, else the configured one.
// Tags that fail to parse fall back to DefaultTag and are logged at debug level.
func NewFormatter(forced, configured string, log *zap.Logger) *Formatter {
	if log == nil {
		log = zap.NewNop()
	}
	tag := language.MustParse(DefaultTag)
	for _, candidate := range []string{forced, configured} {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		t, err := language.Parse(candidate)
		if err != nil {
			log.Debug("locale parse failed, trying next", zap.String("tag", candidate), zap.Error(err))
			continue
		}
		tag = t
		break
	}
	return &Formatter{tag: tag, printer: message.NewPrinter(tag)}
}

// Tag returns the BCP 47 form of the active locale.
func (f *Formatter) Tag() string { return f.tag.String() }

// Count formats an integer with the locale's digit grouping.
func (f *Formatter) Count(n int) string {
	return f.printer.Sprintf("%d", n)
}
