package locale

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/text/language"
)

// Query parameters consumed on launch.
const (
	ParamLocale = "lang"
	ParamDebug  = "debug"
)

// Launch is the outcome of reading a launch URL.
type Launch struct {
	// URL is the input with the consumed parameters removed. Other parameters
	// keep their order and encoding; the fragment is untouched.
	URL       string
	Locale    string
	HasLocale bool
	Debug     bool
	HasDebug  bool
}

// Target receives the values carried by a launch URL.
type Target interface {
	SetDebug(ctx context.Context, on bool) error
	SetLocale(ctx context.Context, tag string) error
}

// ParseLaunchURL extracts the locale and debug parameters from raw. An invalid
// locale tag is dropped from the URL but not applied.
func ParseLaunchURL(raw string) (Launch, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Launch{}, fmt.Errorf("parse launch url: %w", err)
	}

	var out Launch
	var kept []string
	for _, part := range strings.Split(u.RawQuery, "&") {
		if part == "" {
			continue
		}
		rawKey, rawVal, _ := strings.Cut(part, "=")
		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			kept = append(kept, part)
			continue
		}
		val, err := url.QueryUnescape(rawVal)
		if err != nil {
			val = rawVal
		}
		switch key {
		case ParamLocale:
			if tag, ok := normalizeTag(val); ok {
				out.Locale, out.HasLocale = tag, true
			}
		case ParamDebug:
			out.Debug, out.HasDebug = parseSwitch(val)
		default:
			kept = append(kept, part)
		}
	}

	u.RawQuery = strings.Join(kept, "&")
	u.ForceQuery = false
	out.URL = u.String()
	return out, nil
}

// Apply hands the parsed values to t.
func (l Launch) Apply(ctx context.Context, t Target) error {
	if l.HasLocale {
		if err := t.SetLocale(ctx, l.Locale); err != nil {
			return err
		}
	}
	if l.HasDebug {
		if err := t.SetDebug(ctx, l.Debug); err != nil {
			return err
		}
	}
	return nil
}

// normalizeTag accepts BCP 47 tags and the underscore form (pt_BR). An empty
// value is valid and clears the override.
func normalizeTag(v string) (string, bool) {
	v = strings.TrimSpace(strings.ReplaceAll(v, "_", "-"))
	if v == "" {
		return "", true
	}
	tag, err := language.Parse(v)
	if err != nil {
		return "", false
	}
	return tag.String(), true
}

// parseSwitch treats a bare "debug" or any value other than an explicit off as on.
func parseSwitch(v string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "0", "false", "off", "no":
		return false, true
	}
	return true, true
}
