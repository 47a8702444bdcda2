// Package urlpolicy turns user input into a navigable http(s) URL and
// rejects schemes that must never reach an engine.
package urlpolicy

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strings"
)

// DefaultSearchURL receives input that is not a URL. The query is appended
// escaped.
const DefaultSearchURL = "https://www.google.com/search?q="

var (
	ErrEmpty         = errors.New("url must be a non-empty string")
	ErrBlockedScheme = errors.New("blocked scheme")
)

var blockedSchemes = []string{"javascript:", "data:", "vbscript:", "file:", "about:"}

// Policy normalizes navigation input.
type Policy struct {
	SearchURL string
}

// Default is the policy used by Normalize.
var Default = Policy{SearchURL: DefaultSearchURL}

// Normalize applies the default policy.
func Normalize(input string) (string, error) {
	return Default.Normalize(input)
}

// Normalize trims input and returns an absolute http or https URL:
// the input itself when it already is one, https:// plus the input when it
// looks like a host, and a search URL otherwise.
func (p Policy) Normalize(input string) (string, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return "", ErrEmpty
	}
	lower := strings.ToLower(s)
	for _, scheme := range blockedSchemes {
		if strings.HasPrefix(lower, scheme) {
			return "", fmt.Errorf("%w: %s", ErrBlockedScheme, scheme)
		}
	}

	if i := strings.Index(lower, "://"); i > 0 {
		scheme := lower[:i]
		if scheme != "http" && scheme != "https" {
			return "", fmt.Errorf("%w: %s: only http and https are allowed", ErrBlockedScheme, scheme)
		}
		u, err := url.Parse(s)
		if err == nil && u.Host != "" {
			return u.String(), nil
		}
		return p.search(s), nil
	}

	if !strings.ContainsAny(s, " \t\n") {
		if u, err := url.Parse("https://" + s); err == nil && looksLikeHost(u.Hostname()) {
			return u.String(), nil
		}
	}
	return p.search(s), nil
}

func (p Policy) search(q string) string {
	base := p.SearchURL
	if base == "" {
		base = DefaultSearchURL
	}
	return base + url.QueryEscape(q)
}

func looksLikeHost(host string) bool {
	if host == "" {
		return false
	}
	if host == "localhost" || net.ParseIP(host) != nil {
		return true
	}
	i := strings.LastIndexByte(host, '.')
	return i > 0 && i < len(host)-1
}

// Safe reports whether input would be accepted by Normalize.
func Safe(input string) bool {
	_, err := Normalize(input)
	return err == nil
}

// TabIDPrefix starts every tab ID.
const TabIDPrefix = "tab-"

// ValidTabID reports whether id has the shape of a tab ID.
func ValidTabID(id string) bool {
	return len(id) > len(TabIDPrefix) && strings.HasPrefix(id, TabIDPrefix)
}

var (
	angleBrackets = regexp.MustCompile(`[<>]`)
	jsScheme      = regexp.MustCompile(`(?i)javascript:`)
	eventHandler  = regexp.MustCompile(`(?i)on\w+=`)
)

// SanitizeText strips markup and script fragments from free text such as
// titles.
func SanitizeText(s string) string {
	s = strings.TrimSpace(s)
	s = angleBrackets.ReplaceAllString(s, "")
	s = jsScheme.ReplaceAllString(s, "")
	return eventHandler.ReplaceAllString(s, "")
}
