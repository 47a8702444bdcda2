package urlpolicy

import (
	"errors"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://example.com/path?q=1", "https://example.com/path?q=1"},
		{"  http://example.com  ", "http://example.com"},
		{"example.com", "https://example.com"},
		{"example.com/docs", "https://example.com/docs"},
		{"localhost:8080", "https://localhost:8080"},
		{"127.0.0.1", "https://127.0.0.1"},
		{"golang tutorials", DefaultSearchURL + "golang+tutorials"},
		{"golang", DefaultSearchURL + "golang"},
		{"HTTPS://Example.com", "https://Example.com"},
	}
	for _, tt := range tests {
		got, err := Normalize(tt.in)
		if err != nil {
			t.Fatalf("Normalize(%q) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("Normalize(%q) = %q; want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeRejects(t *testing.T) {
	tests := []struct {
		in   string
		want error
	}{
		{"", ErrEmpty},
		{"   ", ErrEmpty},
		{"javascript:alert(1)", ErrBlockedScheme},
		{"JavaScript:alert(1)", ErrBlockedScheme},
		{"data:text/html,hi", ErrBlockedScheme},
		{"vbscript:msgbox", ErrBlockedScheme},
		{"file:///etc/passwd", ErrBlockedScheme},
		{"about:blank", ErrBlockedScheme},
		{"ftp://example.com", ErrBlockedScheme},
	}
	for _, tt := range tests {
		_, err := Normalize(tt.in)
		if !errors.Is(err, tt.want) {
			t.Fatalf("Normalize(%q) error = %v; want %v", tt.in, err, tt.want)
		}
		if Safe(tt.in) {
			t.Fatalf("Safe(%q) = true; want false", tt.in)
		}
	}
}

func TestPolicySearchURL(t *testing.T) {
	p := Policy{SearchURL: "https://duckduckgo.com/?q="}
	got, err := p.Normalize("a&b")
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if want := "https://duckduckgo.com/?q=a%26b"; got != want {
		t.Fatalf("Normalize() = %q; want %q", got, want)
	}
}

func TestValidTabID(t *testing.T) {
	for id, want := range map[string]bool{
		"tab-0190e5a2-7b1c-7000-8000-000000000000": true,
		"tab-x": true,
		"tab-":  false,
		"":      false,
		"x-tab": false,
	} {
		if got := ValidTabID(id); got != want {
			t.Fatalf("ValidTabID(%q) = %v; want %v", id, got, want)
		}
	}
}

func TestSanitizeText(t *testing.T) {
	got := SanitizeText(` <b onclick=x>Title</b> javascript:go `)
	if want := "b xTitle/b go"; got != want {
		t.Fatalf("SanitizeText() = %q; want %q", got, want)
	}
}
