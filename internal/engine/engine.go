// Package engine defines the capability set a rendering backend exposes to
// the browser core, and the two simulated backends selectable by Kind.
package engine

import (
	"context"
	"strings"
)

// Engine is the capability set the browser core depends on. Every
// navigational call returns nil on success or an error whose text is the
// backend's failure reason.
type Engine interface {
	Load(ctx context.Context, tabID, url string) error
	GoBack(ctx context.Context, tabID string) error
	GoForward(ctx context.Context, tabID string) error
	Reload(ctx context.Context, tabID string) error
	Stop(ctx context.Context, tabID string) error
	MemoryUsage(ctx context.Context) uint64
}

// TabCloser is implemented by engines that hold per-tab backend resources.
type TabCloser interface {
	CloseTab(ctx context.Context, tabID string) error
}

// TitleReporter is implemented by engines that can read a page title after
// a load completes.
type TitleReporter interface {
	Title(ctx context.Context, tabID string) (string, error)
}

// Kind selects a backend.
type Kind int

const (
	KindServo Kind = iota
	KindWebKit
)

func (k Kind) String() string {
	if k == KindServo {
		return "servo"
	}
	return "webkit"
}

// ParseKind maps "servo" to KindServo. Anything else falls back to KindWebKit.
func ParseKind(s string) Kind {
	if strings.EqualFold(strings.TrimSpace(s), "servo") {
		return KindServo
	}
	return KindWebKit
}

// New resolves kind into a backend once, at construction.
func New(kind Kind, opts ...Option) Engine {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	switch kind {
	case KindServo:
		return &Servo{newSimulated("servo", cfg)}
	default:
		return &WebKit{newSimulated("webkit", cfg)}
	}
}
