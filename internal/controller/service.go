package controller

import (
	"context"
	"strings"

	"github.com/dgnsrekt/tabcore/internal/browser"
	"github.com/dgnsrekt/tabcore/internal/history"
	"github.com/dgnsrekt/tabcore/internal/types"
	"github.com/dgnsrekt/tabcore/internal/urlpolicy"
)

// Service validates request input and drives a Browser.
type Service struct {
	browser *browser.Browser
	policy  urlpolicy.Policy
}

func NewService(b *browser.Browser) *Service {
	return &Service{browser: b, policy: urlpolicy.Default}
}

// WithSearchURL sets where non-URL navigation input is sent.
func (s *Service) WithSearchURL(searchURL string) *Service {
	if searchURL != "" {
		s.policy.SearchURL = searchURL
	}
	return s
}

func (s *Service) requireNonEmpty(value, fieldName string) error {
	if strings.TrimSpace(value) == "" {
		return &browser.CodedError{Code: browser.CodeValidation, Message: fieldName + " is required"}
	}
	return nil
}

func (s *Service) requireTabID(tabID string) (string, error) {
	if err := s.requireNonEmpty(tabID, "tab_id"); err != nil {
		return "", err
	}
	tabID = strings.TrimSpace(tabID)
	if !urlpolicy.ValidTabID(tabID) {
		return "", &browser.CodedError{Code: browser.CodeValidation, Message: "invalid tab_id: " + tabID}
	}
	return tabID, nil
}

func (s *Service) normalizeURL(raw string) (string, error) {
	if err := s.requireNonEmpty(raw, "url"); err != nil {
		return "", err
	}
	u, err := s.policy.Normalize(raw)
	if err != nil {
		return "", &browser.CodedError{Code: browser.CodeValidation, Message: "invalid url", Cause: err}
	}
	return u, nil
}

func (s *Service) tabInfo(tabID string) (types.TabInfo, error) {
	info, ok := s.browser.GetTab(tabID)
	if !ok {
		return types.TabInfo{}, &browser.CodedError{Code: browser.CodeTabNotFound, Message: "tab not found: " + tabID}
	}
	return info, nil
}

func (s *Service) ListTabs(ctx context.Context) []types.TabInfo {
	return s.browser.Tabs()
}

func (s *Service) GetTab(ctx context.Context, tabID string) (types.TabInfo, error) {
	tabID, err := s.requireTabID(tabID)
	if err != nil {
		return types.TabInfo{}, err
	}
	return s.tabInfo(tabID)
}

// CreateTab opens a tab. An empty url opens about:blank; a non-empty one is
// normalized first. parentID, when set, must name an open tab.
func (s *Service) CreateTab(ctx context.Context, rawURL, parentID string) (types.TabInfo, error) {
	url := ""
	if strings.TrimSpace(rawURL) != "" {
		var err error
		if url, err = s.normalizeURL(rawURL); err != nil {
			return types.TabInfo{}, err
		}
	}

	if strings.TrimSpace(parentID) == "" {
		return s.tabInfo(s.browser.CreateTab(url))
	}
	parentID, err := s.requireTabID(parentID)
	if err != nil {
		return types.TabInfo{}, err
	}
	id, err := s.browser.CreateChildTab(parentID, url)
	if err != nil {
		return types.TabInfo{}, err
	}
	return s.tabInfo(id)
}

// CloseTab closes an open tab and its children. Unknown tabs are an error
// here even though the browser treats them as a no-op.
func (s *Service) CloseTab(ctx context.Context, tabID string) error {
	tabID, err := s.requireTabID(tabID)
	if err != nil {
		return err
	}
	if _, err := s.tabInfo(tabID); err != nil {
		return err
	}
	s.browser.CloseTab(tabID)
	return nil
}

func (s *Service) Navigate(ctx context.Context, tabID, rawURL string) (types.TabInfo, error) {
	tabID, err := s.requireTabID(tabID)
	if err != nil {
		return types.TabInfo{}, err
	}
	url, err := s.normalizeURL(rawURL)
	if err != nil {
		return types.TabInfo{}, err
	}
	if err := s.browser.Navigate(ctx, tabID, url); err != nil {
		return types.TabInfo{}, err
	}
	return s.tabInfo(tabID)
}

func (s *Service) GoBack(ctx context.Context, tabID string) (types.TabInfo, error) {
	return s.tabOp(ctx, tabID, s.browser.GoBack)
}

func (s *Service) GoForward(ctx context.Context, tabID string) (types.TabInfo, error) {
	return s.tabOp(ctx, tabID, s.browser.GoForward)
}

func (s *Service) Reload(ctx context.Context, tabID string) (types.TabInfo, error) {
	return s.tabOp(ctx, tabID, s.browser.Reload)
}

func (s *Service) Stop(ctx context.Context, tabID string) (types.TabInfo, error) {
	return s.tabOp(ctx, tabID, s.browser.Stop)
}

func (s *Service) tabOp(ctx context.Context, tabID string, op func(context.Context, string) error) (types.TabInfo, error) {
	tabID, err := s.requireTabID(tabID)
	if err != nil {
		return types.TabInfo{}, err
	}
	if err := op(ctx, tabID); err != nil {
		return types.TabInfo{}, err
	}
	return s.tabInfo(tabID)
}

func (s *Service) SetTitle(ctx context.Context, tabID, title string) (types.TabInfo, error) {
	tabID, err := s.requireTabID(tabID)
	if err != nil {
		return types.TabInfo{}, err
	}
	if err := s.browser.SetTitle(tabID, urlpolicy.SanitizeText(title)); err != nil {
		return types.TabInfo{}, err
	}
	return s.tabInfo(tabID)
}

func (s *Service) TabHistory(ctx context.Context, tabID string) ([]history.Entry, error) {
	tabID, err := s.requireTabID(tabID)
	if err != nil {
		return nil, err
	}
	return s.browser.TabHistory(tabID)
}

func (s *Service) ChildTabs(ctx context.Context, tabID string) ([]string, error) {
	tabID, err := s.requireTabID(tabID)
	if err != nil {
		return nil, err
	}
	if _, err := s.tabInfo(tabID); err != nil {
		return nil, err
	}
	return s.browser.ChildTabs(tabID), nil
}

func (s *Service) ActiveTab(ctx context.Context) (types.TabInfo, error) {
	id, ok := s.browser.ActiveTab()
	if !ok {
		return types.TabInfo{}, &browser.CodedError{Code: browser.CodeTabNotFound, Message: "no active tab"}
	}
	return s.tabInfo(id)
}

func (s *Service) SetActiveTab(ctx context.Context, tabID string) (types.TabInfo, error) {
	tabID, err := s.requireTabID(tabID)
	if err != nil {
		return types.TabInfo{}, err
	}
	if err := s.browser.SetActiveTab(tabID); err != nil {
		return types.TabInfo{}, err
	}
	return s.tabInfo(tabID)
}

func (s *Service) MemoryStats(ctx context.Context) types.MemoryStats {
	return s.browser.MemoryStats(ctx)
}

func (s *Service) ResetPeak(ctx context.Context) types.MemoryStats {
	s.browser.ResetPeak()
	return s.browser.MemoryStats(ctx)
}

func (s *Service) SessionHistory(ctx context.Context) []history.Entry {
	return s.browser.SessionHistory()
}
