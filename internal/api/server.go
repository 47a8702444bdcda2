package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/dgnsrekt/tabcore/internal/browser"
	"github.com/dgnsrekt/tabcore/internal/events"
	"github.com/dgnsrekt/tabcore/internal/history"
	"github.com/dgnsrekt/tabcore/internal/types"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Service interface {
	ListTabs(ctx context.Context) []types.TabInfo
	GetTab(ctx context.Context, tabID string) (types.TabInfo, error)
	CreateTab(ctx context.Context, url, parentID string) (types.TabInfo, error)
	CloseTab(ctx context.Context, tabID string) error
	Navigate(ctx context.Context, tabID, url string) (types.TabInfo, error)
	GoBack(ctx context.Context, tabID string) (types.TabInfo, error)
	GoForward(ctx context.Context, tabID string) (types.TabInfo, error)
	Reload(ctx context.Context, tabID string) (types.TabInfo, error)
	Stop(ctx context.Context, tabID string) (types.TabInfo, error)
	SetTitle(ctx context.Context, tabID, title string) (types.TabInfo, error)
	TabHistory(ctx context.Context, tabID string) ([]history.Entry, error)
	ChildTabs(ctx context.Context, tabID string) ([]string, error)
	ActiveTab(ctx context.Context) (types.TabInfo, error)
	SetActiveTab(ctx context.Context, tabID string) (types.TabInfo, error)
	MemoryStats(ctx context.Context) types.MemoryStats
	ResetPeak(ctx context.Context) types.MemoryStats
	SessionHistory(ctx context.Context) []history.Entry
}

// NewServer builds the HTTP handler. A nil broker disables the event
// stream routes.
func NewServer(svc Service, broker *events.Broker) http.Handler {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(requestLogger)
	router.Use(middleware.Recoverer)

	cfg := huma.DefaultConfig("Tab Core API", "1.0.0")
	cfg.DocsPath = ""
	api := humachi.New(router, cfg)

	mountDocs(router)

	if broker != nil {
		router.Get("/api/v1/events", events.SSEHandler(broker))
		router.Get("/api/v1/events/ws", events.WSHandler(broker))
	}

	registerTabHandlers(api, svc)
	registerNavigationHandlers(api, svc)
	registerMemoryHandlers(api, svc)
	registerMiscHandlers(api, svc)

	return router
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	var coded *browser.CodedError
	if errors.As(err, &coded) {
		switch coded.Code {
		case browser.CodeValidation:
			return huma.Error400BadRequest(coded.Message)
		case browser.CodeTabNotFound:
			return huma.Error404NotFound(coded.Message)
		case browser.CodeNavigationStopped, browser.CodeNoHistory:
			return huma.Error409Conflict(coded.Message)
		case browser.CodeTabClosed:
			return huma.Error410Gone(coded.Message)
		case browser.CodeEngineFailure:
			if coded.Cause != nil {
				return huma.Error502BadGateway(fmt.Sprintf("%s: %v", coded.Message, coded.Cause))
			}
			return huma.Error502BadGateway(coded.Message)
		default:
			return huma.Error500InternalServerError(fmt.Sprintf("%s: %s", coded.Code, coded.Message))
		}
	}
	return huma.Error500InternalServerError(err.Error())
}
