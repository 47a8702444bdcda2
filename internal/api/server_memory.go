package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/dgnsrekt/tabcore/internal/history"
	"github.com/dgnsrekt/tabcore/internal/types"
)

func registerMemoryHandlers(api huma.API, svc Service) {
	type memoryOutput struct {
		Body types.MemoryStats
	}
	huma.Register(api, huma.Operation{OperationID: "get-memory", Method: http.MethodGet, Path: "/api/v1/memory", Summary: "Tracked memory usage", Tags: []string{"Memory"}},
		func(ctx context.Context, input *struct{}) (*memoryOutput, error) {
			return &memoryOutput{Body: svc.MemoryStats(ctx)}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "reset-memory-peak", Method: http.MethodPost, Path: "/api/v1/memory/reset-peak", Summary: "Start a new peak measurement window", Tags: []string{"Memory"}},
		func(ctx context.Context, input *struct{}) (*memoryOutput, error) {
			return &memoryOutput{Body: svc.ResetPeak(ctx)}, nil
		})

	type sessionHistoryOutput struct {
		Body struct {
			Entries []history.Entry `json:"entries"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "get-session-history", Method: http.MethodGet, Path: "/api/v1/history", Summary: "Successful navigations across all tabs, most recent first", Tags: []string{"History"}},
		func(ctx context.Context, input *struct {
			Limit int `query:"limit" minimum:"0" doc:"Return at most this many entries; 0 returns all"`
		}) (*sessionHistoryOutput, error) {
			entries := svc.SessionHistory(ctx)
			if input.Limit > 0 && input.Limit < len(entries) {
				entries = entries[:input.Limit]
			}
			out := &sessionHistoryOutput{}
			out.Body.Entries = entries
			return out, nil
		})
}
