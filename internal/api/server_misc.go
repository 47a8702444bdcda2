package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func registerMiscHandlers(api huma.API, svc Service) {
	type healthOutput struct {
		Body struct {
			Status   string `json:"status"`
			TabCount int    `json:"tab_count"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "health", Method: http.MethodGet, Path: "/health", Summary: "Health check", Tags: []string{"Health"}},
		func(ctx context.Context, input *struct{}) (*healthOutput, error) {
			out := &healthOutput{}
			out.Body.Status = "ok"
			out.Body.TabCount = svc.MemoryStats(ctx).TabCount
			return out, nil
		})
}
