package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/dgnsrekt/tabcore/internal/history"
	"github.com/dgnsrekt/tabcore/internal/types"
)

type tabOutput struct {
	Body types.TabInfo
}

type tabIDInput struct {
	TabID string `path:"tab_id" doc:"Tab ID (tab-...)"`
}

func registerTabHandlers(api huma.API, svc Service) {
	type listTabsOutput struct {
		Body struct {
			Tabs []types.TabInfo `json:"tabs"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "list-tabs", Method: http.MethodGet, Path: "/api/v1/tabs", Summary: "List open tabs", Tags: []string{"Tabs"}},
		func(ctx context.Context, input *struct{}) (*listTabsOutput, error) {
			out := &listTabsOutput{}
			out.Body.Tabs = svc.ListTabs(ctx)
			return out, nil
		})

	huma.Register(api, huma.Operation{OperationID: "create-tab", Method: http.MethodPost, Path: "/api/v1/tabs", Summary: "Open a tab and make it active", Tags: []string{"Tabs"}, DefaultStatus: http.StatusCreated},
		func(ctx context.Context, input *struct {
			Body struct {
				URL      string `json:"url,omitempty" doc:"URL or search text; empty opens about:blank"`
				ParentID string `json:"parent_id,omitempty" doc:"Open as a child of this tab"`
			}
		}) (*tabOutput, error) {
			info, err := svc.CreateTab(ctx, input.Body.URL, input.Body.ParentID)
			if err != nil {
				return nil, mapErr(err)
			}
			return &tabOutput{Body: info}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "get-tab", Method: http.MethodGet, Path: "/api/v1/tabs/{tab_id}", Summary: "Get tab state", Tags: []string{"Tabs"}},
		func(ctx context.Context, input *tabIDInput) (*tabOutput, error) {
			info, err := svc.GetTab(ctx, input.TabID)
			if err != nil {
				return nil, mapErr(err)
			}
			return &tabOutput{Body: info}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "close-tab", Method: http.MethodDelete, Path: "/api/v1/tabs/{tab_id}", Summary: "Close a tab and its children", Tags: []string{"Tabs"}, DefaultStatus: http.StatusNoContent},
		func(ctx context.Context, input *tabIDInput) (*struct{}, error) {
			if err := svc.CloseTab(ctx, input.TabID); err != nil {
				return nil, mapErr(err)
			}
			return nil, nil
		})

	huma.Register(api, huma.Operation{OperationID: "set-tab-title", Method: http.MethodPut, Path: "/api/v1/tabs/{tab_id}/title", Summary: "Set tab title", Tags: []string{"Tabs"}},
		func(ctx context.Context, input *struct {
			TabID string `path:"tab_id"`
			Body  struct {
				Title string `json:"title" doc:"New title; markup is stripped"`
			}
		}) (*tabOutput, error) {
			info, err := svc.SetTitle(ctx, input.TabID, input.Body.Title)
			if err != nil {
				return nil, mapErr(err)
			}
			return &tabOutput{Body: info}, nil
		})

	type tabHistoryOutput struct {
		Body struct {
			TabID   string          `json:"tab_id"`
			Entries []history.Entry `json:"entries"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "get-tab-history", Method: http.MethodGet, Path: "/api/v1/tabs/{tab_id}/history", Summary: "Tab navigation history, most recent first", Tags: []string{"Tabs"}},
		func(ctx context.Context, input *tabIDInput) (*tabHistoryOutput, error) {
			entries, err := svc.TabHistory(ctx, input.TabID)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &tabHistoryOutput{}
			out.Body.TabID = input.TabID
			out.Body.Entries = entries
			return out, nil
		})

	type childTabsOutput struct {
		Body struct {
			TabID    string   `json:"tab_id"`
			Children []string `json:"children"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "list-child-tabs", Method: http.MethodGet, Path: "/api/v1/tabs/{tab_id}/children", Summary: "List tabs opened from a tab", Tags: []string{"Tabs"}},
		func(ctx context.Context, input *tabIDInput) (*childTabsOutput, error) {
			children, err := svc.ChildTabs(ctx, input.TabID)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &childTabsOutput{}
			out.Body.TabID = input.TabID
			out.Body.Children = children
			if out.Body.Children == nil {
				out.Body.Children = []string{}
			}
			return out, nil
		})

	huma.Register(api, huma.Operation{OperationID: "get-active-tab", Method: http.MethodGet, Path: "/api/v1/active", Summary: "Get the active tab", Tags: []string{"Tabs"}},
		func(ctx context.Context, input *struct{}) (*tabOutput, error) {
			info, err := svc.ActiveTab(ctx)
			if err != nil {
				return nil, mapErr(err)
			}
			return &tabOutput{Body: info}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "set-active-tab", Method: http.MethodPut, Path: "/api/v1/active", Summary: "Focus a tab", Tags: []string{"Tabs"}},
		func(ctx context.Context, input *struct {
			Body struct {
				TabID string `json:"tab_id" required:"true"`
			}
		}) (*tabOutput, error) {
			info, err := svc.SetActiveTab(ctx, input.Body.TabID)
			if err != nil {
				return nil, mapErr(err)
			}
			return &tabOutput{Body: info}, nil
		})
}

func registerNavigationHandlers(api huma.API, svc Service) {
	huma.Register(api, huma.Operation{OperationID: "navigate-tab", Method: http.MethodPost, Path: "/api/v1/tabs/{tab_id}/navigate", Summary: "Load a URL in a tab", Tags: []string{"Navigation"}},
		func(ctx context.Context, input *struct {
			TabID string `path:"tab_id"`
			Body  struct {
				URL string `json:"url" required:"true" doc:"URL, bare host or search text"`
			}
		}) (*tabOutput, error) {
			info, err := svc.Navigate(ctx, input.TabID, input.Body.URL)
			if err != nil {
				return nil, mapErr(err)
			}
			return &tabOutput{Body: info}, nil
		})

	ops := []struct {
		id, path, summary string
		fn                func(context.Context, string) (types.TabInfo, error)
	}{
		{"go-back", "back", "Go back one history entry", svc.GoBack},
		{"go-forward", "forward", "Go forward one history entry", svc.GoForward},
		{"reload-tab", "reload", "Reload the current page", svc.Reload},
		{"stop-tab", "stop", "Cancel an in-flight load", svc.Stop},
	}
	for _, op := range ops {
		huma.Register(api, huma.Operation{OperationID: op.id, Method: http.MethodPost, Path: "/api/v1/tabs/{tab_id}/" + op.path, Summary: op.summary, Tags: []string{"Navigation"}},
			func(ctx context.Context, input *tabIDInput) (*tabOutput, error) {
				info, err := op.fn(ctx, input.TabID)
				if err != nil {
					return nil, mapErr(err)
				}
				return &tabOutput{Body: info}, nil
			})
	}
}
