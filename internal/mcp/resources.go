package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/storeadvisor/internal/config"
	"github.com/usestring/storeadvisor/internal/eventlog"
	"github.com/usestring/storeadvisor/internal/mcp/tools"
)

// Resource URI scheme: storeadvisor://
// Supported URIs:
//   storeadvisor://event/{id}
//   storeadvisor://history
//   storeadvisor://analytics

const uriScheme = "storeadvisor://"

func (s *Server) registerResources() {
	s.mcpServer.AddResourceTemplate(&sdkmcp.ResourceTemplate{
		URITemplate: uriScheme + "event/{id}",
		Name:        "Upload Event",
		Description: "One logged upload or error event. The storeadvisor_get_event tool returns the same data.",
		MIMEType:    tools.MimeJSON,
		Annotations: &sdkmcp.Annotations{
			Audience: []sdkmcp.Role{"assistant"},
			Priority: 0.5,
		},
	}, s.handleResourceEvent)

	s.mcpServer.AddResource(&sdkmcp.Resource{
		URI:         uriScheme + "history",
		Name:        "Upload History",
		Description: "The most recent upload and error events, newest first.",
		MIMEType:    tools.MimeJSON,
		Annotations: &sdkmcp.Annotations{
			Audience: []sdkmcp.Role{"assistant", "user"},
			Priority: 0.4,
		},
	}, s.handleResourceHistory)

	s.mcpServer.AddResource(&sdkmcp.Resource{
		URI:         uriScheme + "analytics",
		Name:        "Upload Analytics",
		Description: "Event totals by database and by status.",
		MIMEType:    tools.MimeJSON,
		Annotations: &sdkmcp.Annotations{
			Audience: []sdkmcp.Role{"assistant", "user"},
			Priority: 0.4,
		},
	}, s.handleResourceAnalytics)
}

func (s *Server) handleResourceEvent(ctx context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
	params, err := parseResourceURI(req.Params.URI)
	if err != nil {
		return nil, err
	}
	events, err := s.eventLog()
	if err != nil {
		return nil, err
	}

	ev, err := events.Get(ctx, params["id"])
	if errors.Is(err, eventlog.ErrNotFound) {
		return nil, sdkmcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, tools.WrapToolError(err)
	}
	return toResourceResult(req.Params.URI, tools.BuildEventOutput(ev))
}

func (s *Server) handleResourceHistory(ctx context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
	events, err := s.eventLog()
	if err != nil {
		return nil, err
	}

	list, err := events.History(ctx, config.DefaultHistoryLimit)
	if err != nil {
		return nil, tools.WrapToolError(err)
	}
	out := make([]tools.EventOutput, 0, len(list))
	for i := range list {
		out = append(out, tools.BuildEventOutput(&list[i]))
	}
	return toResourceResult(req.Params.URI, out)
}

func (s *Server) handleResourceAnalytics(ctx context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
	events, err := s.eventLog()
	if err != nil {
		return nil, err
	}

	a, err := events.Analytics(ctx)
	if err != nil {
		return nil, tools.WrapToolError(err)
	}
	return toResourceResult(req.Params.URI, a)
}

func (s *Server) eventLog() (*eventlog.Log, error) {
	events := s.deps.Events()
	if events == nil {
		return nil, tools.ErrInvalidInput("event log is not configured")
	}
	return events, nil
}

// parseResourceURI extracts parameters from a storeadvisor:// URI.
func parseResourceURI(uri string) (map[string]string, error) {
	if !strings.HasPrefix(uri, uriScheme) {
		return nil, tools.ErrInvalidInput("invalid URI scheme: expected " + uriScheme)
	}

	parts := strings.Split(strings.TrimPrefix(uri, uriScheme), "/")
	params := make(map[string]string)

	switch parts[0] {
	case "event":
		if len(parts) < 2 || parts[1] == "" {
			return nil, tools.ErrInvalidInput("event URI requires an event ID")
		}
		params["id"] = parts[1]
	case "history", "analytics":
	case "":
		return nil, tools.ErrInvalidInput("empty resource path")
	default:
		return nil, tools.ErrInvalidInput(fmt.Sprintf("unknown resource type: %s", parts[0]))
	}

	return params, nil
}

// toResourceResult serializes content to a ReadResourceResult.
func toResourceResult(uri string, content any) (*sdkmcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(content, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serializing resource: %w", err)
	}

	return &sdkmcp.ReadResourceResult{
		Contents: []*sdkmcp.ResourceContents{
			{
				URI:      uri,
				MIMEType: tools.MimeJSON,
				Text:     string(data),
			},
		},
	}, nil
}
