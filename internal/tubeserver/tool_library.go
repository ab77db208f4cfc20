package tubeserver

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_tube/internal/engine/store"
)

// ListInput is the input for transcript_list.
type ListInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"Max entries to return (default: 20)"`
}

// SearchInput is the input for transcript_search.
type SearchInput struct {
	Query string `json:"query" jsonschema:"Substring to match against transcript titles and text"`
	Limit int    `json:"limit,omitempty" jsonschema:"Max entries to return (default: 20)"`
}

// LibraryOutput is the structured output for both library tools.
type LibraryOutput struct {
	Entries []store.Entry `json:"entries"`
	Count   int           `json:"count"`
}

func registerLibrary(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "transcript_list",
		Description: "List the most recently transcribed videos from the local knowledge base.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input ListInput) (*mcp.CallToolResult, LibraryOutput, error) {
		ix, err := store.OpenIndex()
		if err != nil {
			return nil, LibraryOutput{}, err
		}
		entries, err := ix.List(ctx, input.Limit)
		if err != nil {
			return nil, LibraryOutput{}, err
		}
		return nil, LibraryOutput{Entries: entries, Count: len(entries)}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "transcript_search",
		Description: "Search transcribed videos by title or transcript text. Uses the Postgres mirror when configured, the local index otherwise.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, LibraryOutput, error) {
		if input.Query == "" {
			return nil, LibraryOutput{}, errors.New("query is required")
		}

		if pg := store.PG(); pg != nil {
			entries, err := pg.Search(ctx, input.Query, input.Limit)
			if err == nil {
				return nil, LibraryOutput{Entries: entries, Count: len(entries)}, nil
			}
		}

		ix, err := store.OpenIndex()
		if err != nil {
			return nil, LibraryOutput{}, err
		}
		entries, err := ix.Search(ctx, input.Query, input.Limit)
		if err != nil {
			return nil, LibraryOutput{}, err
		}
		return nil, LibraryOutput{Entries: entries, Count: len(entries)}, nil
	})
}
