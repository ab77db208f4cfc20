// Package tubeserver exposes the transcript pipeline as MCP tools:
// transcribe_video, fetch_captions, transcribe_audio, transcript_list,
// transcript_search.
package tubeserver

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// RegisterTools registers all transcript tools on the given MCP server.
func RegisterTools(server *mcp.Server) {
	registerTranscribeVideo(server)
	registerFetchCaptions(server)
	registerTranscribeAudio(server)
	registerLibrary(server)
}
