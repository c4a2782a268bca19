package mcpserver

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/edvin/unwind/internal/auth"
	"github.com/edvin/unwind/internal/store"
)

// Server exposes the feature stores as grouped MCP tool endpoints. Each
// tool call carries its own bearer token; there is no transport-level
// session identity.
type Server struct {
	router chi.Router
	logger zerolog.Logger
	cfg    *Config
}

// New creates and configures a new MCP server over the given stores.
func New(cfg *Config, verifier *auth.Verifier, stores *store.Stores, logger zerolog.Logger) *Server {
	groups := NewTools(verifier, stores, cfg, logger).Groups()

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)

	// Health check
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount each group as a separate MCP server, and collect all tools for
	// the unified endpoint.
	var allTools []server.ServerTool
	router.Route("/mcp", func(r chi.Router) {
		var names []string
		for name := range groups {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, groupName := range names {
			tools := groups[groupName]
			groupDesc := cfg.groupDescription(groupName, "Unwind "+groupName+" tools")

			mcpSrv := server.NewMCPServer(
				"unwind-"+groupName,
				"1.0.0",
				server.WithInstructions(groupDesc),
			)
			mcpSrv.AddTools(tools...)

			httpSrv := server.NewStreamableHTTPServer(mcpSrv,
				server.WithEndpointPath("/"),
			)

			r.Mount("/"+groupName, httpSrv)
			allTools = append(allTools, tools...)

			logger.Info().
				Str("group", groupName).
				Int("tools", len(tools)).
				Msg("mounted MCP tool group")
		}

		// Unified endpoint with all tools for agents that need the full set.
		allSrv := server.NewMCPServer(
			"unwind",
			"1.0.0",
			server.WithInstructions(cfg.Instructions),
		)
		allSrv.AddTools(allTools...)
		r.Mount("/all", server.NewStreamableHTTPServer(allSrv, server.WithEndpointPath("/")))
		logger.Info().Int("tools", len(allTools)).Msg("mounted unified MCP endpoint at /mcp/all")

		// Index endpoint listing available groups
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			var lines []string
			for _, name := range names {
				tools := groups[name]
				desc := cfg.groupDescription(name, "Unwind "+name+" tools")
				lines = append(lines, fmt.Sprintf(`{"name":%q,"endpoint":"/mcp/%s","tools":%d,"description":%q}`,
					name, name, len(tools), desc))
			}
			lines = append(lines, fmt.Sprintf(`{"name":"all","endpoint":"/mcp/all","tools":%d,"description":"All tools from every group"}`, len(allTools)))
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("[" + strings.Join(lines, ",") + "]"))
		})
	})

	return &Server{
		router: router,
		logger: logger,
		cfg:    cfg,
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
