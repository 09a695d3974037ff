// Package lsp adapts the workspace engine to the Language Server Protocol:
// glsp handles the JSON-RPC transport and standard message dispatch, with a
// thin wrapper for the jasmin/* extension notifications.
package lsp

import (
	"fmt"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	"jasminls/internal/config"
	"jasminls/internal/workspace"
)

const ServerName = "jasminls"

// Server holds one session's state and its protocol handler table.
type Server struct {
	name    string
	version string

	ws      *workspace.Workspace
	handler *protocol.Handler
	logger  commonlog.Logger
}

func NewServer(ws *workspace.Workspace, version string) *Server {
	s := &Server{
		name:    ServerName,
		version: version,
		ws:      ws,
		logger:  commonlog.GetLogger(ServerName),
	}
	s.handler = &protocol.Handler{
		Initialize:                 s.initialize,
		Initialized:                s.initialized,
		Shutdown:                   s.shutdown,
		SetTrace:                   s.setTrace,
		TextDocumentDidOpen:        s.textDocumentDidOpen,
		TextDocumentDidChange:      s.textDocumentDidChange,
		TextDocumentDidClose:       s.textDocumentDidClose,
		TextDocumentHover:          s.textDocumentHover,
		TextDocumentDefinition:     s.textDocumentDefinition,
		TextDocumentReferences:     s.textDocumentReferences,
		TextDocumentDocumentSymbol: s.textDocumentDocumentSymbol,
		TextDocumentRename:         s.textDocumentRename,
		WorkspaceSymbol:            s.workspaceSymbol,
	}
	return s
}

// Workspace exposes the underlying engine, mainly for the CLI and tests.
func (s *Server) Workspace() *workspace.Workspace {
	return s.ws
}

// RunStdio serves LSP over stdin/stdout until the client disconnects.
func (s *Server) RunStdio() error {
	srv := glspserver.NewServer(&dispatcher{srv: s}, s.name, false)
	return srv.RunStdio()
}

// dispatcher routes jasmin/* extension messages before falling through to
// the standard protocol handler.
type dispatcher struct {
	srv *Server
}

func (d *dispatcher) Handle(ctx *glsp.Context) (result any, validMethod bool, validParams bool, err error) {
	// A panic while indexing a pathological document must fail the one
	// request, not the process.
	defer func() {
		if r := recover(); r != nil {
			d.srv.logger.Errorf("panic in %s: %v", ctx.Method, r)
			result, validMethod, validParams = nil, true, true
			err = fmt.Errorf("internal error handling %s: %v", ctx.Method, r)
		}
	}()

	switch ctx.Method {
	case methodSetMasterFile, methodSetNamespacePaths:
		return d.srv.handleCustom(ctx)
	}
	return d.srv.handler.Handle(ctx)
}

func (s *Server) initialize(glspCtx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	if params.RootPath != nil {
		s.ws.SetRoot(*params.RootPath)
	} else if params.RootURI != nil {
		s.ws.SetRoot(uriToPath(*params.RootURI))
	}
	s.logger.Infof("initialize: root=%s", s.ws.Root())

	// A jasminls.yaml in the root seeds master file and namespace paths
	// before the client sends any jasmin/* notification.
	if cfg, err := config.LoadWorkspaceConfig(s.ws.Root()); err != nil {
		s.logger.Warningf("workspace config: %v", err)
	} else if cfg != nil {
		if len(cfg.NamespacePaths) > 0 {
			s.ws.SetNamespacePaths(cfg.NamespaceMap(), nil)
		}
		if cfg.Project.MasterFile != "" {
			s.ws.SetMasterFile(cfg.Project.MasterFile)
		}
	}

	capabilities := s.handler.CreateServerCapabilities()
	capabilities.TextDocumentSync = protocol.TextDocumentSyncKindFull

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    s.name,
			Version: &s.version,
		},
	}, nil
}

func (s *Server) initialized(glspCtx *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

func (s *Server) shutdown(glspCtx *glsp.Context) error {
	protocol.SetTraceValue(protocol.TraceValueOff)
	return nil
}

func (s *Server) setTrace(glspCtx *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

// publisher adapts glsp notification delivery to the workspace publish
// callback. A nil context (as in direct handler tests) publishes nowhere.
func (s *Server) publisher(glspCtx *glsp.Context) workspace.PublishFunc {
	if glspCtx == nil || glspCtx.Notify == nil {
		return nil
	}
	return func(path string, diags []workspace.Diagnostic) {
		glspCtx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
			URI:         pathToURI(path),
			Diagnostics: toProtocolDiagnostics(diags),
		})
	}
}
