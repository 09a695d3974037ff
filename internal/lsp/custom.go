package lsp

import (
	"encoding/json"
	"fmt"

	"github.com/tliron/glsp"
)

// Extension notifications sent by the editor client.
const (
	methodSetMasterFile     = "jasmin/setMasterFile"
	methodSetNamespacePaths = "jasmin/setNamespacePaths"
)

type setMasterFileParams struct {
	URI string `json:"uri"`
}

type namespacePathEntry struct {
	Namespace string `json:"namespace"`
	Path      string `json:"path"`
}

type setNamespacePathsParams struct {
	Paths []namespacePathEntry `json:"paths"`
}

// handleCustom dispatches one jasmin/* message. Both are notifications, so
// the result is always nil; the bool pair matches glsp's handler contract
// (method known, params valid).
func (s *Server) handleCustom(ctx *glsp.Context) (any, bool, bool, error) {
	switch ctx.Method {
	case methodSetMasterFile:
		var params setMasterFileParams
		if err := json.Unmarshal(ctx.Params, &params); err != nil {
			return nil, true, false, fmt.Errorf("%s: %w", ctx.Method, err)
		}
		path := uriToPath(params.URI)
		s.logger.Infof("setMasterFile %s", path)
		s.ws.SetMasterFile(path)
		return nil, true, true, nil

	case methodSetNamespacePaths:
		var params setNamespacePathsParams
		if err := json.Unmarshal(ctx.Params, &params); err != nil {
			return nil, true, false, fmt.Errorf("%s: %w", ctx.Method, err)
		}
		paths := make(map[string]string, len(params.Paths))
		for _, entry := range params.Paths {
			paths[entry.Namespace] = entry.Path
		}
		s.logger.Infof("setNamespacePaths (%d entries)", len(paths))
		s.ws.SetNamespacePaths(paths, s.publisher(ctx))
		return nil, true, true, nil
	}
	return nil, false, false, nil
}
