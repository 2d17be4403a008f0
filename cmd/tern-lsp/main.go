package main

import (
	"path/filepath"
	"strings"

	"tern/internal/config"
	"tern/internal/lsp"
	"tern/internal/module"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"
)

const (
	lsName  = "tern-lsp"
	version = "0.1"
)

var (
	store    = lsp.NewStore()
	resolver = module.NewResolver(nil)
	logger   commonlog.Logger
	handler  protocol.Handler
)

func main() {
	commonlog.Configure(1, nil)
	logger = commonlog.GetLogger(lsName)

	handler = protocol.Handler{
		Initialize:                 initialize,
		Initialized:                initialized,
		TextDocumentDidOpen:        textDocumentDidOpen,
		TextDocumentDidChange:      textDocumentDidChange,
		TextDocumentDidSave:        textDocumentDidSave,
		TextDocumentDidClose:       textDocumentDidClose,
		TextDocumentDefinition:     textDocumentDefinition,
		TextDocumentDocumentSymbol: textDocumentDocumentSymbol,
	}

	srv := server.NewServer(&handler, lsName, false)
	if err := srv.RunStdio(); err != nil {
		logger.Errorf("server stopped: %v", err)
	}
}

func initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	root := rootOf(params)
	resolver = resolverFor(root)
	logger.Infof("workspace root %s, module paths %v", root, resolver.Paths)

	full := protocol.TextDocumentSyncKindFull
	caps := protocol.ServerCapabilities{
		TextDocumentSync: &protocol.TextDocumentSyncOptions{
			OpenClose: &protocol.True,
			Change:    &full,
			Save:      protocol.SaveOptions{IncludeText: &protocol.False},
		},
		DefinitionProvider:     true,
		DocumentSymbolProvider: true,
	}
	v := version
	return protocol.InitializeResult{
		Capabilities: caps,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lsName,
			Version: &v,
		},
	}, nil
}

func initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

func textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	return update(ctx, string(params.TextDocument.URI), params.TextDocument.Text)
}

func textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	if len(params.ContentChanges) == 0 {
		return nil
	}
	text, ok := fullText(params.ContentChanges[len(params.ContentChanges)-1])
	if !ok {
		return nil
	}
	return update(ctx, string(params.TextDocument.URI), text)
}

func textDocumentDidSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	uri := string(params.TextDocument.URI)
	if a, ok := store.Get(uri); ok {
		publish(ctx, uri, lsp.ToLspDiagnostics(a.Text, a.Diagnostics))
	}
	return nil
}

func textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := string(params.TextDocument.URI)
	store.Delete(uri)
	publish(ctx, uri, []protocol.Diagnostic{})
	return nil
}

func textDocumentDefinition(ctx *glsp.Context, params *protocol.DefinitionParams) (any, error) {
	a, ok := store.Get(string(params.TextDocument.URI))
	if !ok {
		return nil, nil
	}
	locs := lsp.Definition(a, params.Position, resolver)
	if len(locs) == 0 {
		return nil, nil
	}
	return locs, nil
}

func textDocumentDocumentSymbol(ctx *glsp.Context, params *protocol.DocumentSymbolParams) (any, error) {
	a, ok := store.Get(string(params.TextDocument.URI))
	if !ok {
		return []protocol.DocumentSymbol{}, nil
	}
	return a.Index.Symbols, nil
}

func update(ctx *glsp.Context, uri, text string) error {
	if !isScript(uri) {
		publish(ctx, uri, []protocol.Diagnostic{})
		return nil
	}
	a := store.Update(uri, text)
	logger.Debugf("%s parsed as %s, %d diagnostics", uri, a.Kind, len(a.Diagnostics))
	publish(ctx, uri, lsp.ToLspDiagnostics(a.Text, a.Diagnostics))
	return nil
}

func publish(ctx *glsp.Context, uri string, ds []protocol.Diagnostic) {
	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         protocol.DocumentUri(uri),
		Diagnostics: ds,
	})
}

func fullText(change any) (string, bool) {
	switch c := change.(type) {
	case protocol.TextDocumentContentChangeEventWhole:
		return c.Text, true
	case *protocol.TextDocumentContentChangeEventWhole:
		return c.Text, true
	case protocol.TextDocumentContentChangeEvent:
		if c.Range == nil {
			return c.Text, true
		}
	case *protocol.TextDocumentContentChangeEvent:
		if c.Range == nil {
			return c.Text, true
		}
	}
	return "", false
}

func isScript(uri string) bool {
	return strings.HasSuffix(strings.ToLower(uri), module.Ext)
}

func rootOf(params *protocol.InitializeParams) string {
	root := ""
	if params.RootURI != nil {
		root = lsp.UriToPath(*params.RootURI)
	} else if params.RootPath != nil {
		root = *params.RootPath
	}
	if root == "" {
		root = "."
	}
	return root
}

// resolverFor builds the module resolver for a workspace, honouring the
// module paths of the nearest tern.toml.
func resolverFor(root string) *module.Resolver {
	p, ok := config.Find(root)
	if !ok {
		return module.NewResolver(nil)
	}
	m, err := config.LoadManifest(p)
	if err != nil {
		logger.Warningf("ignoring manifest: %v", err)
		return module.NewResolver(nil)
	}
	return module.NewResolver(m.ResolvePaths(filepath.Dir(p)))
}
