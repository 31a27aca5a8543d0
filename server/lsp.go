package server

import (
	"fmt"
	"strings"
	"sync"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	"github.com/chazu/worse/compiler"
	"github.com/chazu/worse/vm"

	_ "github.com/tliron/commonlog/simple"
)

const lspName = "worse-lsp"

var log = commonlog.GetLogger("worse.lsp")

// LspServer checks worse source documents as they are edited. It reports
// load errors as diagnostics and describes the token under the cursor.
type LspServer struct {
	mu   sync.Mutex
	docs map[string]string // URI → full document content

	handler protocol.Handler
	server  *glspserver.Server
	version string
}

// NewLSP creates a new LSP server.
func NewLSP(version string) *LspServer {
	s := &LspServer{
		docs:    make(map[string]string),
		version: version,
	}

	s.handler = protocol.Handler{
		Initialize:  s.initialize,
		Initialized: s.initialized,
		Shutdown:    s.shutdown,
		SetTrace:    s.setTrace,

		TextDocumentDidOpen:   s.textDocumentDidOpen,
		TextDocumentDidChange: s.textDocumentDidChange,
		TextDocumentDidClose:  s.textDocumentDidClose,

		TextDocumentCompletion: s.textDocumentCompletion,
		TextDocumentHover:      s.textDocumentHover,
	}

	s.server = glspserver.NewServer(&s.handler, lspName, false)

	return s
}

// Run starts the LSP server on stdio. Blocks until the client disconnects.
func (s *LspServer) Run() error {
	return s.server.RunStdio()
}

// --- LSP lifecycle handlers ---

func (s *LspServer) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	log.Info("worse LSP initializing")

	capabilities := s.handler.CreateServerCapabilities()

	syncKind := protocol.TextDocumentSyncKindFull
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    &syncKind,
	}

	capabilities.CompletionProvider = &protocol.CompletionOptions{}
	capabilities.HoverProvider = true

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lspName,
			Version: &s.version,
		},
	}, nil
}

func (s *LspServer) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

func (s *LspServer) shutdown(ctx *glsp.Context) error {
	log.Info("worse LSP shutting down")
	return nil
}

func (s *LspServer) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	return nil
}

// --- Document synchronization ---

func (s *LspServer) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := params.TextDocument.URI
	text := params.TextDocument.Text

	s.mu.Lock()
	s.docs[string(uri)] = text
	s.mu.Unlock()

	s.publishDiagnostics(ctx, uri, text)
	return nil
}

func (s *LspServer) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := params.TextDocument.URI

	// With Full sync, the last change event contains the full text
	if len(params.ContentChanges) > 0 {
		last := params.ContentChanges[len(params.ContentChanges)-1]
		if whole, ok := last.(protocol.TextDocumentContentChangeEventWhole); ok {
			s.mu.Lock()
			s.docs[string(uri)] = whole.Text
			s.mu.Unlock()

			s.publishDiagnostics(ctx, uri, whole.Text)
		}
	}
	return nil
}

func (s *LspServer) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI

	s.mu.Lock()
	delete(s.docs, string(uri))
	s.mu.Unlock()

	// Clear diagnostics for the closed document
	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: []protocol.Diagnostic{},
	})
	return nil
}

func (s *LspServer) document(uri protocol.DocumentUri) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	text, ok := s.docs[string(uri)]
	return text, ok
}

// --- Language features ---

func (s *LspServer) textDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	if _, ok := s.document(params.TextDocument.URI); !ok {
		return nil, nil
	}
	return primitiveCompletions(), nil
}

func (s *LspServer) textDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	text, ok := s.document(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	return hoverAt(text, params.Position), nil
}

// primitiveCompletions offers every primitive with a source spelling.
func primitiveCompletions() []protocol.CompletionItem {
	var items []protocol.CompletionItem
	kind := protocol.CompletionItemKindOperator
	for p := vm.Prim(0); p < vm.NumPrims; p++ {
		info := p.Info()
		if info.Reserved {
			continue
		}
		symbol := string(info.Symbol)
		detail := info.Name
		items = append(items, protocol.CompletionItem{
			Label:         symbol,
			Kind:          &kind,
			Detail:        &detail,
			Documentation: info.Law,
			InsertText:    &symbol,
		})
	}
	return items
}

// hoverAt describes the token under pos, or returns nil over whitespace,
// comments and unknown bytes.
func hoverAt(text string, pos protocol.Position) *protocol.Hover {
	offset, ok := offsetAt(text, pos)
	if !ok {
		return nil
	}
	l := compiler.NewLexer(text)
	for tok := l.NextToken(); tok.Type != compiler.TokenEOF; tok = l.NextToken() {
		if tok.Pos.Offset > offset {
			return nil
		}
		if tok.Type == compiler.TokenError || offset >= tok.Pos.Offset+len(tok.Literal) {
			continue
		}
		return &protocol.Hover{
			Contents: protocol.MarkupContent{
				Kind:  protocol.MarkupKindMarkdown,
				Value: describe(tok),
			},
			Range: &protocol.Range{
				Start: lspPosition(text, tok.Pos.Offset),
				End:   lspPosition(text, tok.Pos.Offset+len(tok.Literal)),
			},
		}
	}
	return nil
}

func describe(tok compiler.Token) string {
	switch tok.Type {
	case compiler.TokenPrimitive:
		p, _ := vm.PrimBySymbol(tok.Literal[0])
		info := p.Info()
		return fmt.Sprintf("**%s** `%c`\n\n`%s`", info.Name, info.Symbol, info.Law)
	case compiler.TokenLetter:
		c := tok.Literal[1]
		return fmt.Sprintf("numeral **%d** (byte %q)", c, c)
	case compiler.TokenNumber:
		var n uint64
		for _, d := range []byte(tok.Literal) {
			n = n*10 + uint64(d-'0')
			if n > 1<<32-1 {
				return fmt.Sprintf("numeral `%s` does not fit in 32 bits", tok.Literal)
			}
		}
		if n <= 0xff {
			return fmt.Sprintf("numeral **%d** (byte %q)", n, byte(n))
		}
		return fmt.Sprintf("numeral **%d**", n)
	case compiler.TokenApply:
		return "**application**: pops x, then y, and pushes x applied to y"
	}
	return tok.String()
}

// --- Diagnostics ---

func (s *LspServer) publishDiagnostics(ctx *glsp.Context, uri protocol.DocumentUri, text string) {
	diagnostics := diagnose(text)
	log.Debugf("%s: %d diagnostics", uri, len(diagnostics))
	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

// diagnose turns every load error in text into a diagnostic one byte wide.
func diagnose(text string) []protocol.Diagnostic {
	diagnostics := []protocol.Diagnostic{}
	for _, e := range compiler.Check(text) {
		severity := protocol.DiagnosticSeverityError
		source := lspName
		end := e.Pos.Offset
		if end < len(text) {
			end++
		}
		diagnostics = append(diagnostics, protocol.Diagnostic{
			Range: protocol.Range{
				Start: lspPosition(text, e.Pos.Offset),
				End:   lspPosition(text, end),
			},
			Severity: &severity,
			Source:   &source,
			Message:  e.Msg,
		})
	}
	return diagnostics
}

// --- Position conversion ---
//
// LSP counts characters in UTF-16 code units; the lexer counts bytes.

// lspPosition converts a byte offset into an LSP position.
func lspPosition(text string, offset int) protocol.Position {
	offset = min(offset, len(text))
	lineStart := strings.LastIndexByte(text[:offset], '\n') + 1
	line := strings.Count(text[:lineStart], "\n")
	return protocol.Position{
		Line:      protocol.UInteger(line),
		Character: protocol.UInteger(utf16Len(text[lineStart:offset])),
	}
}

// offsetAt converts an LSP position into a byte offset.
func offsetAt(text string, pos protocol.Position) (int, bool) {
	offset := 0
	for i := protocol.UInteger(0); i < pos.Line; i++ {
		nl := strings.IndexByte(text[offset:], '\n')
		if nl < 0 {
			return 0, false
		}
		offset += nl + 1
	}
	units := int(pos.Character)
	for units > 0 && offset < len(text) && text[offset] != '\n' {
		r, size := utf8.DecodeRuneInString(text[offset:])
		units -= utf16RuneLen(r)
		offset += size
	}
	return offset, true
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += utf16RuneLen(r)
	}
	return n
}

func utf16RuneLen(r rune) int {
	if utf16.IsSurrogate(r) || r < 0x10000 {
		return 1
	}
	return 2
}

func boolPtr(b bool) *bool {
	return &b
}
