// Package server provides the loxvm language server.
package server

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	"github.com/chazu/loxvm/pkg/bytecode"
	"github.com/chazu/loxvm/pkg/scanner"

	_ "github.com/tliron/commonlog/simple"
)

const lspName = "loxvm-lsp"

// LspServer publishes scanner diagnostics and token information for Lox
// documents.
type LspServer struct {
	mu   sync.Mutex
	docs map[string]string // URI → full document content

	handler protocol.Handler
	server  *glspserver.Server
	log     commonlog.Logger
	version string
}

// NewLSP creates a new LSP server.
func NewLSP() *LspServer {
	s := &LspServer{
		docs:    make(map[string]string),
		log:     commonlog.GetLogger("loxvm.lsp"),
		version: "0.1.0",
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
	s.log.Info("loxvm LSP initializing")

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
	s.mu.Lock()
	s.docs = make(map[string]string)
	s.mu.Unlock()
	return nil
}

func (s *LspServer) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	return nil
}

// --- Document synchronization ---

func (s *LspServer) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := params.TextDocument.URI
	text := params.TextDocument.Text

	s.setDocument(uri, text)
	s.publishDiagnostics(ctx, uri, text)
	return nil
}

func (s *LspServer) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := params.TextDocument.URI

	// With Full sync, the last change event contains the full text
	if len(params.ContentChanges) > 0 {
		last := params.ContentChanges[len(params.ContentChanges)-1]
		if whole, ok := last.(protocol.TextDocumentContentChangeEventWhole); ok {
			s.setDocument(uri, whole.Text)
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

func (s *LspServer) setDocument(uri protocol.DocumentUri, text string) {
	s.mu.Lock()
	s.docs[string(uri)] = text
	s.mu.Unlock()
}

func (s *LspServer) document(uri protocol.DocumentUri) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	text, ok := s.docs[string(uri)]
	return text, ok
}

// --- Language features ---

func (s *LspServer) textDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	text, ok := s.document(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}

	prefix := extractPrefix(text, params.Position)
	if prefix == "" {
		return nil, nil
	}
	return complete(text, prefix), nil
}

func (s *LspServer) textDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	text, ok := s.document(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	return hover(text, params.Position), nil
}

// complete offers keywords, then identifiers from the document, that start
// with prefix.
func complete(text, prefix string) []protocol.CompletionItem {
	var items []protocol.CompletionItem

	for _, kw := range scanner.Keywords() {
		if strings.HasPrefix(kw, prefix) && kw != prefix {
			kind := protocol.CompletionItemKindKeyword
			detail := "keyword"
			kwCopy := kw
			items = append(items, protocol.CompletionItem{
				Label:      kw,
				Kind:       &kind,
				Detail:     &detail,
				InsertText: &kwCopy,
			})
		}
	}

	// Identifiers come from a best-effort scan; a document with scan errors
	// still completes keywords.
	if tokens, err := scanner.Scan(text); err == nil {
		seen := make(map[string]bool)
		var names []string
		for _, tok := range tokens {
			if tok.Type != scanner.TokenIdentifier || tok.Literal == prefix || seen[tok.Literal] {
				continue
			}
			if strings.HasPrefix(tok.Literal, prefix) {
				seen[tok.Literal] = true
				names = append(names, tok.Literal)
			}
		}
		sort.Strings(names)
		for _, name := range names {
			kind := protocol.CompletionItemKindVariable
			detail := "identifier"
			nameCopy := name
			items = append(items, protocol.CompletionItem{
				Label:      name,
				Kind:       &kind,
				Detail:     &detail,
				InsertText: &nameCopy,
			})
		}
	}

	// Limit results
	const maxItems = 100
	if len(items) > maxItems {
		items = items[:maxItems]
	}

	return items
}

// operatorOpcodes lists the instructions an operator token compiles to.
var operatorOpcodes = map[scanner.TokenType][]bytecode.Opcode{
	scanner.TokenMinus: {bytecode.OpNegate, bytecode.OpSubtract},
	scanner.TokenPlus:  {bytecode.OpAdd},
	scanner.TokenStar:  {bytecode.OpMultiply},
	scanner.TokenSlash: {bytecode.OpDivide},
}

// hover describes the token under pos.
func hover(text string, pos protocol.Position) *protocol.Hover {
	tok, rng, ok := tokenAt(text, pos)
	if !ok {
		return nil
	}

	var b strings.Builder
	switch {
	case tok.Type.IsKeyword():
		fmt.Fprintf(&b, "**%s** keyword", tok.Literal)
	case tok.Type == scanner.TokenNumber:
		fmt.Fprintf(&b, "**number** `%s`", bytecode.FormatValue(tok.Number))
	case tok.Type == scanner.TokenString:
		fmt.Fprintf(&b, "**string** (%d bytes)", len(tok.Literal))
	case tok.Type == scanner.TokenIdentifier:
		fmt.Fprintf(&b, "**identifier** `%s`", tok.Literal)
	default:
		fmt.Fprintf(&b, "`%s`", tok.Type)
	}

	if ops, ok := operatorOpcodes[tok.Type]; ok {
		names := make([]string, len(ops))
		for i, op := range ops {
			names[i] = op.String()
		}
		fmt.Fprintf(&b, "\n\nOpcodes: %s", strings.Join(names, ", "))
	}

	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: b.String(),
		},
		Range: &rng,
	}
}

// tokenAt scans text up to pos and returns the token covering it.
// Whitespace and comments never match; bad characters are skipped.
func tokenAt(text string, pos protocol.Position) (scanner.Token, protocol.Range, bool) {
	sc := scanner.New(text)
	for sc.More() {
		startLine, startCol := sc.Pos()
		tok, err := sc.Next()
		endLine, endCol := sc.Pos()

		start := protocol.Position{Line: protocol.UInteger(startLine - 1), Character: protocol.UInteger(startCol)}
		end := protocol.Position{Line: protocol.UInteger(endLine - 1), Character: protocol.UInteger(endCol)}
		if before(pos, start) {
			break
		}
		if !before(pos, end) {
			continue
		}
		if err != nil || tok.Type == scanner.TokenWhitespace || tok.Type == scanner.TokenComment {
			break
		}
		return tok, protocol.Range{Start: start, End: end}, true
	}
	return scanner.Token{}, protocol.Range{}, false
}

func before(a, b protocol.Position) bool {
	return a.Line < b.Line || a.Line == b.Line && a.Character < b.Character
}

// --- Diagnostics ---

// diagnostics converts scan errors in text to LSP diagnostics.
func diagnostics(text string) []protocol.Diagnostic {
	_, err := scanner.Scan(text)
	if err == nil {
		return []protocol.Diagnostic{}
	}

	var scanErrs scanner.ScanErrors
	if !errors.As(err, &scanErrs) {
		scanErrs = scanner.ScanErrors{{Line: 1, Message: err.Error()}}
	}

	severity := protocol.DiagnosticSeverityError
	source := lspName
	out := make([]protocol.Diagnostic, 0, len(scanErrs))
	for _, se := range scanErrs {
		line := protocol.UInteger(max(se.Line-1, 0))
		col := protocol.UInteger(se.Column)
		out = append(out, protocol.Diagnostic{
			Range: protocol.Range{
				Start: protocol.Position{Line: line, Character: col},
				End:   protocol.Position{Line: line, Character: col + 1},
			},
			Severity: &severity,
			Source:   &source,
			Message:  se.Message,
		})
	}
	return out
}

func (s *LspServer) publishDiagnostics(ctx *glsp.Context, uri protocol.DocumentUri, text string) {
	diags := diagnostics(text)
	if len(diags) > 0 {
		s.log.Debugf("%s: %d scan errors", uri, len(diags))
	}

	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diags,
	})
}

// --- Text extraction helpers ---

// extractPrefix returns the word fragment before the cursor for completion.
func extractPrefix(text string, pos protocol.Position) string {
	lines := strings.Split(text, "\n")
	if int(pos.Line) >= len(lines) {
		return ""
	}
	line := lines[pos.Line]
	col := int(pos.Character)
	if col > len(line) {
		col = len(line)
	}

	// Walk backwards from cursor to find the start of the identifier
	start := col
	for start > 0 && isWordByte(line[start-1]) {
		start--
	}

	if start == col {
		return ""
	}

	return line[start:col]
}

func isWordByte(c byte) bool {
	ch := rune(c)
	return unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '_'
}

func boolPtr(b bool) *bool {
	return &b
}
