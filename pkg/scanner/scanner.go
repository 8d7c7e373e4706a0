// Package scanner tokenizes Lox source text.
//
// Scan is the whole contract: it returns either the token stream, with
// whitespace and comments removed and a trailing EOF, or every scan error
// found, each tagged with its line. A bad token does not stop the scan.
package scanner

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chazu/loxvm/pkg/buffer"
)

// ScanError is a single problem found while scanning.
type ScanError struct {
	Line    int
	Column  int
	Message string
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("[line %d] Error: %s", e.Line, e.Message)
}

// ScanErrors collects every error from one Scan call.
type ScanErrors []*ScanError

func (errs ScanErrors) Error() string {
	lines := make([]string, len(errs))
	for i, e := range errs {
		lines[i] = e.Error()
	}
	return strings.Join(lines, "\n")
}

// Scanner walks source one byte at a time.
type Scanner struct {
	source    string
	start     int // offset where the current token began
	pos       int // next byte to read
	line      int // current line (1-based)
	lineStart int // offset of current line start
}

// New creates a scanner over source.
func New(source string) *Scanner {
	return &Scanner{source: source, line: 1}
}

// Scan tokenizes source. Each call is independent.
func Scan(source string) ([]Token, error) {
	return New(source).ScanAll()
}

// ScanAll scans the rest of the input. On success the result ends in EOF
// and holds no whitespace or comment tokens; otherwise the returned error
// is a ScanErrors.
func (s *Scanner) ScanAll() ([]Token, error) {
	tokens := buffer.New[Token]()
	errs := buffer.New[*ScanError]()
	defer tokens.Release()
	defer errs.Release()

	for s.canScan() {
		tok, err := s.Next()
		if err != nil {
			errs.Push(err)
			continue
		}
		tokens.Push(tok)
	}
	tokens.Push(Token{Type: TokenEOF, Line: s.line, Column: s.pos - s.lineStart})

	if errs.Len() > 0 {
		out := make(ScanErrors, 0, errs.Len())
		for e := range errs.Drain() {
			out = append(out, e)
		}
		return nil, out
	}

	out := make([]Token, 0, tokens.Len())
	for tok := range tokens.Drain() {
		if tok.Type == TokenWhitespace || tok.Type == TokenComment {
			continue
		}
		out = append(out, tok)
	}
	return out, nil
}

// More reports whether input remains.
func (s *Scanner) More() bool {
	return s.canScan()
}

// Pos returns the line and column of the next unread byte.
func (s *Scanner) Pos() (line, col int) {
	return s.line, s.pos - s.lineStart
}

func (s *Scanner) canScan() bool {
	return s.pos < len(s.source)
}

func (s *Scanner) peek() byte {
	if !s.canScan() {
		return 0
	}
	return s.source[s.pos]
}

func (s *Scanner) advance() byte {
	c := s.source[s.pos]
	s.pos++
	if c == '\n' {
		s.line++
		s.lineStart = s.pos
	}
	return c
}

// match consumes the next byte if it equals want.
func (s *Scanner) match(want byte) bool {
	if s.peek() != want || !s.canScan() {
		return false
	}
	s.advance()
	return true
}

// Next scans one token, including whitespace and comments. It must only be
// called while More reports true.
func (s *Scanner) Next() (Token, *ScanError) {
	s.start = s.pos
	line, col := s.line, s.pos-s.lineStart
	tok := func(t TokenType) (Token, *ScanError) {
		return Token{Type: t, Literal: s.source[s.start:s.pos], Line: line, Column: col}, nil
	}

	c := s.advance()
	switch c {
	case '(':
		return tok(TokenLParen)
	case ')':
		return tok(TokenRParen)
	case '{':
		return tok(TokenLBrace)
	case '}':
		return tok(TokenRBrace)
	case ',':
		return tok(TokenComma)
	case '.':
		return tok(TokenDot)
	case '-':
		return tok(TokenMinus)
	case '+':
		return tok(TokenPlus)
	case ';':
		return tok(TokenSemicolon)
	case '*':
		return tok(TokenStar)

	case '!':
		return tok(s.either('=', TokenBangEqual, TokenBang))
	case '=':
		return tok(s.either('=', TokenEqualEqual, TokenEqual))
	case '<':
		return tok(s.either('=', TokenLessEqual, TokenLess))
	case '>':
		return tok(s.either('=', TokenGreaterEqual, TokenGreater))

	case '/':
		if !s.match('/') {
			return tok(TokenSlash)
		}
		for s.canScan() && s.peek() != '\n' {
			s.advance()
		}
		return tok(TokenComment)

	case ' ', '\t', '\r', '\n':
		return tok(TokenWhitespace)

	case '"':
		return s.readString(line, col)
	}

	switch {
	case isDigit(c):
		return s.readNumber(line, col)
	case isAlphaNumeric(c):
		return s.readIdentifier(line, col)
	}

	return Token{}, &ScanError{Line: line, Column: col, Message: fmt.Sprintf("unexpected character '%c'", c)}
}

// either implements one-character lookahead for two-character operators.
func (s *Scanner) either(next byte, matched, fallback TokenType) TokenType {
	if s.match(next) {
		return matched
	}
	return fallback
}

// readString scans a string literal after its opening quote. Strings may
// span lines.
func (s *Scanner) readString(line, col int) (Token, *ScanError) {
	for s.canScan() && s.peek() != '"' {
		s.advance()
	}
	if !s.canScan() {
		return Token{}, &ScanError{
			Line:   s.line,
			Column: s.pos - s.lineStart,
			Message: fmt.Sprintf("unterminated string literal between columns %d-%d: %s",
				s.start, s.pos, s.source[s.start:s.pos]),
		}
	}
	s.advance() // closing quote
	return Token{Type: TokenString, Literal: s.source[s.start+1 : s.pos-1], Line: line, Column: col}, nil
}

// readNumber scans digits with at most one decimal point.
func (s *Scanner) readNumber(line, col int) (Token, *ScanError) {
	seenDot := false
	for s.canScan() {
		c := s.peek()
		if c == '.' {
			if seenDot {
				break
			}
			seenDot = true
		} else if !isDigit(c) {
			break
		}
		s.advance()
	}

	lit := s.source[s.start:s.pos]
	n, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return Token{}, &ScanError{Line: line, Column: col, Message: fmt.Sprintf("invalid number literal %q", lit)}
	}
	return Token{Type: TokenNumber, Literal: lit, Number: n, Line: line, Column: col}, nil
}

// readIdentifier scans an identifier or reserved word.
func (s *Scanner) readIdentifier(line, col int) (Token, *ScanError) {
	for s.canScan() && isAlphaNumeric(s.peek()) {
		s.advance()
	}

	lit := s.source[s.start:s.pos]
	typ := TokenIdentifier
	if kw, ok := reservedWords[lit]; ok {
		typ = kw
	}
	return Token{Type: typ, Literal: lit, Line: line, Column: col}, nil
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isAlphaNumeric(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || isDigit(c) || c == '_'
}
