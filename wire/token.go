package wire

import (
	"fmt"
	"io"
)

// TokenKind identifies the lexical category of a Token.
type TokenKind int

const (
	// TokenAtom is a bare sequence of atom-chars.
	TokenAtom TokenKind = iota
	// TokenString is the decoded content of a quoted string or literal.
	TokenString
	// TokenNumber is a sequence of digits. An atom that starts with a digit
	// but holds other characters (e.g. "1:5") is a TokenAtom.
	TokenNumber
	// TokenSP is a single space separator.
	TokenSP
	// TokenCRLF is the line terminator.
	TokenCRLF
	// TokenListStart is '('.
	TokenListStart
	// TokenListEnd is ')'.
	TokenListEnd
	// TokenNil is the literal atom NIL.
	TokenNil
	// TokenSpecial is any single byte from the tokenizer's configured
	// specials set that isn't handled by one of the other kinds (e.g. ']'
	// when scanning inside a response-code bracket).
	TokenSpecial
)

func (k TokenKind) String() string {
	switch k {
	case TokenAtom:
		return "atom"
	case TokenString:
		return "string"
	case TokenNumber:
		return "number"
	case TokenSP:
		return "SP"
	case TokenCRLF:
		return "CRLF"
	case TokenListStart:
		return "("
	case TokenListEnd:
		return ")"
	case TokenNil:
		return "NIL"
	case TokenSpecial:
		return "special"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Token is a single lexical unit produced by the L2 scanner. IsLiteral is
// set only for TokenString values that came from a wire literal; the
// literal's bytes are read in full into Value.
type Token struct {
	Kind  TokenKind
	Value string
	// IsLiteral indicates Value came from a {n}/{n+}/~{n} literal rather
	// than an atom or quoted string.
	IsLiteral bool
}

// Tokenizer is the explicit L2 scanning layer sitting on top of a Decoder's
// byte-level reads. It provides one-token push-back so an L3 parser can
// peek ahead (e.g. to distinguish a bare atom from the start of a response
// code) without the decoder itself needing lookahead state.
type Tokenizer struct {
	dec *Decoder

	pushed   []Token
	specials map[byte]bool
}

// NewTokenizer wraps dec with token-level scanning. specials, if non-nil,
// overrides which bytes besides the RFC 3501 atom-specials are treated as
// single-byte TokenSpecial tokens (used by response-code parsing, where ']'
// must terminate an atom that would otherwise absorb it).
func NewTokenizer(dec *Decoder, specials map[byte]bool) *Tokenizer {
	if specials == nil {
		specials = map[byte]bool{']': true}
	}
	return &Tokenizer{dec: dec, specials: specials}
}

// NewTokenizerFromReader is a convenience constructor for tests and callers
// that don't already hold a Decoder.
func NewTokenizerFromReader(r io.Reader) *Tokenizer {
	return NewTokenizer(NewDecoder(r), nil)
}

// Unget pushes a token back so the next Next call returns it again.
// Repeated pushes build a LIFO stack: interleaved Next/Unget pairs always
// observe the most recently pushed token first.
func (t *Tokenizer) Unget(tok Token) {
	t.pushed = append(t.pushed, tok)
}

// Next returns the next token. It consults the push-back stack before
// reading fresh bytes.
func (t *Tokenizer) Next() (Token, error) {
	if n := len(t.pushed); n > 0 {
		tok := t.pushed[n-1]
		t.pushed = t.pushed[:n-1]
		return tok, nil
	}
	return t.scan()
}

func (t *Tokenizer) scan() (Token, error) {
	b, err := t.dec.PeekByte()
	if err != nil {
		return Token{}, err
	}

	switch {
	case b == ' ':
		_, _ = t.dec.r.ReadByte()
		return Token{Kind: TokenSP, Value: " "}, nil
	case b == '\r':
		if err := t.dec.ReadCRLF(); err != nil {
			return Token{}, err
		}
		return Token{Kind: TokenCRLF, Value: "\r\n"}, nil
	case b == '(':
		_, _ = t.dec.r.ReadByte()
		return Token{Kind: TokenListStart, Value: "("}, nil
	case b == ')':
		_, _ = t.dec.r.ReadByte()
		return Token{Kind: TokenListEnd, Value: ")"}, nil
	case b == '\\':
		// Flag atom such as \Seen, or the \* permanent-flags wildcard; the
		// backslash is kept in Value.
		_, _ = t.dec.r.ReadByte()
		if next, err := t.dec.PeekByte(); err == nil && next == '*' {
			_, _ = t.dec.r.ReadByte()
			return Token{Kind: TokenAtom, Value: `\*`}, nil
		}
		atom, err := t.dec.ReadAtom()
		if err != nil {
			return Token{}, err
		}
		return Token{Kind: TokenAtom, Value: "\\" + atom}, nil
	case t.specials[b]:
		_, _ = t.dec.r.ReadByte()
		return Token{Kind: TokenSpecial, Value: string(b)}, nil
	case b == '"':
		s, err := t.dec.ReadQuotedString()
		if err != nil {
			return Token{}, err
		}
		return Token{Kind: TokenString, Value: s}, nil
	case b == '{' || b == '~':
		info, err := t.dec.ReadLiteralInfo()
		if err != nil {
			return Token{}, err
		}
		if info.NonSync && t.dec.ContinuationRequest == nil {
			// No handshake hook configured: the caller is expected to have
			// already sent any required "+ OK" before invoking Next again
			// for LITERAL+ (non-synchronizing) forms, so this is a no-op
			// guard rather than a protocol violation.
			_ = info.NonSync
		} else if !info.NonSync && t.dec.ContinuationRequest != nil {
			if err := t.dec.ContinuationRequest(); err != nil {
				return Token{}, err
			}
		}
		data := make([]byte, info.Size)
		if _, err := io.ReadFull(t.dec.r, data); err != nil {
			return Token{}, err
		}
		return Token{Kind: TokenString, Value: string(data), IsLiteral: true}, nil
	case b >= '0' && b <= '9':
		atom, err := t.dec.ReadAtom()
		if err != nil {
			return Token{}, err
		}
		if strEqualFoldASCII(atom, "NIL") {
			return Token{Kind: TokenNil, Value: atom}, nil
		}
		for i := 0; i < len(atom); i++ {
			if atom[i] < '0' || atom[i] > '9' {
				return Token{Kind: TokenAtom, Value: atom}, nil
			}
		}
		return Token{Kind: TokenNumber, Value: atom}, nil
	default:
		atom, err := t.dec.ReadAtom()
		if err != nil {
			return Token{}, err
		}
		if strEqualFoldASCII(atom, "NIL") {
			return Token{Kind: TokenNil, Value: atom}, nil
		}
		return Token{Kind: TokenAtom, Value: atom}, nil
	}
}

func strEqualFoldASCII(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'a' <= ca && ca <= 'z' {
			ca -= 'a' - 'A'
		}
		if 'a' <= cb && cb <= 'z' {
			cb -= 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// Buffered reports how many bytes the underlying decoder has already
// buffered and can be read without blocking.
func (t *Tokenizer) Buffered() int {
	return t.dec.Buffered()
}
