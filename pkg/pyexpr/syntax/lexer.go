package syntax

import (
	"strconv"

	pyerrors "github.com/randalmurphal/pyexpr/pkg/pyexpr/errors"
)

// keywords maps reserved words to their token IDs.
var keywords = map[string]string{
	"and":   "and",
	"or":    "or",
	"not":   "not",
	"in":    "in",
	"is":    "is",
	"None":  IDConstant,
	"True":  IDConstant,
	"False": IDConstant,
}

// twoCharOps are checked before single characters so "<=" never scans as "<".
var twoCharOps = []string{"==", "!=", "<>", "<=", ">="}

const singleCharOps = "()[]{},.=:<>+-*/"

// Tokenize scans src into tokens terminated by an (end) token.
//
// String literals may use single or double quotes and have no escape
// sequences: the content runs verbatim up to the first matching quote.
func Tokenize(src string) ([]Token, error) {
	l := &lexer{src: src, tokens: make([]Token, 0, len(src)/3+1)}
	if err := l.run(); err != nil {
		return nil, err
	}
	return l.tokens, nil
}

type lexer struct {
	src    string
	pos    int
	tokens []Token
}

func (l *lexer) run() error {
	for {
		l.skipSpace()
		if l.pos >= len(l.src) {
			l.emit(IDEnd, nil, l.pos)
			return nil
		}

		c := l.src[l.pos]
		switch {
		case c == '"' || c == '\'':
			if err := l.scanString(c); err != nil {
				return err
			}
		case isDigit(c) || (c == '.' && l.pos+1 < len(l.src) && isDigit(l.src[l.pos+1])):
			if err := l.scanNumber(); err != nil {
				return err
			}
		case isNameStart(c):
			l.scanWord()
		default:
			if !l.scanOperator() {
				return pyerrors.Syntax(l.pos, "unexpected character %q", c)
			}
		}
	}
}

func (l *lexer) emit(id string, value any, pos int) {
	l.tokens = append(l.tokens, Token{ID: id, Value: value, Pos: pos})
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.src) && isSpace(l.src[l.pos]) {
		l.pos++
	}
}

func (l *lexer) scanString(quote byte) error {
	start := l.pos
	l.pos++
	for l.pos < len(l.src) && l.src[l.pos] != quote {
		l.pos++
	}
	if l.pos >= len(l.src) {
		return pyerrors.Syntax(start, "unterminated string literal")
	}
	l.emit(IDString, l.src[start+1:l.pos], start)
	l.pos++
	return nil
}

func (l *lexer) scanNumber() error {
	start := l.pos
	for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
		l.pos++
	}
	if l.pos < len(l.src) && l.src[l.pos] == '.' {
		l.pos++
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.pos++
		}
	}
	if l.pos < len(l.src) && isNameStart(l.src[l.pos]) {
		return pyerrors.Syntax(start, "invalid number literal %q", l.src[start:l.pos+1])
	}
	f, err := strconv.ParseFloat(l.src[start:l.pos], 64)
	if err != nil {
		return pyerrors.Syntax(start, "invalid number literal %q", l.src[start:l.pos])
	}
	l.emit(IDNumber, f, start)
	return nil
}

func (l *lexer) scanWord() {
	start := l.pos
	word := l.readName()

	id, ok := keywords[word]
	if !ok {
		l.emit(IDName, word, start)
		return
	}

	switch id {
	case IDConstant:
		l.emit(IDConstant, word, start)
	case "not":
		if l.followedBy("in") {
			l.emit("not in", nil, start)
			return
		}
		l.emit("not", nil, start)
	case "is":
		if l.followedBy("not") {
			l.emit("is not", nil, start)
			return
		}
		l.emit("is", nil, start)
	default:
		l.emit(id, nil, start)
	}
}

// followedBy consumes the next word if it equals want.
func (l *lexer) followedBy(want string) bool {
	save := l.pos
	l.skipSpace()
	if l.pos < len(l.src) && isNameStart(l.src[l.pos]) && l.readName() == want {
		return true
	}
	l.pos = save
	return false
}

func (l *lexer) readName() string {
	start := l.pos
	for l.pos < len(l.src) && isNamePart(l.src[l.pos]) {
		l.pos++
	}
	return l.src[start:l.pos]
}

func (l *lexer) scanOperator() bool {
	if l.pos+2 <= len(l.src) {
		two := l.src[l.pos : l.pos+2]
		for _, op := range twoCharOps {
			if two == op {
				l.emit(op, nil, l.pos)
				l.pos += 2
				return true
			}
		}
	}
	c := l.src[l.pos]
	for i := 0; i < len(singleCharOps); i++ {
		if singleCharOps[i] == c {
			l.emit(string(c), nil, l.pos)
			l.pos++
			return true
		}
	}
	return false
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isNameStart(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}

func isNamePart(c byte) bool {
	return isNameStart(c) || isDigit(c)
}
