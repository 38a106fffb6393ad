package relabel

import (
	"strings"

	"github.com/platformbuilds/grafana-relabel/internal/models"
)

// matcherToken is one parsed `key<op>"value"` run inside an expression.
// start/end are byte offsets into the scanned string; end points one past
// the closing quote.
type matcherToken struct {
	key   string
	op    string
	quote byte
	value string
	start int
	end   int
}

// Rewrite scans expr left to right for label-matcher tokens and replaces
// every token whose key and value both equal the request's old pair with
// newLabel<op><quote>newValue<quote>, keeping the original operator and
// quote character. Everything outside matched tokens passes through
// byte-for-byte. Matches never overlap and substituted output is not
// re-scanned, so a rewrite cannot cascade into itself.
func Rewrite(expr string, req models.RewriteRequest) (string, bool) {
	var out strings.Builder
	changed := false
	copied := 0

	i := 0
	for i < len(expr) {
		if !isIdentStart(expr[i]) {
			i++
			continue
		}
		tok, ok := scanMatcher(expr, i)
		if !ok {
			// Not a matcher here; a token may still start one byte later
			// (e.g. the `bla` inside `x-bla="bli"`).
			i++
			continue
		}
		if tok.key == req.OldLabel && tok.value == req.OldValue {
			out.WriteString(expr[copied:tok.start])
			out.WriteString(req.NewLabel)
			out.WriteString(tok.op)
			out.WriteByte(tok.quote)
			out.WriteString(req.NewValue)
			out.WriteByte(tok.quote)
			copied = tok.end
			changed = true
		}
		// A fully parsed token is consumed whether or not it was replaced,
		// so identifiers inside it are never reconsidered as new keys.
		i = tok.end
	}

	if !changed {
		return expr, false
	}
	out.WriteString(expr[copied:])
	return out.String(), true
}

// scanMatcher parses IDENT \s* OP \s* QUOTE VALUE QUOTE beginning exactly at
// start. The identifier is the maximal run from start; the value runs to the
// next occurrence of the opening quote character. Mismatched or unterminated
// quotes fail the parse.
func scanMatcher(s string, start int) (matcherToken, bool) {
	i := start
	for i < len(s) && isIdentChar(s[i]) {
		i++
	}
	key := s[start:i]

	i = skipSpace(s, i)
	op := scanOperator(s, i)
	if op == "" {
		return matcherToken{}, false
	}
	i = skipSpace(s, i+len(op))

	if i >= len(s) || (s[i] != '"' && s[i] != '\'') {
		return matcherToken{}, false
	}
	quote := s[i]
	i++
	valueStart := i
	for i < len(s) && s[i] != quote {
		i++
	}
	if i >= len(s) {
		return matcherToken{}, false
	}

	return matcherToken{
		key:   key,
		op:    op,
		quote: quote,
		value: s[valueStart:i],
		start: start,
		end:   i + 1,
	}, true
}

// scanOperator returns the longest operator at s[i:]. Two-character
// operators must win over the bare `=` or `key=~"v"` would parse as `key=`
// followed by stray `~`.
func scanOperator(s string, i int) string {
	for _, op := range []string{"=~", "!~", "!="} {
		if strings.HasPrefix(s[i:], op) {
			return op
		}
	}
	if i < len(s) && s[i] == '=' {
		return "="
	}
	return ""
}

func skipSpace(s string, i int) int {
	for i < len(s) {
		switch s[i] {
		case ' ', '\t', '\n', '\r', '\v', '\f':
			i++
		default:
			return i
		}
	}
	return i
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
