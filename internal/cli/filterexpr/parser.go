// Package filterexpr parses the CLI's textual filter syntax into attribute
// maps.
//
//	title__contains="Ancillary",pages__gt=300 | author__name="Ted Chiang"
//
// Terms joined by "," form one map (AND); maps joined by "|" are
// alternatives (OR). Values are double-quoted strings, numbers, true, false,
// null or bare words.
package filterexpr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/satishbabariya/queryset/internal/core/query/domain"
)

var filterLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "String", Pattern: `"(?:\\.|[^"\\])*"`},
	{Name: "Number", Pattern: `[-+]?\d+(?:\.\d+)?`},
	{Name: "Ident", Pattern: `[\p{L}_][\p{L}\p{N}_]*`},
	{Name: "Punct", Pattern: `[|,=]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

type rawExpr struct {
	Groups []*rawGroup `@@ ( "|" @@ )*`
}

type rawGroup struct {
	Terms []*rawTerm `@@ ( "," @@ )*`
}

type rawTerm struct {
	Pos   lexer.Position
	Key   string    `@Ident "="`
	Value *rawValue `@@`
}

type rawValue struct {
	String *string `  @String`
	Number *string `| @Number`
	Word   *string `| @Ident`
}

var parser = participle.MustBuild[rawExpr](
	participle.Lexer(filterLexer),
	participle.Elide("Whitespace"),
	participle.Unquote("String"),
)

// Parse parses expr into one map per alternative. A blank expression yields
// no maps.
func Parse(expr string) ([]domain.Q, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, nil
	}

	raw, err := parser.ParseString("filter", expr)
	if err != nil {
		return nil, fmt.Errorf("invalid filter %q: %w", expr, err)
	}

	out := make([]domain.Q, len(raw.Groups))
	for i, g := range raw.Groups {
		q := make(domain.Q, len(g.Terms))
		for _, t := range g.Terms {
			if _, dup := q[t.Key]; dup {
				return nil, fmt.Errorf("invalid filter %q: %s: %q given twice", expr, t.Pos, t.Key)
			}
			v, err := t.Value.value()
			if err != nil {
				return nil, fmt.Errorf("invalid filter %q: %s: %w", expr, t.Pos, err)
			}
			q[t.Key] = v
		}
		out[i] = q
	}
	return out, nil
}

func (v *rawValue) value() (any, error) {
	switch {
	case v.String != nil:
		return *v.String, nil
	case v.Number != nil:
		if n, err := strconv.ParseInt(*v.Number, 10, 64); err == nil {
			return n, nil
		}
		return strconv.ParseFloat(*v.Number, 64)
	default:
		switch *v.Word {
		case "true":
			return true, nil
		case "false":
			return false, nil
		case "null":
			return nil, nil
		}
		return *v.Word, nil
	}
}
