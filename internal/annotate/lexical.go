package annotate

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"

	"github.com/phobologic/seesoft/internal/model"
)

// Lexical tokenizes text with the chroma lexer matching path (or guessed
// from the content) and emits one flat node per run of tokens that share a
// category. Comments and whitespace are left unannotated.
func Lexical(path, text string) ([]model.AnnotationNode, error) {
	if len(text) == 0 {
		return nil, nil
	}

	lexer := lexers.Match(path)
	if lexer == nil {
		lexer = lexers.Analyse(text)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}

	it, err := chroma.Coalesce(lexer).Tokenise(&chroma.TokeniseOptions{State: "root"}, text)
	if err != nil {
		return nil, fmt.Errorf("tokenising %s: %w", path, err)
	}

	total := utf8.RuneCountInString(text)
	var out []model.AnnotationNode
	pos := 0
	gap := 0 // blank runes since the last annotated token
	for tok := it(); tok != chroma.EOF; tok = it() {
		n := utf8.RuneCountInString(tok.Value)
		if pos+n > total {
			n = total - pos
		}
		if n <= 0 {
			break
		}

		cat := TokenCategory(tok)
		switch {
		case cat == model.None:
			if len(out) > 0 && gap >= 0 && isInlineBlank(tok.Value) {
				gap += n
			} else {
				gap = -1
			}
		case len(out) > 0 && gap >= 0 && out[len(out)-1].Category == cat:
			out[len(out)-1].Count += gap + n
			gap = 0
		default:
			out = append(out, model.AnnotationNode{Position: pos + 1, Count: n, Category: cat})
			gap = 0
		}
		pos += n
	}
	return out, nil
}

// TokenCategory maps a chroma token to an annotation category. Comments and
// whitespace map to None.
func TokenCategory(tok chroma.Token) model.Category {
	t := tok.Type
	switch {
	case t.InCategory(chroma.Comment):
		return model.None
	case strings.TrimSpace(tok.Value) == "":
		return model.None
	case t == chroma.KeywordNamespace || t == chroma.NameNamespace:
		return model.Require
	case t == chroma.NameFunction || t == chroma.NameFunctionMagic:
		return model.Function
	case t == chroma.NameClass || t == chroma.KeywordType || t == chroma.NameBuiltinPseudo:
		return model.Interface
	case variableTokens[t]:
		return model.Variable
	}
	return model.Other
}

var variableTokens = map[chroma.TokenType]bool{
	chroma.KeywordDeclaration:    true,
	chroma.NameVariable:          true,
	chroma.NameVariableAnonymous: true,
	chroma.NameVariableClass:     true,
	chroma.NameVariableGlobal:    true,
	chroma.NameVariableInstance:  true,
	chroma.NameVariableMagic:     true,
}

func isInlineBlank(s string) bool {
	return strings.Trim(s, " \t") == ""
}
