package lang

import (
	"github.com/smacker/go-tree-sitter/golang"

	"github.com/phobologic/seesoft/internal/model"
)

func init() {
	Languages["go"] = &Language{
		Name:       "go",
		Extensions: []string{".go"},
		lang:       golang.GetLanguage(),
		Classify: byType(map[string]model.Category{
			"package_clause":        model.Other,
			"import_declaration":    model.Require,
			"function_declaration":  model.Function,
			"method_declaration":    model.Function,
			"func_literal":          model.Function,
			"type_declaration":      model.Interface,
			"var_declaration":       model.Variable,
			"const_declaration":     model.Variable,
			"short_var_declaration": model.Variable,
			"expression_statement":  model.Other,
		}),
	}
}
