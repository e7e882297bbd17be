package lang

import (
	"github.com/smacker/go-tree-sitter/rust"

	"github.com/phobologic/seesoft/internal/model"
)

func init() {
	Languages["rust"] = &Language{
		Name:       "rust",
		Extensions: []string{".rs"},
		lang:       rust.GetLanguage(),
		Classify: byType(map[string]model.Category{
			"use_declaration":          model.Require,
			"extern_crate_declaration": model.Require,
			"mod_item":                 model.Require,
			"function_item":            model.Function,
			"closure_expression":       model.Function,
			"macro_definition":         model.Function,
			"struct_item":              model.Interface,
			"enum_item":                model.Interface,
			"trait_item":               model.Interface,
			"impl_item":                model.Interface,
			"type_item":                model.Interface,
			"union_item":               model.Interface,
			"let_declaration":          model.Variable,
			"const_item":               model.Variable,
			"static_item":              model.Variable,
			"expression_statement":     model.Other,
			"macro_invocation":         model.Other,
		}),
	}
}
