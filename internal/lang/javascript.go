package lang

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"

	"github.com/phobologic/seesoft/internal/model"
)

func init() {
	Languages["javascript"] = &Language{
		Name:       "javascript",
		Extensions: []string{".js", ".mjs", ".cjs", ".jsx"},
		lang:       javascript.GetLanguage(),
		Classify:   javascriptClassify,
	}
}

func javascriptClassify(node *sitter.Node, source []byte) model.Category {
	switch node.Type() {
	case "import_statement":
		return model.Require
	case "function_declaration", "generator_function_declaration", "method_definition",
		"arrow_function", "function_expression", "function", "generator_function":
		return model.Function
	case "export_statement", "class_declaration", "class":
		return model.Interface
	case "lexical_declaration", "variable_declaration":
		if callsRequire(node, source) {
			return model.Require
		}
		return model.Variable
	case "expression_statement":
		if callsRequire(node, source) {
			return model.Require
		}
		return model.Other
	}
	return model.None
}
