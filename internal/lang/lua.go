package lang

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/lua"

	"github.com/phobologic/seesoft/internal/model"
)

func init() {
	Languages["lua"] = &Language{
		Name:       "lua",
		Extensions: []string{".lua"},
		lang:       lua.GetLanguage(),
		Classify:   luaClassify,
	}
}

func luaClassify(node *sitter.Node, source []byte) model.Category {
	switch node.Type() {
	case "variable_declaration", "local_variable_declaration", "assignment_statement":
		if callsRequire(node, source) {
			return model.Require
		}
		return model.Variable
	case "function_statement", "function":
		return model.Function
	case "function_call":
		if callsRequire(node, source) {
			return model.Require
		}
		if atTopLevel(node) {
			return model.Other
		}
	case "module_return_statement":
		return model.Interface
	case "return_statement":
		if atTopLevel(node) {
			return model.Interface
		}
	}
	return model.None
}
