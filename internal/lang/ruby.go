package lang

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/ruby"

	"github.com/phobologic/seesoft/internal/model"
)

func init() {
	Languages["ruby"] = &Language{
		Name:       "ruby",
		Extensions: []string{".rb"},
		lang:       ruby.GetLanguage(),
		Classify:   rubyClassify,
	}
}

var rubyLoaders = map[string]bool{
	"require":          true,
	"require_relative": true,
	"load":             true,
}

func rubyClassify(node *sitter.Node, source []byte) model.Category {
	switch node.Type() {
	case "method", "singleton_method", "lambda":
		return model.Function
	case "class", "module", "singleton_class":
		return model.Interface
	case "assignment", "operator_assignment":
		return model.Variable
	case "call", "method_call":
		if rubyLoaders[rubyMethodName(node, source)] {
			return model.Require
		}
		if atTopLevel(node) {
			return model.Other
		}
	}
	return model.None
}

// rubyMethodName returns the name of the method a call node invokes.
func rubyMethodName(node *sitter.Node, source []byte) string {
	if m := node.ChildByFieldName("method"); m != nil {
		return NodeText(m, source)
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == "identifier" {
			return NodeText(child, source)
		}
	}
	return ""
}
