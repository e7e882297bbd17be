package lang

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/phobologic/seesoft/internal/model"
)

func init() {
	Languages["python"] = &Language{
		Name:       "python",
		Extensions: []string{".py"},
		lang:       python.GetLanguage(),
		Classify:   pythonClassify,
	}
}

func pythonClassify(node *sitter.Node, source []byte) model.Category {
	switch node.Type() {
	case "import_statement", "import_from_statement", "future_import_statement":
		return model.Require
	case "function_definition", "lambda":
		return model.Function
	case "class_definition":
		return model.Interface
	case "decorated_definition":
		// Decorators belong to the definition they wrap.
		if def := node.ChildByFieldName("definition"); def != nil {
			return pythonClassify(def, source)
		}
		return model.Function
	case "expression_statement":
		for i := 0; i < int(node.NamedChildCount()); i++ {
			switch node.NamedChild(i).Type() {
			case "assignment", "augmented_assignment":
				return model.Variable
			}
		}
		return model.Other
	}
	return model.None
}
