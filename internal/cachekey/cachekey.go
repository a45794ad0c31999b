package cachekey

import (
	"fmt"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"reflect"
	"strings"
)

// Deriver turns an operation and its input into a cache key.
//
// By default the key is "<namespace>/<operation>/<input>", or
// "<operation>/<input>" when no namespace is configured. A custom
// expression may be provided instead, it has access to the namespace,
// operation and input variables and must evaluate to a string.
type Deriver struct {
	namespace string
	program   *vm.Program
}

func New(namespace string, keyExpr string) (*Deriver, error) {
	deriver := &Deriver{
		namespace: strings.Trim(namespace, "/"),
	}

	if keyExpr == "" {
		return deriver, nil
	}

	program, err := expr.Compile(keyExpr, expr.Env(env("", "", "")), expr.AsKind(reflect.String))
	if err != nil {
		return nil, fmt.Errorf("failed to compile cache key expression %q: %w", keyExpr, err)
	}

	deriver.program = program

	return deriver, nil
}

func (deriver *Deriver) Derive(operation string, input string) (string, error) {
	if deriver.program == nil {
		if deriver.namespace == "" {
			return operation + "/" + input, nil
		}

		return deriver.namespace + "/" + operation + "/" + input, nil
	}

	result, err := expr.Run(deriver.program, env(deriver.namespace, operation, input))
	if err != nil {
		return "", fmt.Errorf("failed to evaluate cache key expression: %w", err)
	}

	key, ok := result.(string)
	if !ok {
		return "", fmt.Errorf("cache key expression returned %T instead of a string", result)
	}

	return key, nil
}

func env(namespace string, operation string, input string) map[string]any {
	return map[string]any{
		"namespace": namespace,
		"operation": operation,
		"input":     input,
	}
}
