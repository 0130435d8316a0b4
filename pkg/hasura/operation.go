package hasura

import (
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

// Operation is a named GraphQL document. The name is what appears in logs,
// metrics and the request's operationName.
type Operation struct {
	Name  string
	Query string
}

// NewOperation parses query and checks that it defines exactly one operation
// called name.
func NewOperation(name, query string) (Operation, error) {
	doc, err := parser.ParseQuery(&ast.Source{Name: name, Input: query})
	if err != nil {
		return Operation{}, fmt.Errorf("parse %s: %w", name, err)
	}
	if len(doc.Operations) != 1 {
		return Operation{}, fmt.Errorf("%s: expected one operation, got %d", name, len(doc.Operations))
	}
	if got := doc.Operations[0].Name; got != name {
		return Operation{}, fmt.Errorf("%s: document declares operation %q", name, got)
	}
	return Operation{Name: name, Query: query}, nil
}

// MustOperation is NewOperation for package-level documents.
func MustOperation(name, query string) Operation {
	op, err := NewOperation(name, query)
	if err != nil {
		panic(err)
	}
	return op
}
