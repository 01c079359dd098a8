package graphql

import (
	"context"
	_ "embed"
	"log/slog"
	"sort"
	"strings"

	gql "github.com/graph-gophers/graphql-go"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/c360/taskql/errors"
)

//go:embed schema.graphql
var schemaSDL string

// SchemaSDL returns the GraphQL schema served by the gateway.
func SchemaSDL() string {
	return schemaSDL
}

// RootOperations lists the Query and Mutation fields of the schema, sorted,
// without introspection fields.
func RootOperations() ([]string, error) {
	schema, err := gqlparser.LoadSchema(&ast.Source{Name: "schema.graphql", Input: schemaSDL})
	if err != nil {
		return nil, errors.WrapFatal(err, "Schema", "RootOperations", "load schema")
	}

	var ops []string
	for _, def := range []*ast.Definition{schema.Query, schema.Mutation} {
		if def == nil {
			continue
		}
		for _, field := range def.Fields {
			if strings.HasPrefix(field.Name, "__") {
				continue
			}
			ops = append(ops, field.Name)
		}
	}
	sort.Strings(ops)
	return ops, nil
}

// NewSchema binds the resolver to the schema and applies execution limits.
func NewSchema(cfg Config, resolver *Resolver) (*gql.Schema, error) {
	schema, err := gql.ParseSchema(schemaSDL, resolver,
		gql.MaxDepth(cfg.MaxQueryDepth),
		gql.MaxParallelism(cfg.MaxParallelism),
		gql.Logger(&panicLogger{logger: resolver.logger}),
	)
	if err != nil {
		return nil, errors.WrapFatal(err, "Schema", "NewSchema", "bind resolver")
	}
	return schema, nil
}

// panicLogger routes resolver panics to slog. graphql-go converts the panic
// into a field error on its own.
type panicLogger struct {
	logger *slog.Logger
}

func (l *panicLogger) LogPanic(ctx context.Context, value interface{}) {
	loggerFrom(ctx, l.logger).Error("Resolver panic", "panic", value)
}
