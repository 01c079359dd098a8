package graphql

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/c360/taskql/testutil"
)

// The schema is a client contract: field names, argument names and
// nullability must not drift.
func TestSchemaContract(t *testing.T) {
	schema, err := gqlparser.LoadSchema(&ast.Source{Name: "schema.graphql", Input: SchemaSDL()})
	require.NoError(t, err)

	type field struct {
		Name string
		Type string
		Args []string
	}
	fieldsOf := func(def *ast.Definition) []field {
		var out []field
		for _, f := range def.Fields {
			if len(f.Name) > 1 && f.Name[:2] == "__" {
				continue
			}
			var args []string
			for _, a := range f.Arguments {
				args = append(args, a.Name+": "+a.Type.String())
			}
			out = append(out, field{Name: f.Name, Type: f.Type.String(), Args: args})
		}
		return out
	}

	tests := []struct {
		typeName string
		def      *ast.Definition
		want     []field
	}{
		{"Task", schema.Types["Task"], []field{
			{Name: "id", Type: "Int"},
			{Name: "name", Type: "String"},
			{Name: "iscompleted", Type: "Boolean"},
		}},
		{"Query", schema.Query, []field{
			{Name: "tasks", Type: "[Task]"},
		}},
		{"Mutation", schema.Mutation, []field{
			{Name: "addTask", Type: "Task", Args: []string{"name: String"}},
			{Name: "deleteTask", Type: "Boolean", Args: []string{"id: Int"}},
			{Name: "toggleTask", Type: "Task", Args: []string{"id: Int"}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.typeName, func(t *testing.T) {
			require.NotNil(t, tt.def)
			if diff := cmp.Diff(tt.want, fieldsOf(tt.def)); diff != "" {
				t.Errorf("%s fields mismatch (-want +got):\n%s", tt.typeName, diff)
			}
		})
	}
}

func TestRootOperations(t *testing.T) {
	ops, err := RootOperations()
	require.NoError(t, err)

	want := []string{"addTask", "deleteTask", "tasks", "toggleTask"}
	if diff := cmp.Diff(want, ops); diff != "" {
		t.Errorf("root operations mismatch (-want +got):\n%s", diff)
	}
}

func TestNewSchemaBindsResolver(t *testing.T) {
	resolver, err := NewResolver(testutil.NewMockStore(), nil, nil)
	require.NoError(t, err)

	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	schema, err := NewSchema(cfg, resolver)
	require.NoError(t, err)
	assert.NotNil(t, schema)
}
