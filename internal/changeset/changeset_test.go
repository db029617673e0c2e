package changeset

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leapstack-labs/leapdb/internal/testutil"
	"github.com/leapstack-labs/leapdb/pkg/adapters/sqlite"
	"github.com/leapstack-labs/leapdb/pkg/core"
	"github.com/leapstack-labs/leapdb/pkg/editor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []Operation
		wantErr string
	}{
		{
			name:  "empty",
			input: "",
		},
		{
			name: "table operations",
			input: `
connection: dev
operations:
  - op: create_table
    table: analytics.events
    comment: Raw events
    columns:
      - {name: id, type: BIGINT, nullable: false}
      - {name: payload, type: TEXT, default: 0}
  - op: rename_table
    table: users
    to: customers
  - op: drop_table
    table: legacy
`,
			want: []Operation{
				&CreateTable{Table: "analytics.events", Comment: "Raw events", Columns: []Column{
					{Name: "id", Type: "BIGINT", Nullable: ptr(false)},
					{Name: "payload", Type: "TEXT", Default: "0"},
				}},
				&RenameTable{Table: "users", To: "customers"},
				&DropTable{Table: "legacy"},
			},
		},
		{
			name: "column operations",
			input: `
operations:
  - op: add_column
    table: users
    name: age
    type: INTEGER
    nullable: true
  - op: alter_column
    table: users
    column: email
    type: VARCHAR(255)
    nullable: false
  - op: comment_column
    table: users
    column: email
    comment: Login
  - op: drop_column
    table: users
    column: age
`,
			want: []Operation{
				&AddColumn{Table: "users", Column: Column{Name: "age", Type: "INTEGER", Nullable: ptr(true)}},
				&AlterColumn{Table: "users", Column: "email", Type: ptr("VARCHAR(255)"), Nullable: ptr(false)},
				&CommentColumn{Table: "users", Column: "email", Comment: "Login"},
				&DropColumn{Table: "users", Column: "age"},
			},
		},
		{
			name:    "unknown operation",
			input:   "operations:\n  - op: truncate\n    table: users\n",
			wantErr: `operation 1: unknown operation: "truncate"`,
		},
		{
			name:    "missing op",
			input:   "operations:\n  - table: users\n",
			wantErr: "unknown operation",
		},
		{
			name:    "missing field",
			input:   "operations:\n  - op: rename_table\n    table: users\n",
			wantErr: "missing required field: to",
		},
		{
			name:    "column without type",
			input:   "operations:\n  - op: add_column\n    table: users\n    name: age\n",
			wantErr: "missing required field: type",
		},
		{
			name:    "unknown field",
			input:   "operations:\n  - op: drop_table\n    table: users\n    cascade: true\n",
			wantErr: "invalid drop_table",
		},
		{
			name:    "unknown top level key",
			input:   "steps: []\n",
			wantErr: "failed to parse changeset",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs, err := Parse(strings.NewReader(tt.input))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, cs.Operations)
		})
	}
}

func TestParse_Connection(t *testing.T) {
	cs, err := Parse(strings.NewReader("connection: dev\n"))
	require.NoError(t, err)
	assert.Equal(t, "dev", cs.Connection)
	assert.Empty(t, cs.Operations)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "change.yaml")
	require.NoError(t, os.WriteFile(path, []byte("operations:\n  - op: drop_table\n    table: users\n"), 0o600))

	cs, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cs.Operations, 1)
	assert.Equal(t, "drop_table", cs.Operations[0].Kind())

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read changeset")
}

func newSQLiteSession(t *testing.T) (*editor.Session, *sqlite.Adapter) {
	t.Helper()
	ctx := context.Background()
	adp := sqlite.New(testutil.NewTestLogger(t))
	require.NoError(t, adp.Connect(ctx, core.AdapterConfig{Path: ":memory:"}))
	t.Cleanup(func() { _ = adp.Close() })
	require.NoError(t, adp.Exec(ctx, "CREATE TABLE users (id INTEGER PRIMARY KEY, email TEXT)"))
	require.NoError(t, adp.Exec(ctx, "CREATE TABLE legacy (id INTEGER)"))
	return editor.NewSession(adp, testutil.NewTestLogger(t)), adp
}

func TestApply(t *testing.T) {
	ctx := context.Background()
	s, adp := newSQLiteSession(t)

	cs, err := Parse(strings.NewReader(`
operations:
  - op: add_column
    table: users
    name: age
    type: INTEGER
    default: 0
  - op: rename_column
    table: users
    column: email
    to: mail
  - op: create_table
    table: orders
    columns:
      - {name: id, type: INTEGER, nullable: false}
  - op: drop_table
    table: legacy
`))
	require.NoError(t, err)
	require.NoError(t, cs.Apply(ctx, s))

	assert.Equal(t, "ALTER TABLE main.users ADD COLUMN age INTEGER DEFAULT 0;\n"+
		"ALTER TABLE main.users RENAME COLUMN email TO mail;\n"+
		"CREATE TABLE orders (\n  id INTEGER NOT NULL\n);\n"+
		"DROP TABLE main.legacy;\n", s.Script())

	require.NoError(t, s.Save(ctx))

	meta, err := adp.GetTableMetadata(ctx, "users")
	require.NoError(t, err)
	var names []string
	for _, c := range meta.Columns {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"id", "mail", "age"}, names)

	_, err = adp.GetTableMetadata(ctx, "orders")
	require.NoError(t, err)
}

func TestApply_AlterColumn(t *testing.T) {
	ctx := context.Background()
	s, _ := newSQLiteSession(t)

	cs := &Changeset{Operations: []Operation{
		&AlterColumn{Table: "users", Column: "email", To: "mail", Comment: ptr("Login")},
	}}
	require.NoError(t, cs.Apply(ctx, s))

	users, ok := s.Catalog().Lookup("users")
	require.True(t, ok)
	col, ok := users.Column("mail")
	require.True(t, ok)
	assert.Equal(t, "Login", col.Comment)
	assert.Equal(t, "TEXT", col.Type)

	require.NoError(t, s.Undo())
	_, ok = users.Column("email")
	assert.True(t, ok)
}

func TestApply_Errors(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		ops     []Operation
		wantErr string
	}{
		{
			name:    "missing table",
			ops:     []Operation{&DropTable{Table: "nope"}},
			wantErr: "failed to apply operation 1 (drop_table)",
		},
		{
			name:    "missing column",
			ops:     []Operation{&RenameColumn{Table: "users", Column: "nope", To: "x"}},
			wantErr: "column nope not found in table users",
		},
		{
			name: "stops at first failure",
			ops: []Operation{
				&CommentTable{Table: "users", Comment: "People"},
				&AddColumn{Table: "users", Column: Column{Name: "email", Type: "TEXT"}},
			},
			wantErr: "failed to apply operation 2 (add_column)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newSQLiteSession(t)
			err := (&Changeset{Operations: tt.ops}).Apply(ctx, s)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
