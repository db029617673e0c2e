package editor

import (
	"testing"

	duckdialect "github.com/leapstack-labs/leapdb/pkg/adapters/duckdb/dialect"
	mysqldialect "github.com/leapstack-labs/leapdb/pkg/adapters/mysql/dialect"
	pgdialect "github.com/leapstack-labs/leapdb/pkg/adapters/postgres/dialect"
	"github.com/leapstack-labs/leapdb/pkg/model"
	"github.com/stretchr/testify/assert"
)

func TestDDL(t *testing.T) {
	pg := ddl{d: pgdialect.Postgres}
	duck := ddl{d: duckdialect.DuckDB}
	my := ddl{d: mysqldialect.MySQL}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"drop default", pg.alterColumnDefault("t", "c", ""), "ALTER TABLE t ALTER COLUMN c DROP DEFAULT"},
		{"drop not null", pg.alterColumnNullable("t", "c", true), "ALTER TABLE t ALTER COLUMN c DROP NOT NULL"},
		{"clear table comment", pg.commentTable("t", ""), "COMMENT ON TABLE t IS NULL"},
		{"escape comment", duck.commentColumn("t", "c", "it's"), "COMMENT ON COLUMN t.c IS 'it''s'"},
		{"reserved column", duck.dropColumn("t", "select"), `ALTER TABLE t DROP COLUMN "select"`},
		{"mysql inline comment", my.columnDef(model.ColumnState{Name: "n", Type: "INT", Comment: "c"}), "n INT NOT NULL COMMENT 'c'"},
		{"mysql table comment", my.commentTable("t", "x"), "ALTER TABLE t COMMENT = 'x'"},
		{
			"full column definition",
			pg.columnDef(model.ColumnState{Name: "Amount", Type: "NUMERIC(10,2)", Default: "0", Comment: "ignored"}),
			`"Amount" NUMERIC(10,2) DEFAULT 0 NOT NULL`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestValidateColumn(t *testing.T) {
	tests := []struct {
		name    string
		state   model.ColumnState
		wantErr error
	}{
		{"valid", model.ColumnState{Name: "id", Type: "integer"}, nil},
		{"sized type", model.ColumnState{Name: "name", Type: "varchar(20)"}, nil},
		{"blank name", model.ColumnState{Name: " ", Type: "INTEGER"}, ErrEmptyName},
		{"blank type", model.ColumnState{Name: "id"}, ErrEmptyType},
		{"unknown type", model.ColumnState{Name: "id", Type: "WIDGET"}, ErrUnknownType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateColumn(pgdialect.Postgres, tt.state)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
