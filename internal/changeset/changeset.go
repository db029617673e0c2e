// Package changeset reads YAML change files and replays them as session edits.
//
// A changeset is a list of operations:
//
//	connection: dev
//	operations:
//	  - op: create_table
//	    table: analytics.events
//	    columns:
//	      - {name: id, type: INTEGER, nullable: false}
//	  - op: rename_column
//	    table: users
//	    column: email
//	    to: mail
//
// Each operation becomes one or more commands on an editor.Session, so the
// usual merge rules apply before anything is saved.
package changeset

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-viper/mapstructure/v2"
	"github.com/leapstack-labs/leapdb/pkg/editor"
	"gopkg.in/yaml.v3"
)

// ErrUnknownOperation is returned for an unsupported "op" value.
var ErrUnknownOperation = errors.New("unknown operation")

// ErrMissingField is returned when a required operation field is empty.
var ErrMissingField = errors.New("missing required field")

// Changeset is a parsed change file.
type Changeset struct {
	// Connection optionally names the connection the changes target.
	Connection string
	Operations []Operation
}

// Operation is one edit of a changeset.
type Operation interface {
	// Kind returns the "op" value the operation was parsed from.
	Kind() string
	// Apply records the operation as edits on s.
	Apply(ctx context.Context, s *editor.Session) error
}

type rawChangeset struct {
	Connection string           `yaml:"connection"`
	Operations []map[string]any `yaml:"operations"`
}

// Load reads the changeset at path.
func Load(path string) (*Changeset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read changeset: %w", err)
	}
	cs, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cs, nil
}

// Parse decodes a changeset from r.
func Parse(r io.Reader) (*Changeset, error) {
	var raw rawChangeset
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse changeset: %w", err)
	}

	cs := &Changeset{Connection: raw.Connection}
	for i, fields := range raw.Operations {
		op, err := decodeOperation(fields)
		if err != nil {
			return nil, fmt.Errorf("operation %d: %w", i+1, err)
		}
		cs.Operations = append(cs.Operations, op)
	}
	return cs, nil
}

// Apply records every operation on s, stopping at the first failure. Edits
// made before the failure stay in the session and can be undone.
func (c *Changeset) Apply(ctx context.Context, s *editor.Session) error {
	for i, op := range c.Operations {
		if err := op.Apply(ctx, s); err != nil {
			return fmt.Errorf("failed to apply operation %d (%s): %w", i+1, op.Kind(), err)
		}
	}
	return nil
}

var constructors = map[string]func() Operation{
	"create_table":   func() Operation { return &CreateTable{} },
	"drop_table":     func() Operation { return &DropTable{} },
	"rename_table":   func() Operation { return &RenameTable{} },
	"comment_table":  func() Operation { return &CommentTable{} },
	"add_column":     func() Operation { return &AddColumn{} },
	"drop_column":    func() Operation { return &DropColumn{} },
	"rename_column":  func() Operation { return &RenameColumn{} },
	"alter_column":   func() Operation { return &AlterColumn{} },
	"comment_column": func() Operation { return &CommentColumn{} },
}

type validator interface {
	validate() error
}

func decodeOperation(fields map[string]any) (Operation, error) {
	kind, _ := fields["op"].(string)
	newOp, ok := constructors[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOperation, kind)
	}

	args := make(map[string]any, len(fields))
	for k, v := range fields {
		if k != "op" {
			args[k] = v
		}
	}

	op := newOp()
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           op,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := dec.Decode(args); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", kind, err)
	}
	if v, ok := op.(validator); ok {
		if err := v.validate(); err != nil {
			return nil, fmt.Errorf("invalid %s: %w", kind, err)
		}
	}
	return op, nil
}

func required(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			return fmt.Errorf("%w: %s", ErrMissingField, pairs[i])
		}
	}
	return nil
}
