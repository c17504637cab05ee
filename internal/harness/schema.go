package harness

import (
	_ "embed"
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	cueyaml "cuelang.org/go/encoding/yaml"
)

//go:embed schema.cue
var schemaSource string

var (
	schemaOnce  sync.Once
	schemaCtx   *cue.Context
	schemaValue cue.Value
	schemaErr   error
	schemaMu    sync.Mutex
)

// SchemaError reports an experiment file that does not satisfy the schema.
type SchemaError struct {
	Message string
	Pos     token.Pos
}

func (e *SchemaError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return e.Message
}

func experimentSchema() (*cue.Context, cue.Value, error) {
	schemaOnce.Do(func() {
		schemaCtx = cuecontext.New()
		v := schemaCtx.CompileString(schemaSource, cue.Filename("schema.cue"))
		if err := v.Err(); err != nil {
			schemaErr = fmt.Errorf("compile experiment schema: %w", err)
			return
		}
		schemaValue = v.LookupPath(cue.ParsePath("#Experiment"))
		if err := schemaValue.Err(); err != nil {
			schemaErr = fmt.Errorf("lookup #Experiment: %w", err)
		}
	})
	return schemaCtx, schemaValue, schemaErr
}

// ValidateSchema checks experiment YAML against the embedded CUE schema.
// The first violation is returned as a *SchemaError.
func ValidateSchema(filename string, data []byte) error {
	ctx, schema, err := experimentSchema()
	if err != nil {
		return err
	}

	file, err := cueyaml.Extract(filename, data)
	if err != nil {
		return formatCUEError(filename, err)
	}

	// A cue.Context is not safe for concurrent use.
	schemaMu.Lock()
	defer schemaMu.Unlock()

	doc := ctx.BuildFile(file)
	if err := doc.Err(); err != nil {
		return formatCUEError(filename, err)
	}
	return formatCUEError(filename, schema.Unify(doc).Validate(cue.Concrete(true)))
}

// formatCUEError extracts position info from CUE errors, preferring a
// position inside the experiment file over one inside the schema.
func formatCUEError(filename string, err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &SchemaError{Message: err.Error()}
	}

	first := errs[0]
	se := &SchemaError{Message: first.Error()}
	for _, pos := range errors.Positions(first) {
		if pos.Filename() == filename {
			se.Pos = pos
			break
		}
		if !se.Pos.IsValid() {
			se.Pos = pos
		}
	}
	return se
}
