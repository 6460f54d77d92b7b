package library

import (
	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// ValidateDiagram checks a stored diagram document against the #Diagram
// schema. Every finger encoding the decoder accepts is allowed, and so are
// the record fields the chart API adds. Unknown fields are rejected.
func ValidateDiagram(filename string, data []byte) error {
	ctx := cuecontext.New()
	schema, err := compileSchema(ctx)
	if err != nil {
		return err
	}
	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return fromCUEError(ErrCodeCompile, err)
	}
	def := schema.LookupPath(cue.ParsePath("#Diagram"))
	if err := def.Unify(v).Validate(cue.Concrete(true)); err != nil {
		return fromCUEError(ErrCodeSchema, err)
	}
	return nil
}
