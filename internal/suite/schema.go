package suite

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

//go:embed suite.cue
var schemaSource string

// validateSchema checks a generically decoded suite document against the
// #Suite definition.
func validateSchema(doc any) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("suite.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile suite schema: %w", err)
	}

	v := schema.LookupPath(cue.ParsePath("#Suite")).Unify(ctx.Encode(doc))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("suite does not match schema:\n%s", cueerrors.Details(err, nil))
	}
	return nil
}
