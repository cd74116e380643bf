package output

import (
	"io"

	"github.com/schedcheck/schedcheck/internal/engine"
)

// WriteDOT renders e's transition graph in DOT form. Meaningful only when
// the engine was run with Config.RetainGraph set; otherwise it reflects
// only the final frontier.
func WriteDOT(w io.Writer, e *engine.Engine) error {
	return e.Graph().GenerateDot(w)
}
