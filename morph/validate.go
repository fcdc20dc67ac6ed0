package morph

import (
	"errors"
	"fmt"

	"github.com/pthm-cable/sprout/grid"
)

// Validate checks the structural invariants of o: the body contains the core
// and is one 8-connected component, no module cell lies on the body, every
// module respects its length bounds and touches the body. All violations are
// joined into the returned error.
func (e *Engine) Validate(o *Organism) error {
	var errs []error
	body := o.Body.Cells
	if !body.Has(o.Body.Core) {
		errs = append(errs, fmt.Errorf("core %v not in body", o.Body.Core))
	} else if !grid.Connected(body, o.Body.Core) {
		errs = append(errs, fmt.Errorf("body split into %d components", grid.Components(body)))
	}

	for i, m := range o.Modules {
		if m.Len() == 0 {
			errs = append(errs, fmt.Errorf("module %d (%s): empty", i, m.Type))
			continue
		}
		touches := false
		for j := 0; j < m.Cells.Len(); j++ {
			c := m.Cells.At(j)
			if body.Has(c) {
				errs = append(errs, fmt.Errorf("module %d (%s): cell %v overlaps body", i, m.Type, c))
			}
			if body.Touches(c) {
				touches = true
			}
		}
		if !touches {
			errs = append(errs, fmt.Errorf("module %d (%s): detached from body", i, m.Type))
		}
		if limit := e.reg.MaxLen(m.Type); limit > 0 && m.Len() > limit {
			errs = append(errs, fmt.Errorf("module %d (%s): length %d exceeds max %d", i, m.Type, m.Len(), limit))
		}
		if m.Len() > m.GrowTo {
			errs = append(errs, fmt.Errorf("module %d (%s): length %d exceeds growTo %d", i, m.Type, m.Len(), m.GrowTo))
		}
	}
	return errors.Join(errs...)
}
