package ast

import (
	"strings"

	"github.com/kunitoki/etch-sub002/internal/types"
)

// MangledKey computes the deterministic monomorphic key for a template
// function name instantiated with resolvedParamTypes, in order (spec §4.1,
// "generateOverloadSignature"; invariant I3). The mangling is derived only
// from the template name and the ordered resolved type arguments — never
// parameter names — so it is stable across runs and injective over distinct
// resolved signatures (distinct Type.String() renderings never collide,
// since String() is a structural, unambiguous rendering of the closed type
// grammar).
func MangledKey(name string, resolvedParamTypes []*types.Type) string {
	if len(resolvedParamTypes) == 0 {
		return name
	}
	parts := make([]string, len(resolvedParamTypes))
	for i, t := range resolvedParamTypes {
		parts[i] = t.String()
	}
	return name + "<" + strings.Join(parts, ",") + ">"
}
