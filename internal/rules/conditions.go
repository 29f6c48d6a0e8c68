// internal/rules/conditions.go
package rules

import (
	"github.com/clearclaim/claimrules/internal/types"
)

/*
 * Condition evaluation.
 *
 * Combines a rule's ordered condition list into one boolean, strictly
 * left-to-right with left-associative AND/OR: each condition's own
 * logicalOperator says how it combines with the running result, so
 * [A, B(OR), C(AND)] evaluates as ((A OR B) AND C). There is no
 * precedence grouping.
 *
 * The running result starts true, which makes the empty condition list
 * an unconditional trigger. A field missing from the answer map flows
 * into operator coercion as nil, which yields false for every operator
 * except is_empty.
 */

// EvalConditions reports whether the ordered condition chain holds
// against the answers reachable through env.
func EvalConditions(conds []types.Condition, env Env) bool {
	result := true
	for i, cond := range conds {
		value, _ := env.lookup(cond.Field)
		this := Compare(Operator(cond.Operator), value, cond.Value, env)

		if i == 0 {
			result = this
			continue
		}
		if cond.Logical == types.LogicalOr {
			result = result || this
		} else {
			// AND is the default for unset/unknown combinators
			result = result && this
		}
	}
	return result
}
