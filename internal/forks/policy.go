package forks

import (
	"fmt"

	"github.com/ethanolivertroy/antimirror/internal/models"
)

// Policy decides which suspicious forks are enforced against
type Policy string

// ParsePolicy validates name
func ParsePolicy(name string) (Policy, error) {
	switch name {
	case models.PolicyAll, models.PolicyDenylist, models.PolicyCorroborated:
		return Policy(name), nil
	case "":
		return models.PolicyCorroborated, nil
	default:
		return "", fmt.Errorf("unknown fork policy %q", name)
	}
}

// Enforce reports whether fork should be acted on. Benign forks never are.
//
//   - all: every suspicious fork
//   - denylist: only owners on the deny list
//   - corroborated: deny listed owners, or forks pushed to after creation
func (p Policy) Enforce(fork models.ForkRecord) bool {
	if !fork.Suspicious {
		return false
	}
	switch p {
	case models.PolicyAll:
		return true
	case models.PolicyDenylist:
		return fork.Denylisted
	default:
		return fork.Denylisted || fork.SyncedAfterCreation()
	}
}
