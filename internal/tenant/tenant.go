package tenant

import (
	"errors"
	"fmt"
	"strings"
)

// Tenant identifies one of the organizations sharing the system. It is the
// primary data-isolation boundary: every query is scoped by it.
type Tenant string

const (
	ASA  Tenant = "asa"
	PAPL Tenant = "papl"
)

// All lists every tenant the system knows about.
var All = []Tenant{ASA, PAPL}

var ErrUnknownTenant = errors.New("unknown tenant")

func (t Tenant) Valid() bool {
	for _, known := range All {
		if t == known {
			return true
		}
	}

	return false
}

func (t Tenant) String() string {
	return string(t)
}

// Parse normalizes s and returns the matching tenant.
func Parse(s string) (Tenant, error) {
	t := Tenant(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownTenant, s)
	}

	return t, nil
}
