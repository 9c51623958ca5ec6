package cli

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/example/clarence/internal/core/party"
)

var digitsOnly = regexp.MustCompile(`^\d+$`)

// validateSessionRef checks a session argument. Session IDs and NEG-
// references are accepted; a bare number gets a helpful message.
func validateSessionRef(ref string) error {
	if ref == "" {
		return fmt.Errorf("session reference is required")
	}
	if digitsOnly.MatchString(ref) {
		n, _ := strconv.Atoi(ref)
		return fmt.Errorf("invalid session reference '%s'. Use full reference format: NEG-%04d", ref, n)
	}
	return nil
}

// validateClauseID checks a clause argument the same way.
func validateClauseID(id string) error {
	if digitsOnly.MatchString(id) {
		n, _ := strconv.Atoi(id)
		return fmt.Errorf("invalid clause ID '%s'. Use full ID format: CL-%03d", id, n)
	}
	if !strings.HasPrefix(id, "CL-") {
		return fmt.Errorf("invalid clause ID '%s'. Clause IDs look like CL-001", id)
	}
	return nil
}

// parseIntArg parses a numeric positional argument.
func parseIntArg(name, raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s '%s': must be a whole number", name, raw)
	}
	return n, nil
}

// resolveParty returns the explicit party, or the --as actor when none was
// given.
func resolveParty(explicit string) (string, error) {
	if explicit == "" {
		explicit = GetActorID()
	}
	if explicit == "" {
		return "", fmt.Errorf("party is required: pass --party or the global --as flag")
	}
	p, err := party.Parse(explicit)
	if err != nil {
		return "", fmt.Errorf("invalid party '%s'. Use 'requesting' or 'fulfilling'", explicit)
	}
	return string(p), nil
}
