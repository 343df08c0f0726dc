package manifest

import (
	"fmt"
	"os"
	"strings"

	muleerrors "github.com/packmule-io/packmule/pkg/errors"
)

// CopyRule is one user-declared intention to include files in the archive.
//
// Pattern is a doublestar-style glob. Dest is optional: for a rule that
// matches exactly one file it is the literal destination path; for a rule
// that matches several files it is a destination directory prefix applied
// to each match.
type CopyRule struct {
	Pattern string
	Dest    string
}

// LiteralEntry is a copy rule with no pattern semantics, such as the primary
// executable or the runtime interpreter binary. The source must exist.
type LiteralEntry struct {
	Source string
	Dest   string
}

// SyntheticEntry is an archive entry generated by the builder itself (for
// example the VERSION marker). It has no backing file; content and mode are
// supplied by the caller and the modification time is resolution time.
type SyntheticEntry struct {
	Dest    string
	Content []byte
	Mode    os.FileMode
}

// RuleSeparator splits the pattern from the destination override in a
// copy-rule string.
const RuleSeparator = ":"

// ParseCopyRule parses a "pattern[:dest]" rule string.
//
// A separator with nothing after it is malformed and fatal: the user clearly
// intended a remapping but did not say where to.
func ParseCopyRule(raw string) (CopyRule, error) {
	if raw == "" {
		return CopyRule{}, fmt.Errorf("%w: empty rule", muleerrors.ErrInvalidRule)
	}

	pattern, dest, found := strings.Cut(raw, RuleSeparator)
	if pattern == "" {
		return CopyRule{}, fmt.Errorf("%w: rule %q has no pattern", muleerrors.ErrInvalidRule, raw)
	}
	if found && dest == "" {
		return CopyRule{}, fmt.Errorf("%w: rule %q has a destination marker but no destination", muleerrors.ErrInvalidRule, raw)
	}

	return CopyRule{Pattern: pattern, Dest: dest}, nil
}

// ParseCopyRules parses a list of rule strings, failing on the first
// malformed one.
func ParseCopyRules(raw []string) ([]CopyRule, error) {
	rules := make([]CopyRule, 0, len(raw))
	for _, r := range raw {
		rule, err := ParseCopyRule(r)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}
