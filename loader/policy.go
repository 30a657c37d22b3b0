package loader

import (
	"strings"

	"github.com/LegacyCodeHQ/tsextern/internal/mcplogdlog"
)

// SkipAll is the deny-list entry that skips every file but the one compiled.
const SkipAll = "*"

// DenyList selects files whose externs are not generated.
type DenyList struct {
	// All is set by the wildcard.
	All        bool
	Substrings []string
}

// Empty reports whether nothing is denied.
func (d DenyList) Empty() bool {
	return !d.All && len(d.Substrings) == 0
}

// Matches reports whether fileName contains any denied substring.
func (d DenyList) Matches(fileName string) bool {
	for _, s := range d.Substrings {
		if strings.Contains(fileName, s) {
			return true
		}
	}
	return false
}

// skipPolicy decides, per file of one compile, whether externs are skipped.
type skipPolicy struct {
	ledger   *Ledger
	deny     DenyList
	rootFile string
}

// shouldSkip marks fileName in the ledger before consulting the deny-list, so
// a denied file is never reconsidered by a later compile.
func (p skipPolicy) shouldSkip(fileName string) bool {
	if !p.ledger.Mark(fileName) {
		mcplogdlog.Debug("Externs already generated", map[string]any{"file": fileName, "root": p.rootFile})
		return true
	}
	switch {
	case p.deny.Empty():
		return false
	case p.deny.All:
		return fileName != p.rootFile
	default:
		return p.deny.Matches(fileName)
	}
}
