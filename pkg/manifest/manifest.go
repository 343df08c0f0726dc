// Package manifest resolves declarative copy rules, literal entries and
// runtime library selections into the final mapping from archive destination
// path to source file, then decorates each entry with filesystem metadata
// ready for serialization.
package manifest

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/hashicorp/go-hclog"

	muleerrors "github.com/packmule-io/packmule/pkg/errors"
)

// RuntimeLibPrefix is the fixed destination prefix runtime library groups are
// rewritten under.
const RuntimeLibPrefix = "runtime/lib"

// Entry is one resolved archive entry. Dest is the unique key within a
// Manifest. Size, Mode, ModMillis and Content are populated by the Resolver.
type Entry struct {
	Dest      string
	Source    string
	Size      int64
	Mode      os.FileMode
	ModMillis int64
	Content   []byte
	Synthetic bool
}

// Manifest is the ordered mapping from destination path to entry.
//
// Destinations are unique: putting an entry for an existing destination
// replaces the earlier one (last-writer-wins) while keeping its position in
// iteration order.
type Manifest struct {
	order   []string
	entries map[string]*Entry
}

// New creates an empty manifest.
func New() *Manifest {
	return &Manifest{entries: make(map[string]*Entry)}
}

// Put inserts or replaces the entry for dest.
func (m *Manifest) Put(dest, source string) {
	m.put(&Entry{Dest: dest, Source: source})
}

// PutSynthetic inserts or replaces a generated entry with caller-supplied
// content and mode and no backing file.
func (m *Manifest) PutSynthetic(dest string, content []byte, mode os.FileMode) {
	m.put(&Entry{Dest: dest, Content: content, Mode: mode, Synthetic: true})
}

func (m *Manifest) put(e *Entry) {
	e.Dest = normalizeDest(e.Dest)
	if _, ok := m.entries[e.Dest]; !ok {
		m.order = append(m.order, e.Dest)
	}
	m.entries[e.Dest] = e
}

// Get returns the entry for dest, or nil.
func (m *Manifest) Get(dest string) *Entry {
	return m.entries[normalizeDest(dest)]
}

// Len returns the number of entries.
func (m *Manifest) Len() int {
	return len(m.order)
}

// Entries returns all entries in iteration order.
func (m *Manifest) Entries() []*Entry {
	out := make([]*Entry, 0, len(m.order))
	for _, dest := range m.order {
		out = append(out, m.entries[dest])
	}
	return out
}

// normalizeDest cleans a destination into slash-separated archive form.
func normalizeDest(dest string) string {
	cleaned := path.Clean(filepath.ToSlash(dest))
	for len(cleaned) > 0 && cleaned[0] == '/' {
		cleaned = cleaned[1:]
	}
	return cleaned
}

// Builder turns inputs into a resolved manifest.
//
// Insertion happens in three tiers, weakest first: synthetic and literal
// entries, then copy rules, then runtime library selections. A later tier
// silently overwrites an earlier entry sharing a destination, so a bundled
// runtime file supersedes a user copy rule of the same name.
type Builder struct {
	strict bool
	logger hclog.Logger
}

// NewBuilder creates a builder. When strict is set, a copy rule matching
// zero files is fatal instead of silently skipped.
func NewBuilder(strict bool, logger hclog.Logger) *Builder {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Builder{strict: strict, logger: logger}
}

// Build resolves all inputs into a manifest. No file content is read here;
// only the filesystem lookups needed for matching happen.
func (b *Builder) Build(synthetics []SyntheticEntry, literals []LiteralEntry, rules []CopyRule, groups []string, libraryRoot string) (*Manifest, error) {
	m := New()

	for _, s := range synthetics {
		b.logger.Debug("📝 Adding synthetic entry", "dest", s.Dest, "size", len(s.Content))
		m.PutSynthetic(s.Dest, s.Content, s.Mode)
	}

	for _, lit := range literals {
		info, err := os.Stat(lit.Source)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", muleerrors.ErrSourceNotFound, lit.Source)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("%w: %s is a directory", muleerrors.ErrSourceNotFound, lit.Source)
		}
		b.logger.Debug("📄 Adding literal entry", "source", lit.Source, "dest", lit.Dest)
		m.Put(lit.Dest, lit.Source)
	}

	for _, rule := range rules {
		if err := b.applyRule(m, rule); err != nil {
			return nil, err
		}
	}

	for _, group := range groups {
		if err := b.applyLibrary(m, libraryRoot, group); err != nil {
			return nil, err
		}
	}

	b.logger.Debug("✅ Manifest resolved", "entries", m.Len())
	return m, nil
}

// applyRule expands one copy rule into manifest entries.
//
// A single match with an override maps to exactly that literal destination,
// even when the pattern syntactically could have matched more. Multiple
// matches with an override land under it as a directory prefix, keeping the
// full matched path.
func (b *Builder) applyRule(m *Manifest, rule CopyRule) error {
	matches, err := Match(rule.Pattern, true)
	if err != nil {
		return fmt.Errorf("%w: %v", muleerrors.ErrInvalidRule, err)
	}

	switch {
	case len(matches) == 0:
		if b.strict {
			return fmt.Errorf("%w: %s", muleerrors.ErrRuleUnmatched, rule.Pattern)
		}
		b.logger.Debug("⏭️  Copy rule matched nothing, skipping", "pattern", rule.Pattern)
		return nil

	case len(matches) == 1:
		dest := rule.Dest
		if dest == "" {
			dest = matches[0]
		}
		b.logger.Debug("📄 Copy rule (single match)", "pattern", rule.Pattern, "source", matches[0], "dest", dest)
		m.Put(dest, matches[0])
		return nil

	default:
		for _, match := range matches {
			dest := match
			if rule.Dest != "" {
				dest = path.Join(rule.Dest, filepath.ToSlash(match))
			}
			m.Put(dest, match)
		}
		b.logger.Debug("📄 Copy rule (multi match)", "pattern", rule.Pattern, "matches", len(matches), "prefix", rule.Dest)
		return nil
	}
}

// applyLibrary walks one runtime library group and maps every file under a
// fixed runtime/lib prefix, preserving relative structure.
func (b *Builder) applyLibrary(m *Manifest, libraryRoot, group string) error {
	groupDir := filepath.Join(libraryRoot, group)
	info, err := os.Stat(groupDir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: runtime library group %q not found under %s", muleerrors.ErrSourceNotFound, group, libraryRoot)
	}

	count := 0
	err = filepath.WalkDir(groupDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(groupDir, p)
		if err != nil {
			return err
		}
		m.Put(path.Join(RuntimeLibPrefix, group, filepath.ToSlash(rel)), p)
		count++
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: walking runtime library group %q: %v", muleerrors.ErrSourceNotFound, group, err)
	}

	b.logger.Debug("📚 Runtime library group bundled", "group", group, "files", count)
	return nil
}
