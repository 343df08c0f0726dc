package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	muleerrors "github.com/packmule-io/packmule/pkg/errors"
)

// writeFile creates a file with parents under dir and returns its path.
func writeFile(t *testing.T, dir, rel, content string) string {
	t.Helper()
	path := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseCopyRule(t *testing.T) {
	testCases := []struct {
		name    string
		raw     string
		want    CopyRule
		wantErr error
	}{
		{name: "pattern only", raw: "assets/*.png", want: CopyRule{Pattern: "assets/*.png"}},
		{name: "pattern with dest", raw: "assets/*.png:img", want: CopyRule{Pattern: "assets/*.png", Dest: "img"}},
		{name: "marker without dest", raw: "assets/*.png:", wantErr: muleerrors.ErrInvalidRule},
		{name: "empty rule", raw: "", wantErr: muleerrors.ErrInvalidRule},
		{name: "marker without pattern", raw: ":out", wantErr: muleerrors.ErrInvalidRule},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rule, err := ParseCopyRule(tc.raw)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, rule)
		})
	}
}

func TestManifestLastWriterWins(t *testing.T) {
	m := New()
	m.Put("bin/app", "first")
	m.Put("data/x", "x")
	m.Put("bin/app", "second")

	require.Equal(t, 2, m.Len())
	assert.Equal(t, "second", m.Get("bin/app").Source)

	// Overwriting keeps the original position.
	entries := m.Entries()
	assert.Equal(t, "bin/app", entries[0].Dest)
	assert.Equal(t, "data/x", entries[1].Dest)
}

func TestManifestDestinationsUnique(t *testing.T) {
	m := New()
	m.Put("a/b", "s1")
	m.Put("./a/b", "s2")
	m.Put("a//b", "s3")

	assert.Equal(t, 1, m.Len())
	assert.Equal(t, "s3", m.Get("a/b").Source)
}

func TestBuildGlobExpansion(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a/x.txt", "x")
	writeFile(t, dir, "a/y.txt", "y")

	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(cwd) })

	b := NewBuilder(false, nil)

	t.Run("no override copies in place", func(t *testing.T) {
		m, err := b.Build(nil, nil, []CopyRule{{Pattern: "a/*.txt"}}, nil, "")
		require.NoError(t, err)
		require.Equal(t, 2, m.Len())
		assert.NotNil(t, m.Get("a/x.txt"))
		assert.NotNil(t, m.Get("a/y.txt"))
	})

	t.Run("override prefixes every match", func(t *testing.T) {
		m, err := b.Build(nil, nil, []CopyRule{{Pattern: "a/*.txt", Dest: "out"}}, nil, "")
		require.NoError(t, err)
		require.Equal(t, 2, m.Len())
		assert.NotNil(t, m.Get("out/a/x.txt"))
		assert.NotNil(t, m.Get("out/a/y.txt"))
	})

	t.Run("single match override is the literal destination", func(t *testing.T) {
		// The pattern could syntactically match more files; with exactly
		// one match the override is not a directory prefix.
		m, err := b.Build(nil, nil, []CopyRule{{Pattern: "a/x.*", Dest: "renamed.txt"}}, nil, "")
		require.NoError(t, err)
		require.Equal(t, 1, m.Len())
		entry := m.Get("renamed.txt")
		require.NotNil(t, entry)
		assert.Equal(t, filepath.Join("a", "x.txt"), entry.Source)
	})
}

func TestBuildZeroMatchRule(t *testing.T) {
	t.Run("default is skip", func(t *testing.T) {
		b := NewBuilder(false, nil)
		m, err := b.Build(nil, nil, []CopyRule{{Pattern: "no/such/*.bin"}}, nil, "")
		require.NoError(t, err)
		assert.Equal(t, 0, m.Len())
	})

	t.Run("strict is fatal", func(t *testing.T) {
		b := NewBuilder(true, nil)
		_, err := b.Build(nil, nil, []CopyRule{{Pattern: "no/such/*.bin"}}, nil, "")
		require.ErrorIs(t, err, muleerrors.ErrRuleUnmatched)
	})
}

func TestBuildMissingLiteralSource(t *testing.T) {
	b := NewBuilder(false, nil)
	_, err := b.Build(nil, []LiteralEntry{{Source: "/no/such/file", Dest: "app"}}, nil, nil, "")
	require.ErrorIs(t, err, muleerrors.ErrSourceNotFound)
}

func TestBuildLibrarySelection(t *testing.T) {
	dir := t.TempDir()
	libRoot := filepath.Join(dir, "lib")
	writeFile(t, libRoot, "core/strings.lib", "s")
	writeFile(t, libRoot, "core/sub/nums.lib", "n")
	writeFile(t, libRoot, "io/file.lib", "f")

	b := NewBuilder(false, nil)
	m, err := b.Build(nil, nil, nil, []string{"core", "io"}, libRoot)
	require.NoError(t, err)

	require.Equal(t, 3, m.Len())
	assert.NotNil(t, m.Get("runtime/lib/core/strings.lib"))
	assert.NotNil(t, m.Get("runtime/lib/core/sub/nums.lib"))
	assert.NotNil(t, m.Get("runtime/lib/io/file.lib"))
}

func TestBuildUnknownLibraryGroup(t *testing.T) {
	b := NewBuilder(false, nil)
	_, err := b.Build(nil, nil, nil, []string{"missing"}, t.TempDir())
	require.ErrorIs(t, err, muleerrors.ErrSourceNotFound)
}

func TestBuildPrecedenceTiers(t *testing.T) {
	dir := t.TempDir()
	litSrc := writeFile(t, dir, "from-literal", "literal bytes")
	ruleSrc := writeFile(t, dir, "from-rule", "rule bytes")
	libRoot := filepath.Join(dir, "lib")
	libSrc := writeFile(t, libRoot, "core/clash.lib", "library bytes")

	// All three tiers target the same destination; the strongest tier (the
	// runtime library selection) must win.
	dest := "runtime/lib/core/clash.lib"

	b := NewBuilder(false, nil)
	m, err := b.Build(nil,
		[]LiteralEntry{{Source: litSrc, Dest: dest}},
		[]CopyRule{{Pattern: ruleSrc, Dest: dest}},
		[]string{"core"}, libRoot)
	require.NoError(t, err)

	require.Equal(t, 1, m.Len())
	assert.Equal(t, libSrc, m.Get(dest).Source)
}

func TestBuildSyntheticOverridable(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "VERSION", "from disk")

	b := NewBuilder(false, nil)
	m, err := b.Build(
		[]SyntheticEntry{{Dest: "VERSION", Content: []byte("1.0\n"), Mode: 0o644}},
		nil,
		[]CopyRule{{Pattern: src, Dest: "VERSION"}},
		nil, "")
	require.NoError(t, err)

	require.Equal(t, 1, m.Len())
	entry := m.Get("VERSION")
	assert.False(t, entry.Synthetic)
	assert.Equal(t, src, entry.Source)
}
