// Package bundler sequences the whole assembly pipeline: external steps,
// project metadata resolution, manifest building, metadata resolution and
// the final archive write.
package bundler

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/hashicorp/go-hclog"

	"github.com/packmule-io/packmule/pkg/archive"
	muleerrors "github.com/packmule-io/packmule/pkg/errors"
	"github.com/packmule-io/packmule/pkg/manifest"
	"github.com/packmule-io/packmule/pkg/project"
)

// Default file modes for generated files
const (
	versionFileMode = os.FileMode(0o644)
	archiveFileMode = os.FileMode(0o644)
	outputDirMode   = os.FileMode(0o755)
)

// VersionFileName is the destination of the synthetic version marker.
const VersionFileName = "VERSION"

// Config is the complete, immutable run configuration constructed once at
// the CLI boundary. No component reads ambient global state.
type Config struct {
	// Executable is the primary application executable (positional argument).
	Executable string

	// Runtime is the runtime interpreter binary to bundle, optional.
	Runtime string

	// OutputDir is where the archive lands. Empty means "dist".
	OutputDir string

	// BaseName overrides the project name in the output filename.
	BaseName string

	// ProjectFile is the project metadata file. Empty means "project.yaml".
	ProjectFile string

	// CopyRules are "pattern[:dest]" inclusion rules.
	CopyRules []string

	// Scripts are auxiliary scripts run in declared order before assembly.
	Scripts []string

	// Libraries are runtime library group names to bundle.
	Libraries []string

	// LibraryRoot is the runtime's library root. Empty derives
	// <dir(Runtime)>/../lib.
	LibraryRoot string

	// RunBuild / RunTests enable the external build and test steps.
	RunBuild bool
	RunTests bool

	// Chain names the operation chain ("tar", "tar.gz", "tar.bz2",
	// "tar.zst"). Empty means "tar".
	Chain string

	// VersionFile adds the synthetic VERSION marker entry.
	VersionFile bool

	// DryRun resolves everything but writes nothing.
	DryRun bool

	// StrictRules makes a copy rule that matches no files fatal.
	StrictRules bool

	// Stdout / Stderr receive external step output. Nil defaults to the
	// process streams.
	Stdout io.Writer
	Stderr io.Writer
}

// Bundler drives one assembly run.
type Bundler struct {
	cfg    Config
	logger hclog.Logger
}

// New creates a bundler for one run of the given configuration.
func New(cfg Config, logger hclog.Logger) *Bundler {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "dist"
	}
	if cfg.ProjectFile == "" {
		cfg.ProjectFile = "project.yaml"
	}
	if cfg.Chain == "" {
		cfg.Chain = "tar"
	}
	return &Bundler{cfg: cfg, logger: logger}
}

// Run executes the pipeline and returns the output archive path. A dry run
// returns an empty path: success, zero filesystem writes.
func (b *Bundler) Run() (string, error) {
	if b.cfg.Executable == "" {
		return "", fmt.Errorf("%w: no primary executable given", muleerrors.ErrConfiguration)
	}

	meta, err := project.Load(b.cfg.ProjectFile)
	if err != nil {
		return "", err
	}

	name := meta.Name
	if b.cfg.BaseName != "" {
		name = b.cfg.BaseName
	}
	b.logger.Info("📦 Assembling package", "name", name, "version", meta.Version,
		"platform", runtime.GOOS, "arch", runtime.GOARCH)

	if err := b.runExternalSteps(meta); err != nil {
		return "", err
	}

	m, err := b.buildManifest(meta)
	if err != nil {
		return "", err
	}

	if err := manifest.NewResolver(b.logger).Resolve(m); err != nil {
		return "", err
	}

	if b.cfg.DryRun {
		b.logger.Info("🌵 Dry run, nothing written", "entries", m.Len())
		return "", nil
	}

	data, ext, err := archive.NewWriter(b.logger).Write(m, b.cfg.Chain)
	if err != nil {
		return "", err
	}

	outPath := filepath.Join(b.cfg.OutputDir,
		fmt.Sprintf("%s-%s-%s-%s%s", name, meta.Version, runtime.GOOS, runtime.GOARCH, ext))
	if err := writeAtomic(outPath, data); err != nil {
		return "", err
	}

	b.logger.Info("✅ Successfully assembled package",
		"output", outPath,
		"package", name,
		"version", meta.Version,
		"entries", m.Len(),
		"size", fmt.Sprintf("%.2f MB", float64(len(data))/(1024*1024)))
	return outPath, nil
}

// runExternalSteps runs build, test and auxiliary scripts, strictly in that
// order, each to completion before the next starts.
func (b *Bundler) runExternalSteps(meta *project.Metadata) error {
	runner := NewStepRunner(b.logger, b.cfg.Stdout, b.cfg.Stderr)

	if b.cfg.RunBuild {
		if meta.Build.Command == "" {
			return fmt.Errorf("%w: build step enabled but project file has no build.command", muleerrors.ErrConfiguration)
		}
		if err := runner.RunCommand("build", meta.Build.Command); err != nil {
			return err
		}
	}

	if b.cfg.RunTests {
		if meta.Test.Command == "" {
			return fmt.Errorf("%w: test step enabled but project file has no test.command", muleerrors.ErrConfiguration)
		}
		if err := runner.RunCommand("test", meta.Test.Command); err != nil {
			return err
		}
	}

	for _, script := range b.cfg.Scripts {
		if err := runner.RunScript(script); err != nil {
			return err
		}
	}

	return nil
}

// buildManifest assembles the literal entries from configuration and hands
// everything to the manifest builder.
func (b *Bundler) buildManifest(meta *project.Metadata) (*manifest.Manifest, error) {
	var synthetics []manifest.SyntheticEntry
	if b.cfg.VersionFile {
		synthetics = append(synthetics, manifest.SyntheticEntry{
			Dest:    VersionFileName,
			Content: []byte(meta.Version + "\n"),
			Mode:    versionFileMode,
		})
	}

	literals := []manifest.LiteralEntry{
		{Source: b.cfg.Executable, Dest: filepath.Base(b.cfg.Executable)},
	}
	if b.cfg.Runtime != "" {
		literals = append(literals, manifest.LiteralEntry{
			Source: b.cfg.Runtime,
			Dest:   "runtime/bin/" + filepath.Base(b.cfg.Runtime),
		})
	}

	rules, err := manifest.ParseCopyRules(b.cfg.CopyRules)
	if err != nil {
		return nil, err
	}

	libraryRoot := b.cfg.LibraryRoot
	if libraryRoot == "" && len(b.cfg.Libraries) > 0 {
		if b.cfg.Runtime == "" {
			return nil, fmt.Errorf("%w: library groups given but no runtime or library root", muleerrors.ErrConfiguration)
		}
		libraryRoot = filepath.Join(filepath.Dir(b.cfg.Runtime), "..", "lib")
	}

	builder := manifest.NewBuilder(b.cfg.StrictRules, b.logger)
	return builder.Build(synthetics, literals, rules, b.cfg.Libraries, libraryRoot)
}

// writeAtomic writes the archive through a temp file and renames it into
// place, so no partial file is ever observed at the final path.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, outputDirMode); err != nil {
		return fmt.Errorf("%w: creating output directory %s: %v", muleerrors.ErrEncoding, dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".packmule-*")
	if err != nil {
		return fmt.Errorf("%w: creating temp file in %s: %v", muleerrors.ErrEncoding, dir, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w: writing archive: %v", muleerrors.ErrEncoding, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: closing archive: %v", muleerrors.ErrEncoding, err)
	}

	if err := os.Chmod(tmpPath, archiveFileMode); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: setting archive permissions: %v", muleerrors.ErrEncoding, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: moving archive into place: %v", muleerrors.ErrEncoding, err)
	}

	return nil
}
