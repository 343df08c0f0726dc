package main

import (
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/spf13/cobra"

	"github.com/packmule-io/packmule/pkg/bundler"
	"github.com/packmule-io/packmule/pkg/logging"
)

const version = "0.2.0"

var (
	runtimeBin  string
	outputDir   string
	baseName    string
	projectFile string
	copyRules   []string
	scripts     []string
	libraries   []string
	libraryRoot string
	runBuild    bool
	runTests    bool
	compress    bool
	compression string
	versionFile bool
	dryRun      bool
	strictRules bool
	verbose     bool
	logLevel    string
	versionFlag bool
	rootCmd     *cobra.Command
)

func getBuildTimestamp() string {
	// Try to get vcs.time from build info
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.time" {
				if t, err := time.Parse(time.RFC3339, setting.Value); err == nil {
					return t.UTC().Format(time.RFC3339)
				}
			}
		}
	}
	// Fallback to binary modification time
	if exePath, err := os.Executable(); err == nil {
		if stat, err := os.Stat(exePath); err == nil {
			return stat.ModTime().UTC().Format(time.RFC3339)
		}
	}
	return time.Now().UTC().Format(time.RFC3339)
}

func init() {
	rootCmd = &cobra.Command{
		Use:   "packmule <executable>",
		Short: "Assemble an application, its runtime and support files into a versioned archive",
		Long: `packmule assembles a runnable application, its runtime interpreter and
support files into a single versioned, optionally compressed tar archive.`,
		Args: cobra.ExactArgs(1),
		RunE: assemble,
	}

	rootCmd.Flags().StringVarP(&runtimeBin, "runtime", "r", "", "Path to the runtime interpreter binary to bundle")
	rootCmd.Flags().StringVarP(&outputDir, "output-dir", "o", "dist", "Output directory for the archive")
	rootCmd.Flags().StringVarP(&baseName, "name", "n", "", "Override the package name from the project file")
	rootCmd.Flags().StringVarP(&projectFile, "project", "p", "project.yaml", "Path to the project metadata file")
	rootCmd.Flags().StringArrayVarP(&copyRules, "copy", "c", nil, "Copy rule \"pattern[:dest]\" (repeatable)")
	rootCmd.Flags().StringArrayVarP(&scripts, "script", "s", nil, "Auxiliary script to run before assembly (repeatable)")
	rootCmd.Flags().StringArrayVarP(&libraries, "lib", "l", nil, "Runtime library group to bundle (repeatable)")
	rootCmd.Flags().StringVar(&libraryRoot, "lib-root", "", "Runtime library root (defaults relative to --runtime)")
	rootCmd.Flags().BoolVar(&runBuild, "build", false, "Run the project's build command first")
	rootCmd.Flags().BoolVar(&runTests, "test", false, "Run the project's test command")
	rootCmd.Flags().BoolVarP(&compress, "compress", "z", false, "Gzip the archive (same as --compression tar.gz)")
	rootCmd.Flags().StringVar(&compression, "compression", "", "Operation chain: tar, tar.gz, tar.bz2, tar.zst")
	rootCmd.Flags().BoolVar(&versionFile, "version-file", false, "Include a generated VERSION marker in the archive")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Resolve everything but write nothing")
	rootCmd.Flags().BoolVar(&strictRules, "strict-rules", false, "Fail when a copy rule matches no files")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output (log level debug)")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	rootCmd.Flags().BoolVarP(&versionFlag, "version", "V", false, "Show version information")

	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
}

func main() {
	// Handle --version or -V before cobra parses other flags
	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "-V") {
		fmt.Printf("packmule %s\n", version)
		fmt.Printf("Built: %s\n", getBuildTimestamp())
		os.Exit(0)
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func assemble(cmd *cobra.Command, args []string) error {
	if versionFlag {
		fmt.Printf("packmule %s\n", version)
		fmt.Printf("Built: %s\n", getBuildTimestamp())
		return nil
	}

	level := logLevel
	if level == "" {
		level = logging.GetLogLevel()
	}
	if verbose && level != "trace" {
		level = "debug"
	}
	logger := logging.NewLogger("packmule", level, os.Stderr)

	chain := compression
	if chain == "" && compress {
		chain = "tar.gz"
	}

	cfg := bundler.Config{
		Executable:  args[0],
		Runtime:     runtimeBin,
		OutputDir:   outputDir,
		BaseName:    baseName,
		ProjectFile: projectFile,
		CopyRules:   copyRules,
		Scripts:     scripts,
		Libraries:   libraries,
		LibraryRoot: libraryRoot,
		RunBuild:    runBuild,
		RunTests:    runTests,
		Chain:       chain,
		VersionFile: versionFile,
		DryRun:      dryRun,
		StrictRules: strictRules,
	}

	if _, err := bundler.New(cfg, logger).Run(); err != nil {
		logger.Error("❌ Assembly failed", "error", err)
		return err
	}
	return nil
}
