package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/georgy7/code2fodt/internal/document"
	"github.com/georgy7/code2fodt/internal/output"
	"github.com/georgy7/code2fodt/internal/render"
)

const (
	defaultVolumeThreshold = 500000
	defaultTabSize         = 8
	maxTabSize             = 8
	defaultTokenModel      = "gpt-4o"
)

var title string
var shortDescription string
var templatePath string
var volumeThreshold int
var tabSize int
var probeFlag string
var hashFlag string
var overloadFlag string
var configPath string
var profile string
var includePatterns []string
var excludePatterns []string
var tokenReport bool
var tokenModel string
var verbose bool

// options is the merged result of flags and the config file.
type options struct {
	out              string
	title            string
	shortDescription string
	templatePath     string
	threshold        int
	tabSize          int
	probe            string
	hash             render.HashAlgorithm
	overload         render.OverloadPolicy
	include          []string
	exclude          []string
	tokenReport      bool
	tokenModel       string
	verbose          bool
}

var rootCmd = &cobra.Command{
	Use:   "code2fodt [flags] OUT.fodt",
	Short: "Prepare a git repository for printing with LibreOffice",
	Long: `code2fodt renders every tracked file of the git repository in the current
directory into OpenDocument Flat XML text documents, ready for multi-column
printing with a very small font. Large repositories are split into volumes:
OUT.fodt, OUT.volume2.fodt and so on.

The repository must be clean. Untracked files are ignored.`,
	Example:       `  code2fodt --title="MyProject" print_me.fodt`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		printer := output.NewPrinter(cmd.ErrOrStderr(), output.IsTTY(cmd.ErrOrStderr()))
		opts, err := resolveOptions(cmd, printer, args[0], ".")
		if err != nil {
			return err
		}
		logger := newLogger(cmd.ErrOrStderr(), opts.verbose)
		return run(cmd.Context(), opts, printer, logger)
	},
}

func init() {
	registerFlags(rootCmd)
}

// registerFlags binds the flags to the package variables and resets them
// to their defaults.
func registerFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&title, "title", "", "Document (project) title (required)")
	cmd.Flags().StringVarP(&shortDescription, "short-description", "d", "", "Subtitle; more than 500 characters is not recommended")
	cmd.Flags().StringVar(&templatePath, "template", "", "Template in OpenDocument Flat XML format (default: built-in A4, 3 columns)")
	cmd.Flags().IntVarP(&volumeThreshold, "volume-loc-threshold", "v", defaultVolumeThreshold, "After this number of lines, the next source file starts a new volume; 100000 or less prints directly from LibreOffice")
	cmd.Flags().IntVar(&tabSize, "tab-size", defaultTabSize, "Tab size (0-8)")
	cmd.Flags().StringVar(&probeFlag, "probe", probeModeFile, "Content encoding probe: file or chardet")
	cmd.Flags().StringVar(&hashFlag, "hash", "md5", "Digest printed for binary files: md5, sha256 or blake3")
	cmd.Flags().StringVar(&overloadFlag, "on-decode-overload", "abort", "What to do with a file full of undecodable characters: abort or skip")
	cmd.Flags().StringVar(&configPath, "config", "", "Config file (default: .code2fodt.yaml, .code2fodt.yml or .code2fodt.toml if present)")
	cmd.Flags().StringVar(&profile, "profile", defaultProfile, "Config profile adding include/exclude patterns")
	cmd.Flags().StringArrayVarP(&includePatterns, "include", "i", nil, "Only print files matching this glob (repeatable)")
	cmd.Flags().StringArrayVarP(&excludePatterns, "exclude", "e", nil, "Skip files matching this glob; a trailing / excludes a directory (repeatable)")
	cmd.Flags().BoolVar(&tokenReport, "token-report", false, "Print token counts of the rendered files to stderr")
	cmd.Flags().StringVar(&tokenModel, "token-model", defaultTokenModel, "Tokenizer model for --token-report")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "Log debug details")
}

// resolveOptions merges flags over the config file found in dir and
// validates the result.
func resolveOptions(cmd *cobra.Command, printer *output.Printer, out string, dir string) (options, error) {
	flags := cmd.Flags()

	path := configPath
	if path == "" {
		found, err := findConfigFile(dir)
		if err != nil {
			return options{}, output.NewUserError(fmt.Sprintf("failed to look for config file: %v", err))
		}
		path = found
	}
	cfg := &configFile{}
	if path != "" {
		loaded, err := readConfigFile(path)
		if err != nil {
			return options{}, output.NewUserError(err.Error())
		}
		cfg = loaded
	}

	opts := options{
		out:              out,
		title:            pick(flags.Changed("title"), title, cfg.Title),
		shortDescription: pick(flags.Changed("short-description"), shortDescription, cfg.ShortDescription),
		templatePath:     pick(flags.Changed("template"), templatePath, cfg.Template),
		threshold:        volumeThreshold,
		tabSize:          tabSize,
		tokenReport:      tokenReport,
		tokenModel:       tokenModel,
		verbose:          verbose,
	}
	if !flags.Changed("volume-loc-threshold") && cfg.VolumeLOCThreshold != 0 {
		opts.threshold = cfg.VolumeLOCThreshold
	}
	if !flags.Changed("tab-size") && cfg.TabSize != nil {
		opts.tabSize = *cfg.TabSize
	}

	if opts.title == "" {
		return options{}, output.NewUserError("--title is required")
	}
	if err := validateOut(out); err != nil {
		return options{}, err
	}
	if opts.threshold < 1 {
		return options{}, output.NewUserError("--volume-loc-threshold: Must be greater than or equal 1.")
	}
	if err := validateTabSize(opts.tabSize); err != nil {
		return options{}, err
	}

	probe, err := resolveProbeMode(cfg.Probe, probeFlag, flags.Changed("probe"))
	if err != nil {
		return options{}, output.NewUserError(err.Error())
	}
	opts.probe = probe

	opts.hash, err = render.HashByName(pick(flags.Changed("hash"), hashFlag, cfg.Hash))
	if err != nil {
		return options{}, output.NewUserError(err.Error())
	}
	opts.overload, err = render.ParseOverloadPolicy(pick(flags.Changed("on-decode-overload"), overloadFlag, cfg.OnDecodeOverload))
	if err != nil {
		return options{}, output.NewUserError(err.Error())
	}

	rules := cfg.rules(profile)
	opts.include = append(rules.include, includePatterns...)
	opts.exclude = append(rules.exclude, excludePatterns...)

	if hasProfiles, hasProfile, hasDefault := cfg.profileInfo(profile); hasProfiles && !hasProfile && flags.Changed("profile") {
		fallback := "no profile"
		if hasDefault {
			fallback = "the default profile"
		}
		printer.Info("Profile %q not found in %s, using %s.", profile, path, fallback)
	}
	return opts, nil
}

// pick returns the flag value when the flag was set, the config value
// otherwise.
func pick(changed bool, flagValue string, configValue string) string {
	if changed || configValue == "" {
		return flagValue
	}
	return configValue
}

func validateOut(out string) error {
	if !strings.HasSuffix(out, document.Extension) {
		return output.NewUserError("Output filename must have extension fodt.")
	}
	return nil
}

func validateTabSize(n int) error {
	if n < 0 {
		return output.NewUserError("Tab must be greater than or equal 0.")
	}
	if n > maxTabSize {
		return output.NewUserError("Tab must be less than or equal " + strconv.Itoa(maxTabSize) + ".")
	}
	return nil
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		printer := output.NewPrinter(os.Stderr, output.IsTTY(os.Stderr))
		printer.Error(err)
		os.Exit(output.GetExitCode(err))
	}
}
