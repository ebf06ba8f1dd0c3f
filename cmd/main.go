package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
	"github.com/jaxxstorm/versgen"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Version will be set by build process
var Version = "dev"

// errMismatch is returned after a version mismatch was reported during a tag push
var errMismatch = errors.New("version mismatch on tag push")

type CLI struct {
	Repo        string `short:"r" default:"." help:"Repository path"`
	EnvFile     string `help:"Dotenv file with fallback values for the CI environment variables"`
	Output      string `help:"Pipeline output file to append key=value lines to (default: $GITHUB_OUTPUT)"`
	GitBackend  string `default:"exec" enum:"exec,native" help:"Use the git binary (exec) or go-git (native)"`
	Unshallow   bool   `default:"true" negatable:"" help:"Fetch the complete history before describing"`
	JSON        bool   `short:"j" help:"Output as JSON"`
	Verbose     bool   `short:"v" help:"Enable debug logging"`
	ShowVersion bool   `help:"Show version information" name:"version"`

	stdout io.Writer
	stderr io.Writer
	lookup versgen.LookupFunc
}

func main() {
	var cli CLI

	kong.Parse(&cli,
		kong.Name("versgen"),
		kong.Description("Derive version identifiers for CI from git tags, CI event context and package manifests"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": Version,
		},
	)

	err := cli.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func (c *CLI) Run() error {
	if c.stdout == nil {
		c.stdout = os.Stdout
	}
	if c.stderr == nil {
		c.stderr = os.Stderr
	}

	if c.ShowVersion {
		return c.showVersion()
	}

	logger, err := newLogger(c.Verbose)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	return c.generate(context.Background(), logger)
}

func (c *CLI) showVersion() error {
	versionInfo := map[string]string{
		"version": Version,
		"name":    "versgen",
	}

	if c.JSON {
		return json.NewEncoder(c.stdout).Encode(versionInfo)
	}

	fmt.Fprintf(c.stdout, "versgen version %s\n", Version)
	return nil
}

func (c *CLI) generate(ctx context.Context, logger *zap.Logger) error {
	lookup, err := c.environment()
	if err != nil {
		return err
	}

	backend, err := c.gitBackend()
	if err != nil {
		return err
	}

	facts, err := versgen.Gather(ctx, versgen.GatherOptions{
		Dir:       c.Repo,
		Git:       backend,
		Env:       versgen.EnvironmentFromLookup(lookup),
		Unshallow: c.Unshallow,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	info := versgen.Evaluate(facts)
	fields := info.Fields()

	// Annotations share stdout with the key=value lines, but must not break a JSON document
	annotations := c.stdout
	if c.JSON {
		annotations = c.stderr
		if err := json.NewEncoder(c.stdout).Encode(info); err != nil {
			return err
		}
	} else if err := versgen.WriteFields(c.stdout, fields); err != nil {
		return err
	}

	outputFile := c.Output
	if outputFile == "" {
		outputFile, _ = lookup(versgen.EnvOutput)
	}
	if outputFile != "" {
		if err := versgen.AppendOutputFile(outputFile, fields); err != nil {
			return err
		}
		logger.Debug("wrote pipeline output", zap.String("path", outputFile))
	}

	return report(annotations, logger, info)
}

// environment builds the variable lookup: the process environment wins over
// values from --env-file.
func (c *CLI) environment() (versgen.LookupFunc, error) {
	base := c.lookup
	if base == nil {
		base = versgen.ProcessLookup()
	}
	if c.EnvFile == "" {
		return base, nil
	}

	values, err := godotenv.Read(c.EnvFile)
	if err != nil {
		return nil, fmt.Errorf("reading env file: %w", err)
	}
	return versgen.ChainLookup(base, versgen.MapLookup(values)), nil
}

func (c *CLI) gitBackend() (versgen.Git, error) {
	if c.GitBackend != "native" {
		return versgen.NewExecGit(c.Repo), nil
	}

	repo, err := versgen.OpenRepository(c.Repo)
	if err != nil {
		return nil, fmt.Errorf("opening repository: %w", err)
	}
	return versgen.NewNativeGit(repo), nil
}

// report prints the mismatch annotations and fails the run on a tag push
func report(w io.Writer, logger *zap.Logger, info versgen.Info) error {
	for _, a := range info.Annotations() {
		fmt.Fprintln(w, a)
	}

	for _, m := range info.Mismatches {
		fields := []zap.Field{zap.String("message", m.Message)}
		if m.File != "" {
			fields = append(fields, zap.String("file", m.File))
		}
		if info.Fatal() {
			logger.Error("version mismatch", fields...)
		} else {
			logger.Warn("version mismatch", fields...)
		}
	}

	if info.Fatal() {
		return fmt.Errorf("%w: %s", errMismatch, *info.VersionMismatch)
	}
	return nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}
