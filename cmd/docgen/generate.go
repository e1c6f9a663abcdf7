// cmd/docgen/generate.go
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/julianshen/docgen/internal/config"
	"github.com/julianshen/docgen/internal/dialog"
	"github.com/julianshen/docgen/internal/docgen"
	"github.com/julianshen/docgen/internal/integrations"
	"github.com/julianshen/docgen/internal/logging"
	"github.com/julianshen/docgen/internal/output"
	"github.com/julianshen/docgen/internal/publish"
	"github.com/julianshen/docgen/internal/runner"
	"github.com/julianshen/docgen/internal/source"
	"github.com/julianshen/docgen/internal/store"
)

type generateFlags struct {
	project      string
	branch       string
	dir          string
	instructions string
	language     string
	output       string
	concurrency  int
	publish      string
	report       string
	strict       bool
}

func generateCmd() *cobra.Command {
	var flags generateFlags

	cmd := &cobra.Command{
		Use:   "generate [repository]",
		Short: "Generate documentation for a repository",
		Long: `Walk a repository, write one description.md per source directory and a
README.md overview, then optionally publish the result.

The repository is owner/name for GitHub and GitLab sources, or a path for
the local source. It may come from --project instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			closer, err := setupLogging(cfg)
			if err != nil {
				return err
			}
			defer closer.Close()

			return runGenerate(cmd.Context(), cfg, flags, args, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&flags.project, "project", "", "project manifest (YAML)")
	cmd.Flags().StringVar(&flags.branch, "branch", "", "branch to document (default from the manifest, else main)")
	cmd.Flags().StringVar(&flags.dir, "dir", "", "subdirectory to start from")
	cmd.Flags().StringVar(&flags.instructions, "instructions", "", "additional instructions for the assistant")
	cmd.Flags().StringVar(&flags.language, "language", "", "language of the documentation")
	cmd.Flags().StringVar(&flags.output, "output", "", "output directory (default a fresh temp dir)")
	cmd.Flags().IntVar(&flags.concurrency, "concurrency", 0, "parallel directory generations (default from config)")
	cmd.Flags().StringVar(&flags.publish, "publish", "", "publish target: s3, github, none (default from config)")
	cmd.Flags().StringVar(&flags.report, "report", "markdown", "report format: json, markdown")
	cmd.Flags().BoolVar(&flags.strict, "strict", false, "exit non-zero when any directory failed")

	return cmd
}

// runGenerate runs the pipeline described by cfg, flags and args and writes
// the report to out.
func runGenerate(ctx context.Context, cfg *config.Config, flags generateFlags, args []string, out io.Writer) error {
	formatter, err := output.NewFormatter(flags.report)
	if err != nil {
		return err
	}

	manifest, err := resolveManifest(flags, args)
	if err != nil {
		return err
	}
	applyGenerateFlags(cfg, flags, manifest)
	if err := cfg.Validate(); err != nil {
		return err
	}

	src, err := openSource(cfg, manifest)
	if err != nil {
		return err
	}
	project, err := buildProject(ctx, cfg, flags, manifest)
	if err != nil {
		return err
	}
	assistant, err := newAssistant(ctx, cfg)
	if err != nil {
		return err
	}
	opts, cleanup, err := pipelineOptions(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := docgen.NewPipeline(src, assistant, opts).Run(ctx, project)
	if err != nil {
		return fmt.Errorf("generating documentation: %w", err)
	}

	report := newReport(project, result)
	if cfg.Source.Provider == "local" {
		if head, err := integrations.NewGitRunner(manifest.Repository).Head(ctx); err == nil {
			report.Commit = head.Hash
		}
	}
	if pub, err := newPublisher(cfg, manifest); err != nil {
		return err
	} else if pub != nil {
		url, err := pub.Publish(ctx, result.OutputDir, result.RunID)
		if err != nil {
			log.Printf("ERROR: publishing %s: %v", result.OutputDir, err)
			report.Error = fmt.Sprintf("publishing: %v", err)
		}
		report.PublishURL = url
	}

	data, err := formatter.Format(report)
	if err != nil {
		return fmt.Errorf("formatting report: %w", err)
	}
	if _, err := out.Write(data); err != nil {
		return err
	}

	if code := runner.ExitCodeFromReport(report, flags.strict); code != runner.ExitOK {
		return &runner.ExitError{Code: code}
	}
	return nil
}

// resolveManifest loads --project when given and lets a positional
// repository override the manifest's.
func resolveManifest(flags generateFlags, args []string) (*config.Project, error) {
	manifest := &config.Project{}
	if flags.project != "" {
		loaded, err := config.LoadProject(flags.project)
		if err != nil {
			return nil, err
		}
		manifest = loaded
	}
	if len(args) > 0 {
		manifest.Repository = args[0]
	}
	if strings.TrimSpace(manifest.Repository) == "" {
		return nil, fmt.Errorf("no repository: pass one as an argument or set it in --project")
	}
	if manifest.Name == "" {
		manifest.Name = projectName(manifest.Repository)
	}
	return manifest, nil
}

// projectName derives a name from a repository reference or local path.
func projectName(repo string) string {
	ref := source.NormalizeRepo(repo)
	if abs, err := filepath.Abs(repo); err == nil && (ref == "." || ref == "..") {
		ref = abs
	}
	name := path.Base(filepath.ToSlash(ref))
	if name == "." || name == "/" {
		return "project"
	}
	return name
}

// applyGenerateFlags folds command-line overrides into cfg.
func applyGenerateFlags(cfg *config.Config, flags generateFlags, manifest *config.Project) {
	if flags.output != "" {
		cfg.Generate.OutputDir = flags.output
	}
	if flags.concurrency > 0 {
		cfg.Generate.Concurrency = flags.concurrency
	}
	switch flags.publish {
	case "":
	case "none":
		cfg.Publish.Target = ""
	default:
		cfg.Publish.Target = flags.publish
	}
	if cfg.Publish.GitHub.Repository == "" && manifest.DocsRepository != "" {
		cfg.Publish.GitHub.Repository = manifest.DocsRepository
	}
}

// buildProject merges the manifest with the command-line flags. For a local
// source, DOCGEN.md at the repository root is appended to the instructions.
func buildProject(ctx context.Context, cfg *config.Config, flags generateFlags, manifest *config.Project) (docgen.Project, error) {
	project := docgen.Project{
		Name:         manifest.Name,
		Repository:   manifest.Repository,
		Branch:       manifest.Branch(),
		Directory:    manifest.Directory,
		Instructions: manifest.Instructions,
		Language:     manifest.DocLanguage,
	}
	if cfg.Source.Provider != "local" {
		project.Repository = source.NormalizeRepo(project.Repository)
	}
	if flags.branch != "" {
		project.Branch = flags.branch
	}
	if flags.dir != "" {
		project.Directory = flags.dir
	}
	if flags.instructions != "" {
		project.Instructions = flags.instructions
	}
	if flags.language != "" {
		project.Language = flags.language
	}

	if cfg.Source.Provider == "local" {
		// A working copy documents what is checked out.
		if flags.branch == "" && len(manifest.Branches) == 0 {
			if branch, err := integrations.NewGitRunner(manifest.Repository).CurrentBranch(ctx); err == nil && branch != "" {
				project.Branch = branch
			} else if err != nil {
				logging.Debugf("no git branch for %s: %v", manifest.Repository, err)
			}
		}
		extra, err := config.LoadInstructionsFile(manifest.Repository)
		if err != nil {
			return docgen.Project{}, fmt.Errorf("reading %s: %w", config.InstructionsFile, err)
		}
		if extra != "" {
			project.Instructions = strings.TrimSpace(project.Instructions + "\n\n" + extra)
		}
	}
	return project, nil
}

// openSource builds the repository source. The manifest's access token wins
// over the configured one; a missing token is fine for public repositories.
func openSource(cfg *config.Config, manifest *config.Project) (source.Source, error) {
	token := manifest.AccessToken
	if token == "" && cfg.Source.Provider != "local" {
		resolved, err := config.ResolveSecret(cfg.Source.TokenSource, cfg.Source.Token, config.EnvSourceToken)
		if err != nil {
			log.Printf("WARNING: no source token (%v); only public repositories are readable", err)
		}
		token = resolved
	}
	return source.Open(source.Options{
		Provider:          cfg.Source.Provider,
		BaseURL:           cfg.Source.BaseURL,
		Token:             token,
		RequestsPerSecond: cfg.Source.RequestsPerSecond,
		Burst:             cfg.Source.Burst,
		CacheSize:         cfg.Source.CacheSize,
	}, manifest.Repository)
}

// newAssistant builds the configured AI backend.
func newAssistant(ctx context.Context, cfg *config.Config) (docgen.Assistant, error) {
	key, err := config.ResolveSecret(cfg.AI.APIKeySource, cfg.AI.APIKey, cfg.AI.KeyEnvVar())
	if err != nil {
		return nil, fmt.Errorf("resolving AI key: %w", err)
	}

	switch cfg.AI.Backend {
	case "gemini":
		gemini, err := integrations.NewGeminiAssistant(ctx, integrations.GeminiConfig{
			APIKey:        key,
			Model:         cfg.AI.GeminiModel,
			RetryInterval: cfg.AI.RetryInterval(),
		})
		if err != nil {
			return nil, err
		}
		return gemini, nil
	default:
		client := dialog.NewClient(dialog.Config{
			BaseURL:             cfg.AI.BaseURL,
			APIKey:              key,
			Domain:              cfg.AI.Domain,
			OperatingSystemCode: cfg.AI.OperatingSystemCode,
			ModelCode:           cfg.AI.ModelCode,
			RetryInterval:       cfg.AI.RetryInterval(),
			RetryCount:          cfg.AI.RetryCount,
			MaxAttempts:         cfg.AI.MaxAttempts,
		})
		return integrations.NewDialogAssistant(client), nil
	}
}

// pipelineOptions maps cfg onto docgen.Options and opens the run history.
// MaxAttempts stays zero so each backend applies its own default.
func pipelineOptions(cfg *config.Config) (docgen.Options, func(), error) {
	modulePrompt, err := config.LoadPrompt(cfg.Generate.ModulePrompt)
	if err != nil {
		return docgen.Options{}, nil, err
	}
	overviewPrompt, err := config.LoadPrompt(cfg.Generate.OverviewPrompt)
	if err != nil {
		return docgen.Options{}, nil, err
	}

	opts := docgen.Options{
		OutputDir: config.ExpandHome(cfg.Generate.OutputDir),
		Filter: docgen.Filter{
			Extensions: cfg.Generate.Extensions,
			Exclude:    cfg.Generate.Exclude,
		},
		Concurrency:    cfg.Generate.Concurrency,
		CloseDialogs:   cfg.AI.CloseDialogs,
		ModulePrompt:   modulePrompt,
		OverviewPrompt: overviewPrompt,
	}

	cleanup := func() {}
	if cfg.Store.Path != "" {
		s, err := store.NewStore(config.ExpandHome(cfg.Store.Path))
		if err != nil {
			// History is optional; the run goes on without it.
			log.Printf("WARNING: run history disabled: %v", err)
		} else {
			opts.Recorder = s
			cleanup = func() { s.Close() }
		}
	}
	return opts, cleanup, nil
}

// newPublisher returns the configured publisher, or nil when publishing is
// off.
func newPublisher(cfg *config.Config, manifest *config.Project) (publish.Publisher, error) {
	switch cfg.Publish.Target {
	case "":
		return nil, nil
	case "s3":
		s3 := cfg.Publish.S3
		access, err := config.ResolveSecret(s3.CredentialsFrom, s3.AccessKey, config.EnvS3AccessKey)
		if err != nil {
			return nil, fmt.Errorf("resolving s3 access key: %w", err)
		}
		secret, err := config.ResolveSecret(s3.CredentialsFrom, s3.SecretKey, config.EnvS3SecretKey)
		if err != nil {
			return nil, fmt.Errorf("resolving s3 secret key: %w", err)
		}
		pub, err := publish.NewS3Publisher(publish.S3Config{
			Endpoint:  s3.Endpoint,
			Region:    s3.Region,
			AccessKey: access,
			SecretKey: secret,
			Bucket:    s3.Bucket,
			Prefix:    s3.Prefix,
			Project:   manifest.Name,
			UseSSL:    s3.UseSSL,
		})
		if err != nil {
			return nil, err
		}
		return pub, nil
	case "github":
		gh := cfg.Publish.GitHub
		token, err := config.ResolveSecret(gh.TokenSource, gh.Token, config.EnvPublishToken)
		if err != nil {
			return nil, fmt.Errorf("resolving publish token: %w", err)
		}
		client, err := source.NewGitHubClient(token, gh.BaseURL)
		if err != nil {
			return nil, err
		}
		return publish.NewGitHubPublisher(client, publish.GitHubConfig{
			Repository: gh.Repository,
			Branch:     gh.Branch,
			Private:    gh.Private,
			Message:    fmt.Sprintf("Update %s documentation", manifest.Name),
		}), nil
	default:
		return nil, fmt.Errorf("unknown publish target %q", cfg.Publish.Target)
	}
}

func newReport(project docgen.Project, result *docgen.Result) *output.Report {
	report := &output.Report{
		RunID:      result.RunID,
		Project:    project.Name,
		Repository: project.Repository,
		Branch:     project.Branch,
		OutputDir:  result.OutputDir,
		Modules:    result.Modules,
		Failed:     result.Failed,
		DurationMs: result.Duration.Milliseconds(),
	}
	for _, d := range result.Documents {
		report.Documents = append(report.Documents, output.DocumentLine{
			Dir:    d.Dir,
			Path:   d.Path,
			Files:  d.Files,
			Bytes:  d.Bytes,
			Failed: d.Failed,
		})
	}
	return report
}
