package docgen

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/sourcegraph/conc/pool"

	"github.com/julianshen/docgen/internal/source"
)

// Options holds all pipeline configuration.
type Options struct {
	OutputDir      string // created when missing, earlier documents cleared; empty uses a fresh temp dir
	Filter         Filter
	Concurrency    int // parallel directory generations; <= 0 means 1
	MaxAttempts    int
	CloseDialogs   bool
	ModulePrompt   string
	OverviewPrompt string
	Recorder       Recorder // optional
	Now            func() time.Time
}

// Result summarises a pipeline run.
type Result struct {
	RunID     string
	OutputDir string
	Modules   int
	Documents []DocumentRecord
	Failed    []string // directories whose document is synthetic or unwritten
	Duration  time.Duration
}

// Pipeline runs Walk, Group, Generate and Synthesize for a project.
type Pipeline struct {
	src       source.Source
	assistant Assistant
	opts      Options
}

// NewPipeline returns a Pipeline. Zero options take their defaults.
func NewPipeline(src source.Source, assistant Assistant, opts Options) *Pipeline {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if len(opts.Filter.Extensions) == 0 {
		opts.Filter.Extensions = DefaultExtensions
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Pipeline{src: src, assistant: assistant, opts: opts}
}

// Run documents project. Failures of single files or directories are
// reflected in the output and in Result.Failed; only failures that prevent
// producing any output are returned.
func (p *Pipeline) Run(ctx context.Context, project Project) (*Result, error) {
	start := p.opts.Now()

	gen, err := NewGenerator(p.src, p.assistant, GeneratorConfig{
		MaxAttempts:  p.opts.MaxAttempts,
		CloseDialogs: p.opts.CloseDialogs,
		ModulePrompt: p.opts.ModulePrompt,
	})
	if err != nil {
		return nil, err
	}
	synth, err := NewSynthesizer(p.assistant, SynthesizerConfig{
		MaxAttempts:    p.opts.MaxAttempts,
		CloseDialogs:   p.opts.CloseDialogs,
		OverviewPrompt: p.opts.OverviewPrompt,
	})
	if err != nil {
		return nil, err
	}

	outDir, dirErr := prepareOutputDir(p.opts.OutputDir)
	res := &Result{OutputDir: outDir}
	if outDir == "" {
		res.OutputDir = p.opts.OutputDir
	}
	res.RunID = p.startRun(ctx, project, res.OutputDir, start)
	if dirErr != nil {
		p.finishRun(ctx, res, dirErr)
		return nil, dirErr
	}

	err = p.run(ctx, project, gen, synth, res)
	res.Duration = p.opts.Now().Sub(start)
	p.finishRun(ctx, res, err)
	if err != nil {
		return res, err
	}
	return res, nil
}

func (p *Pipeline) run(ctx context.Context, project Project, gen *Generator, synth *Synthesizer, res *Result) error {
	fs := osfs.New(res.OutputDir)

	log.Printf("docgen: walking %s@%s from %q", project.Repository, project.Branch, displayDir(cleanDir(project.Directory)))
	entries := Walk(ctx, p.src, project.Repository, project.Branch, project.Directory)
	if err := ctx.Err(); err != nil {
		return err
	}

	groups := Group(entries, p.opts.Filter)
	hierarchy := BuildHierarchy(groups)
	res.Modules = len(groups)
	log.Printf("docgen: %d entries, %d modules, %d files", len(entries), len(groups), groups.Files())

	var mu sync.Mutex
	workers := pool.New().WithMaxGoroutines(p.opts.Concurrency)
	for _, dir := range groups.Dirs() {
		files := groups[dir]
		workers.Go(func() {
			if ctx.Err() != nil {
				return
			}
			doc := gen.Generate(ctx, dir, files, project)
			name, err := WriteDocument(fs, doc)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Printf("ERROR: %v", err)
				res.Failed = append(res.Failed, dir)
				return
			}
			if doc.Failed {
				res.Failed = append(res.Failed, dir)
			}
			rec := DocumentRecord{Dir: dir, Path: name, Files: doc.Files, Failed: doc.Failed, Bytes: len(doc.Content)}
			res.Documents = append(res.Documents, rec)
			p.addDocument(ctx, res.RunID, rec)
		})
	}
	workers.Wait()
	if err := ctx.Err(); err != nil {
		return err
	}

	sort.Slice(res.Documents, func(i, j int) bool { return res.Documents[i].Dir < res.Documents[j].Dir })
	sort.Strings(res.Failed)

	log.Printf("docgen: synthesizing overview from %d documents", len(res.Documents))
	if err := synth.Synthesize(ctx, fs, hierarchy, project); err != nil {
		return fmt.Errorf("writing overview: %w", err)
	}
	return nil
}

func prepareOutputDir(dir string) (string, error) {
	if dir == "" {
		tmp, err := os.MkdirTemp("", "docgen_")
		if err != nil {
			return "", fmt.Errorf("creating output directory: %w", err)
		}
		return tmp, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	// Documents of modules that no longer exist must not reach the overview.
	if err := ClearDocuments(osfs.New(dir)); err != nil {
		return "", fmt.Errorf("clearing output directory: %w", err)
	}
	return dir, nil
}

func (p *Pipeline) startRun(ctx context.Context, project Project, outDir string, start time.Time) string {
	if p.opts.Recorder == nil {
		return ""
	}
	id, err := p.opts.Recorder.StartRun(ctx, RunInfo{
		Project:    project.Name,
		Repository: project.Repository,
		Branch:     project.Branch,
		OutputDir:  outDir,
		StartedAt:  start,
	})
	if err != nil {
		log.Printf("WARNING: recording run start: %v", err)
		return ""
	}
	return id
}

func (p *Pipeline) addDocument(ctx context.Context, runID string, rec DocumentRecord) {
	if p.opts.Recorder == nil || runID == "" {
		return
	}
	if err := p.opts.Recorder.AddDocument(ctx, runID, rec); err != nil {
		log.Printf("WARNING: recording document %s: %v", rec.Path, err)
	}
}

func (p *Pipeline) finishRun(ctx context.Context, res *Result, runErr error) {
	if p.opts.Recorder == nil || res.RunID == "" {
		return
	}
	summary := RunSummary{
		Status:     StatusCompleted,
		Documents:  len(res.Documents),
		FinishedAt: p.opts.Now(),
	}
	if runErr != nil {
		summary.Status = StatusFailed
		summary.Error = runErr.Error()
	}
	// The run context may already be cancelled; the ledger entry is still closed.
	if err := p.opts.Recorder.FinishRun(context.WithoutCancel(ctx), res.RunID, summary); err != nil {
		log.Printf("WARNING: recording run finish: %v", err)
	}
}
