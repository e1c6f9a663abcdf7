package docgen

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"path"
	"strings"
	"text/template"

	"github.com/julianshen/docgen/internal/logging"
	"github.com/julianshen/docgen/internal/source"
)

const defaultModulePrompt = `You are a senior engineer writing reference documentation for the {{.Dir}} of the project{{with .Project.Name}} "{{.}}"{{end}}.

Document the source files listed below as one Markdown page:
- start with a level-one heading naming the module and a short summary of its purpose;
- describe each file, its main types and functions and how they work together;
- note external dependencies, configuration and side effects;
- do not invent behaviour that is not visible in the code.

Answer with the Markdown page only.`

// GeneratorConfig controls how directory documentation is requested.
type GeneratorConfig struct {
	MaxAttempts  int    // poll attempts per question; <= 0 uses the backend default
	CloseDialogs bool   // close each conversation after use
	ModulePrompt string // text/template source; empty uses the built-in prompt
}

// Generator produces the documentation of one directory at a time.
type Generator struct {
	src       source.Source
	assistant Assistant
	cfg       GeneratorConfig
	tmpl      *template.Template
}

// NewGenerator parses the module prompt template.
func NewGenerator(src source.Source, assistant Assistant, cfg GeneratorConfig) (*Generator, error) {
	text := cfg.ModulePrompt
	if strings.TrimSpace(text) == "" {
		text = defaultModulePrompt
	}
	tmpl, err := template.New("module").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parsing module prompt: %w", err)
	}
	return &Generator{src: src, assistant: assistant, cfg: cfg, tmpl: tmpl}, nil
}

// Generate documents the files of dir. It never fails: a file that cannot
// be read is left out of the prompt and an AI failure yields a Failed
// document describing the error.
func (g *Generator) Generate(ctx context.Context, dir string, files []string, project Project) Document {
	prompt, included, err := g.Prompt(ctx, dir, files, project)
	if err != nil {
		return failedDocument(dir, err)
	}

	conv := g.assistant.NewConversation()
	if g.cfg.CloseDialogs {
		defer closeConversation(ctx, conv, displayDir(dir))
	}

	answer, err := conv.Ask(ctx, prompt, g.cfg.MaxAttempts)
	if err != nil {
		log.Printf("ERROR: documentation for %q failed: %v", displayDir(dir), err)
		doc := failedDocument(dir, err)
		doc.Files = included
		return doc
	}
	return Document{Dir: dir, Content: answer, Files: included}
}

// Prompt assembles the question for dir and reports how many files it
// contains.
func (g *Generator) Prompt(ctx context.Context, dir string, files []string, project Project) (string, int, error) {
	var b strings.Builder
	if err := g.tmpl.Execute(&b, promptData{Dir: displayDir(dir), Project: project}); err != nil {
		return "", 0, fmt.Errorf("rendering module prompt: %w", err)
	}
	fmt.Fprintf(&b, "\n\n## FILES OF DIRECTORY %s\n\n", displayDir(dir))

	included := 0
	for _, p := range files {
		file, err := g.src.ReadFile(ctx, project.Repository, project.Branch, p)
		if err != nil {
			log.Printf("WARNING: skipping file %s: %v", p, err)
			continue
		}
		writeFileSection(&b, p, file.Content, fenceLang(p))
		included++
	}
	logging.Debugf("prompt for %q: %d/%d files, %d bytes", displayDir(dir), included, len(files), b.Len())

	if instr := instructions(project); instr != "" {
		fmt.Fprintf(&b, "## ADDITIONAL INSTRUCTIONS\n\n%s\n", instr)
	}
	return b.String(), included, nil
}

type promptData struct {
	Dir     string
	Project Project
}

func instructions(p Project) string {
	var parts []string
	if s := strings.TrimSpace(p.Instructions); s != "" {
		parts = append(parts, s)
	}
	if lang := strings.TrimSpace(p.Language); lang != "" {
		parts = append(parts, fmt.Sprintf("Write the documentation in %s.", lang))
	}
	return strings.Join(parts, "\n\n")
}

func failedDocument(dir string, err error) Document {
	return Document{
		Dir:     dir,
		Content: fmt.Sprintf("# Documentation generation failed\n\nDirectory: %s\nError: %v", displayDir(dir), err),
		Failed:  true,
	}
}

// closeConversation closes conv; label names what the dialog was about.
func closeConversation(ctx context.Context, conv Conversation, label string) {
	if err := conv.Close(ctx); err != nil {
		log.Printf("WARNING: closing dialog for %q: %v", label, err)
	}
}

// writeFileSection appends a "### File:" heading and the fenced content.
func writeFileSection(b *strings.Builder, name, content, lang string) {
	fence := fenceFor(content)
	fmt.Fprintf(b, "### File: %s\n\n%s%s\n%s", name, fence, lang, content)
	if !strings.HasSuffix(content, "\n") {
		b.WriteByte('\n')
	}
	fmt.Fprintf(b, "%s\n\n", fence)
}

// fenceFor returns a backtick fence longer than any backtick run in content.
func fenceFor(content string) string {
	longest, run := 0, 0
	for i := 0; i < len(content); i++ {
		if content[i] == '`' {
			run++
			longest = max(longest, run)
		} else {
			run = 0
		}
	}
	return strings.Repeat("`", max(3, longest+1))
}

var fenceLangs = map[string]string{
	".py": "python",
	".js": "javascript",
	".ts": "typescript",
	".go": "go",
	".rs": "rust",
	".cs": "csharp",
	".md": "markdown",
}

func fenceLang(p string) string {
	return fenceLangs[strings.ToLower(path.Ext(p))]
}

// execTemplate renders tmpl into a string.
func execTemplate(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
