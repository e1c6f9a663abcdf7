package docgen

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"path"
	"sort"
	"strings"
	"text/template"

	"github.com/ddddddO/gtree"
	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

const defaultOverviewPrompt = `You are writing the top-level README of the project{{with .Project.Name}} "{{.}}"{{end}}.

Below are the layout of the documentation, the source modules and the documentation already written for every module.
Combine them into one overview:
- a short description of what the project does;
- the architecture and how the modules relate to each other;
- a table of contents linking each module's description.md;
- how to get started, when the documentation says so.

Answer with the Markdown README only.`

// SynthesizerConfig controls how the overview is requested.
type SynthesizerConfig struct {
	MaxAttempts    int
	CloseDialogs   bool
	OverviewPrompt string // text/template source; empty uses the built-in prompt
}

// Synthesizer writes README.md from the generated documents.
type Synthesizer struct {
	assistant Assistant
	cfg       SynthesizerConfig
	tmpl      *template.Template
}

// NewSynthesizer parses the overview prompt template.
func NewSynthesizer(assistant Assistant, cfg SynthesizerConfig) (*Synthesizer, error) {
	text := cfg.OverviewPrompt
	if strings.TrimSpace(text) == "" {
		text = defaultOverviewPrompt
	}
	tmpl, err := template.New("overview").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parsing overview prompt: %w", err)
	}
	return &Synthesizer{assistant: assistant, cfg: cfg, tmpl: tmpl}, nil
}

// collectedDoc is one Markdown file found under the output root.
type collectedDoc struct {
	Path    string
	Content string
}

// Synthesize reads every document under fs and writes README.md at its
// root. Failures are written into a fallback README; the returned error is
// non-nil only when not even the fallback could be written.
func (s *Synthesizer) Synthesize(ctx context.Context, fs billy.Filesystem, h Hierarchy, project Project) error {
	content, err := s.overview(ctx, fs, h, project)
	if err != nil {
		log.Printf("ERROR: overview generation failed: %v", err)
		content = fmt.Sprintf("# Project documentation\n\nFailed to generate the overview: %v\n", err)
	}
	return writeAtomic(fs, overviewFile, []byte(content))
}

func (s *Synthesizer) overview(ctx context.Context, fs billy.Filesystem, h Hierarchy, project Project) (string, error) {
	docs, err := collectDocuments(fs)
	if err != nil {
		return "", fmt.Errorf("collecting documents: %w", err)
	}
	tree, err := RenderOutputTree(fs)
	if err != nil {
		return "", err
	}

	prompt, err := execTemplate(s.tmpl, promptData{Project: project})
	if err != nil {
		return "", fmt.Errorf("rendering overview prompt: %w", err)
	}

	var b strings.Builder
	b.WriteString(prompt)
	fmt.Fprintf(&b, "\n\n## PROJECT STRUCTURE\n\n```\n%s```\n\n", tree)
	if len(h) > 0 {
		modules, err := RenderHierarchy(h)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "## SOURCE MODULES\n\n```\n%s```\n\n", modules)
	}
	b.WriteString("## DOCUMENTATION FILES\n\n")
	for _, d := range docs {
		writeFileSection(&b, d.Path, d.Content, "markdown")
	}

	conv := s.assistant.NewConversation()
	if s.cfg.CloseDialogs {
		defer closeConversation(ctx, conv, "overview")
	}
	answer, err := conv.Ask(ctx, b.String(), s.cfg.MaxAttempts)
	if err != nil {
		return "", err
	}
	return answer, nil
}

// collectDocuments returns every .md file under the root of fs, depth-first
// in name order. A README.md left at the root by an earlier run is skipped.
func collectDocuments(fs billy.Filesystem) ([]collectedDoc, error) {
	var docs []collectedDoc
	var visit func(dir string) error
	visit = func(dir string) error {
		infos, err := readDirSorted(fs, dir)
		if err != nil {
			return err
		}
		for _, info := range infos {
			rel := path.Join(dir, info.Name())
			if info.IsDir() {
				if err := visit(rel); err != nil {
					return err
				}
				continue
			}
			if strings.ToLower(path.Ext(rel)) != ".md" || (dir == "" && info.Name() == overviewFile) {
				continue
			}
			data, err := util.ReadFile(fs, rel)
			if err != nil {
				return fmt.Errorf("reading %s: %w", rel, err)
			}
			docs = append(docs, collectedDoc{Path: rel, Content: string(data)})
		}
		return nil
	}
	if err := visit(""); err != nil {
		return nil, err
	}
	return docs, nil
}

// RenderOutputTree draws the files under the root of fs. The root line is
// "."; directories come before files, each class in name order.
func RenderOutputTree(fs billy.Filesystem) (string, error) {
	root := gtree.NewRoot(".")
	var add func(node *gtree.Node, dir string) error
	add = func(node *gtree.Node, dir string) error {
		infos, err := readDirSorted(fs, dir)
		if err != nil {
			return err
		}
		sort.SliceStable(infos, func(i, j int) bool {
			return infos[i].IsDir() && !infos[j].IsDir()
		})
		for _, info := range infos {
			child := node.Add(info.Name())
			if info.IsDir() {
				if err := add(child, path.Join(dir, info.Name())); err != nil {
					return err
				}
			}
		}
		return nil
	}
	if err := add(root, ""); err != nil {
		return "", fmt.Errorf("listing output tree: %w", err)
	}

	var buf bytes.Buffer
	if err := gtree.OutputFromRoot(&buf, root); err != nil {
		return "", fmt.Errorf("rendering output tree: %w", err)
	}
	return buf.String(), nil
}

// readDirSorted lists dir by name, hiding in-flight temporary files.
func readDirSorted(fs billy.Filesystem, dir string) ([]os.FileInfo, error) {
	if dir == "" {
		dir = "/"
	}
	infos, err := fs.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	out := infos[:0]
	for _, info := range infos {
		if strings.HasPrefix(info.Name(), tempPrefix) {
			continue
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out, nil
}
