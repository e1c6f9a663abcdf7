package source

import "fmt"

// Options selects and tunes a Source.
type Options struct {
	Provider          string // github, gitlab or local
	BaseURL           string
	Token             string
	RequestsPerSecond float64 // zero disables throttling
	Burst             int
	CacheSize         int // zero disables caching
}

// Open builds the Source described by opts. For the local provider repo is
// the directory to serve.
func Open(opts Options, repo string) (Source, error) {
	var src Source
	switch opts.Provider {
	case "", "github":
		client, err := NewGitHubClient(opts.Token, opts.BaseURL)
		if err != nil {
			return nil, err
		}
		src = NewGitHub(client)
	case "gitlab":
		client, err := NewGitLabClient(opts.Token, opts.BaseURL)
		if err != nil {
			return nil, err
		}
		src = NewGitLab(client)
	case "local":
		src = NewLocalDir(repo)
	default:
		return nil, fmt.Errorf("unknown source provider %q", opts.Provider)
	}

	if opts.RequestsPerSecond > 0 && opts.Provider != "local" {
		src = NewThrottled(src, opts.RequestsPerSecond, opts.Burst)
	}
	if opts.CacheSize > 0 {
		cached, err := NewCached(src, opts.CacheSize)
		if err != nil {
			return nil, err
		}
		src = cached
	}
	return src, nil
}
