// Package seed loads prompt catalogs and populates the database with them.
// It backs the seed command and is used by tests for demo data.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"dailyprompt/internal/models"
	"dailyprompt/internal/service"

	"github.com/brianvoe/gofakeit/v6"
	"gopkg.in/yaml.v3"
)

// Catalog is the on-disk prompt file format:
//
//	prompts:
//	  - content: What made you smile today?
//	    tag: gratitude
type Catalog struct {
	Prompts []service.SeedPrompt `yaml:"prompts"`
}

var fakeTags = []string{"gratitude", "growth", "memory", "people", "future", "reflection"}

// LoadFile reads a YAML catalog from path.
func LoadFile(path string) ([]service.SeedPrompt, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer func() { _ = f.Close() }()

	prompts, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return prompts, nil
}

// Parse decodes a YAML catalog. Unknown keys, empty content and duplicate
// prompts are rejected.
func Parse(r io.Reader) ([]service.SeedPrompt, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var catalog Catalog
	if err := dec.Decode(&catalog); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("catalog is empty")
		}
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	seen := make(map[string]int, len(catalog.Prompts))
	for i, p := range catalog.Prompts {
		content := strings.TrimSpace(p.Content)
		if content == "" {
			return nil, fmt.Errorf("prompt %d: content is empty", i+1)
		}
		key := strings.ToLower(content)
		if first, dup := seen[key]; dup {
			return nil, fmt.Errorf("prompt %d duplicates prompt %d", i+1, first+1)
		}
		seen[key] = i
	}
	return catalog.Prompts, nil
}

// FakePrompts generates n random prompts for local development.
func FakePrompts(n int) []service.SeedPrompt {
	prompts := make([]service.SeedPrompt, 0, n)
	for i := 0; i < n; i++ {
		prompts = append(prompts, service.SeedPrompt{
			Content: fmt.Sprintf("%s (#%d)", gofakeit.Question(), i+1),
			Tag:     gofakeit.RandomString(fakeTags),
		})
	}
	return prompts
}

// Options control a seeding run.
type Options struct {
	// File is a YAML catalog; empty skips it.
	File string
	// Fake adds that many generated prompts.
	Fake int
	// Clean removes existing prompts and answers first.
	Clean bool
	// Rotate activates the prompt scheduled for Now after seeding.
	Rotate bool
	Now    time.Time
}

// Result summarises a seeding run.
type Result struct {
	Inserted int
	Active   *models.Prompt
}

// Run seeds prompts through svc.
func Run(ctx context.Context, svc *service.PromptService, opts Options) (*Result, error) {
	var entries []service.SeedPrompt
	if opts.File != "" {
		fromFile, err := LoadFile(opts.File)
		if err != nil {
			return nil, err
		}
		entries = append(entries, fromFile...)
	}
	if opts.Fake > 0 {
		entries = append(entries, FakePrompts(opts.Fake)...)
	}
	if len(entries) == 0 && !opts.Rotate {
		return nil, errors.New("nothing to seed: provide a catalog file or a fake count")
	}

	res := &Result{}
	if len(entries) > 0 {
		n, err := svc.Seed(ctx, entries, opts.Clean)
		if err != nil {
			return nil, fmt.Errorf("seed prompts: %w", err)
		}
		res.Inserted = n
	}

	if opts.Rotate {
		now := opts.Now
		if now.IsZero() {
			now = time.Now()
		}
		active, err := svc.RotateDaily(ctx, now)
		if err != nil {
			return nil, fmt.Errorf("rotate daily prompt: %w", err)
		}
		res.Active = active
	}
	return res, nil
}
