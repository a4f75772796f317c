// ABOUTME: Test doubles for the generation backend and search collaborators
// ABOUTME: Record every call so tests can assert call counts and prompts
package core

import (
	"context"
	"strings"
	"sync"
)

type generateCall struct {
	System string
	User   string
}

// fakeGenerator answers chunk and synthesis calls through caller-supplied functions
type fakeGenerator struct {
	mu        sync.Mutex
	calls     []generateCall
	chunk     func(ctx context.Context, user string) (string, error)
	synthesis func(ctx context.Context, user string) (string, error)
}

func (f *fakeGenerator) Generate(ctx context.Context, system, user string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, generateCall{System: system, User: user})
	f.mu.Unlock()

	if system == SynthesisSystemPrompt {
		if f.synthesis != nil {
			return f.synthesis(ctx, user)
		}
		return "## Unified plan\n" + user, nil
	}
	if f.chunk != nil {
		return f.chunk(ctx, user)
	}
	return "analysis of " + fileNames(user), nil
}

func (f *fakeGenerator) callCount(system string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.System == system {
			n++
		}
	}
	return n
}

func (f *fakeGenerator) lastCall(system string) generateCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.calls) - 1; i >= 0; i-- {
		if f.calls[i].System == system {
			return f.calls[i]
		}
	}
	return generateCall{}
}

// fileNames pulls the "=== File: name ===" labels out of a chunk prompt
func fileNames(prompt string) string {
	var names []string
	for _, line := range strings.Split(prompt, "\n") {
		if name, ok := strings.CutPrefix(line, "=== File: "); ok {
			names = append(names, strings.TrimSuffix(name, " ==="))
		}
	}
	return strings.Join(names, ",")
}

type fakeSearcher struct {
	mu      sync.Mutex
	queries []string
	search  func(ctx context.Context, query string, attempt int) (string, error)
}

func (f *fakeSearcher) Search(ctx context.Context, query string) (string, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	attempt := len(f.queries)
	f.mu.Unlock()
	return f.search(ctx, query, attempt)
}

func (f *fakeSearcher) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

type temporaryErr struct{}

func (temporaryErr) Error() string   { return "search throttled" }
func (temporaryErr) Temporary() bool { return true }
