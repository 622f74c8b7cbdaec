package languages

import (
	"errors"
	"sort"
	"sync"
)

var (
	ErrLanguageNotFound = errors.New("language not found")
)

// Registry maps language tags to their container runtime configuration. The
// defaults cover the two compiled languages the judge ships images for.
type Registry struct {
	mu        sync.RWMutex
	languages map[string]Language
}

func NewRegistry() *Registry {
	r := &Registry{
		languages: make(map[string]Language),
	}
	r.registerDefaults()
	return r
}

func (r *Registry) Register(lang Language) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.languages[lang.ID] = lang
}

func (r *Registry) Get(id string) (Language, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	lang, ok := r.languages[id]
	if !ok {
		return Language{}, ErrLanguageNotFound
	}
	return lang, nil
}

func (r *Registry) List() []Language {
	r.mu.RLock()
	defer r.mu.RUnlock()
	langs := make([]Language, 0, len(r.languages))
	for _, l := range r.languages {
		langs = append(langs, l)
	}
	sort.Slice(langs, func(i, j int) bool { return langs[i].ID < langs[j].ID })
	return langs
}

func (r *Registry) registerDefaults() {
	r.Register(Language{
		ID:              "c",
		Name:            "C",
		Standards:       []string{"c89", "c99", "c11", "c17", "c23"},
		DefaultStandard: "c99",
		Config: RuntimeConfig{
			Image:       "tsukisama9292/judger-runner:c",
			SourceFile:  "user.c",
			HarnessPath: "/usr/local/bin/harness",
		},
	})

	r.Register(Language{
		ID:              "cpp",
		Name:            "C++",
		Standards:       []string{"cpp98", "cpp03", "cpp11", "cpp14", "cpp17", "cpp20", "cpp23"},
		DefaultStandard: "cpp17",
		Config: RuntimeConfig{
			Image:       "tsukisama9292/judger-runner:c_plus_plus",
			SourceFile:  "user.cpp",
			HarnessPath: "/usr/local/bin/harness",
		},
	})
}
