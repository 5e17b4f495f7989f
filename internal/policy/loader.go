package policy

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

var (
	defaultOnce   sync.Once
	defaultEngine *Engine
	defaultErr    error
)

// Builtin returns the embedded policy.
func Builtin() (RawPolicy, error) {
	var raw RawPolicy
	if err := yaml.Unmarshal(defaultYAML, &raw); err != nil {
		return RawPolicy{}, fmt.Errorf("parse builtin policy: %w", err)
	}
	return raw, nil
}

// Default returns the compiled embedded policy. It is compiled once.
func Default() (*Engine, error) {
	defaultOnce.Do(func() {
		raw, err := Builtin()
		if err != nil {
			defaultErr = err
			return
		}
		defaultEngine, defaultErr = Compile(raw)
	})
	return defaultEngine, defaultErr
}

// extensions are tried in order when looking for a policy file.
var extensions = []string{".yaml", ".yml", ".toml"}

// Paths locates policy files under a base directory:
//
//	<base>/default.{yaml,yml,toml}
//	<base>/profiles/<profile>.{yaml,yml,toml}
type Paths struct {
	BaseDir string
}

func (p Paths) DefaultStem() string {
	return filepath.Join(p.BaseDir, "default")
}

func (p Paths) ProfileStem(profile string) string {
	return filepath.Join(p.BaseDir, "profiles", profile)
}

// Candidates lists every file that can affect the merged policy of profile,
// existing or not, for change watching.
func (p Paths) Candidates(profile string) []string {
	stems := []string{p.DefaultStem()}
	if profile != "" {
		stems = append(stems, p.ProfileStem(profile))
	}
	var out []string
	for _, s := range stems {
		for _, ext := range extensions {
			out = append(out, s+ext)
		}
	}
	return out
}

// Loader reads policy files and merges builtin → default file → profile file.
type Loader struct {
	paths Paths

	mu    sync.RWMutex
	cache map[string]RawPolicy // key: profile, "" for default only
}

// NewLoader creates a loader rooted at baseDir. An empty baseDir yields the
// builtin policy only.
func NewLoader(baseDir string) *Loader {
	return &Loader{
		paths: Paths{BaseDir: baseDir},
		cache: make(map[string]RawPolicy),
	}
}

// Paths returns the loader's file layout.
func (l *Loader) Paths() Paths { return l.paths }

// LoadMerged returns the merged policy for profile (which may be empty).
func (l *Loader) LoadMerged(profile string) (RawPolicy, error) {
	l.mu.RLock()
	if cfg, ok := l.cache[profile]; ok {
		l.mu.RUnlock()
		return cfg, nil
	}
	l.mu.RUnlock()

	merged, err := Builtin()
	if err != nil {
		return RawPolicy{}, err
	}
	if l.paths.BaseDir != "" {
		defCfg, err := readPolicy(l.paths.DefaultStem())
		if err != nil {
			return RawPolicy{}, fmt.Errorf("read default: %w", err)
		}
		merged = mergeRaw(merged, defCfg)
		if profile != "" {
			profCfg, err := readPolicy(l.paths.ProfileStem(profile))
			if err != nil {
				return RawPolicy{}, fmt.Errorf("read profile %s: %w", profile, err)
			}
			merged = mergeRaw(merged, profCfg)
		}
	}

	l.mu.Lock()
	l.cache[profile] = merged
	l.mu.Unlock()
	return merged, nil
}

// Load merges, validates and compiles the policy for profile.
func (l *Loader) Load(profile string) (*Engine, error) {
	raw, err := l.LoadMerged(profile)
	if err != nil {
		return nil, err
	}
	return Compile(raw)
}

// Invalidate clears the loader's cache. Call after a watched file changes.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache = make(map[string]RawPolicy)
}

// readPolicy loads the first existing stem+ext file. No file at all returns a
// zero policy and no error.
func readPolicy(stem string) (RawPolicy, error) {
	for _, ext := range extensions {
		b, err := os.ReadFile(stem + ext)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return RawPolicy{}, err
		}
		return decode(b, ext)
	}
	return RawPolicy{}, nil
}

func decode(b []byte, ext string) (RawPolicy, error) {
	var cfg RawPolicy
	var err error
	if ext == ".toml" {
		err = toml.Unmarshal(b, &cfg)
	} else {
		err = yaml.Unmarshal(b, &cfg)
	}
	if err != nil {
		return RawPolicy{}, fmt.Errorf("%w: %v", ErrPolicyConfig, err)
	}
	if err := ValidateRaw(cfg, false); err != nil {
		return RawPolicy{}, err
	}
	return cfg, nil
}

// mergeRaw overlays b on a. A tier present in b replaces a's rule list whole;
// rules are ordered, so merging individual rules would change their meaning.
func mergeRaw(a, b RawPolicy) RawPolicy {
	out := a
	if b.Version != "" {
		out.Version = b.Version
	}
	if b.Notes != "" {
		out.Notes = b.Notes
	}
	if b.Basic != nil {
		out.Basic = cloneRules(b.Basic)
	}
	if b.Intermediate != nil {
		out.Intermediate = cloneRules(b.Intermediate)
	}
	if b.Advanced != nil {
		out.Advanced = cloneRules(b.Advanced)
	}
	return out
}

func cloneRules(t *TierRules) *TierRules {
	c := TierRules{Rules: make([]RuleConfig, len(t.Rules))}
	for i, r := range t.Rules {
		r.Insights = append([]string(nil), r.Insights...)
		c.Rules[i] = r
	}
	return &c
}
