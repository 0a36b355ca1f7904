package skill

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Definition is the static description of a skill, loaded from YAML and shared
// by every instance of that skill.
type Definition struct {
	Key         string `yaml:"key"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	// Function names the effect to evaluate, optionally with arguments: "hit(10)".
	Function string `yaml:"function"`
	// Cooldown is the base cooldown in seconds; 0 means none.
	Cooldown float64 `yaml:"cd"`
	Passive  bool    `yaml:"passive"`
	MainType string  `yaml:"main_type"`
	SubType  string  `yaml:"sub_type"`
	// Message is the cast-message template; see Message.
	Message string `yaml:"message"`

	message Message
}

// BaseCooldown returns Cooldown as a duration.
func (d *Definition) BaseCooldown() time.Duration {
	return time.Duration(d.Cooldown * float64(time.Second))
}

// CastMessage returns the compiled Message template. Definitions that never
// went through a Registry are compiled on each call.
func (d *Definition) CastMessage() Message {
	if d.message.raw == d.Message {
		return d.message
	}
	return CompileMessage(d.Message)
}

// Validate checks the definition's own invariants.
//
// Postcondition: Returns nil when Key is set, Cooldown is non-negative, and
// every non-passive skill names a Function.
func (d *Definition) Validate() error {
	var errs []error
	if d.Key == "" {
		errs = append(errs, errors.New("key must not be empty"))
	}
	if d.Cooldown < 0 {
		errs = append(errs, fmt.Errorf("cd must be >= 0, got %g", d.Cooldown))
	}
	if !d.Passive && strings.TrimSpace(d.Function) == "" {
		errs = append(errs, errors.New("function must not be empty for an active skill"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("skill %q: %w", d.Key, errors.Join(errs...))
	}
	return nil
}

// Registry holds all known Definitions keyed by Key. It is read-only once
// loaded and safe for concurrent reads.
type Registry struct {
	defs map[string]*Definition
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*Definition)}
}

// Register validates def, compiles its message, and adds it to the registry.
//
// Precondition: def must not be nil.
// Postcondition: Returns an error if def is invalid or its key is already registered.
func (r *Registry) Register(def *Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	if _, dup := r.defs[def.Key]; dup {
		return fmt.Errorf("skill %q: duplicate key", def.Key)
	}
	def.message = CompileMessage(def.Message)
	r.defs[def.Key] = def
	return nil
}

// Get returns the Definition for key, or (nil, false) if not found.
func (r *Registry) Get(key string) (*Definition, bool) {
	d, ok := r.defs[key]
	return d, ok
}

// All returns every Definition ordered by key.
func (r *Registry) All() []*Definition {
	out := make([]*Definition, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Len returns the number of registered definitions.
func (r *Registry) Len() int { return len(r.defs) }

// LoadDirectory reads every *.yaml file in dir, parses each as a Definition,
// and returns a populated Registry.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns a non-nil Registry, or an error naming the first file
// that fails to parse or validate.
func LoadDirectory(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading skill dir %q: %w", dir, err)
	}
	reg := NewRegistry()
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		var def Definition
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&def); err != nil {
			return nil, fmt.Errorf("parsing %q: %w", path, err)
		}
		if err := reg.Register(&def); err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
	}
	return reg, nil
}
