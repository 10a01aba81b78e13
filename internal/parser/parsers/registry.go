package parsers

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/Vodeneev/keepgaming/internal/pkg/config"
)

// Factory builds a source from its config entry.
type Factory func(cfg *config.Config, src config.SourceConfig) (Source, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

func Register(kind string, f Factory) {
	n := strings.ToLower(strings.TrimSpace(kind))
	if n == "" {
		panic("parsers: empty kind in Register")
	}
	if f == nil {
		panic("parsers: nil factory in Register for " + n)
	}

	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[n]; exists {
		panic("parsers: duplicate registration for " + n)
	}
	registry[n] = f
}

func FactoryByName(kind string) (Factory, bool) {
	n := strings.ToLower(strings.TrimSpace(kind))
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[n]
	return f, ok
}

func AvailableNames() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Build creates the sources to run. If only is non-empty, sources are picked by name from it
// regardless of their enabled flag; otherwise every enabled source is built.
func Build(cfg *config.Config, only []string) ([]Source, error) {
	want := make(map[string]bool, len(only))
	for _, name := range only {
		if n := strings.ToLower(strings.TrimSpace(name)); n != "" {
			want[n] = true
		}
	}

	var out []Source
	for _, sc := range cfg.Sources {
		name := strings.ToLower(strings.TrimSpace(sc.Name))
		if len(want) > 0 {
			if !want[name] {
				continue
			}
			delete(want, name)
		} else if !sc.IsEnabled() {
			continue
		}

		f, ok := FactoryByName(sc.Kind)
		if !ok {
			return nil, fmt.Errorf("source %q: unknown kind %q (available: %v)", sc.Name, sc.Kind, AvailableNames())
		}
		src, err := f(cfg, sc)
		if err != nil {
			return nil, fmt.Errorf("failed to create source %q: %w", sc.Name, err)
		}
		out = append(out, src)
	}

	if len(want) > 0 {
		missing := make([]string, 0, len(want))
		for n := range want {
			missing = append(missing, n)
		}
		sort.Strings(missing)
		return nil, fmt.Errorf("unknown sources: %s", strings.Join(missing, ", "))
	}
	return out, nil
}
