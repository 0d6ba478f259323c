package providers

import (
	"fmt"
	"sort"
	"sync"

	"github.com/vrsandeep/tome-go/internal/models"
)

var (
	mu       sync.RWMutex
	registry = make(map[string]models.Provider)
)

// Register adds a new provider to the registry. It's called at startup.
func Register(p models.Provider) {
	mu.Lock()
	defer mu.Unlock()
	info := p.GetInfo()
	if _, exists := registry[info.ID]; exists {
		// Panic is appropriate here as it's a developer error during setup.
		panic(fmt.Sprintf("provider with ID '%s' is already registered", info.ID))
	}
	registry[info.ID] = p
}

// Get returns a provider by its ID.
func Get(id string) (models.Provider, bool) {
	mu.RLock()
	defer mu.RUnlock()
	p, ok := registry[id]
	return p, ok
}

// GetAll returns a list of information for all registered providers.
func GetAll() []models.ProviderInfo {
	mu.RLock()
	defer mu.RUnlock()
	var infos []models.ProviderInfo
	for _, p := range registry {
		infos = append(infos, p.GetInfo())
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}

// UnregisterAll empties the registry. Only used by tests.
func UnregisterAll() {
	mu.Lock()
	defer mu.Unlock()
	registry = make(map[string]models.Provider)
}
