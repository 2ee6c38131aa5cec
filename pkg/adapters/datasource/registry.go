package datasource

import (
	"sync"

	"github.com/vizly-bi/vizly-engine/pkg/models"
)

// AdapterInfo describes a registered adapter for UI discovery.
type AdapterInfo struct {
	Type        string `json:"type"`         // "postgres", "mysql", "sqlite"
	DisplayName string `json:"display_name"` // "PostgreSQL", "MySQL", "SQLite"
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// AdapterRegistration pairs adapter info with its constructor. The password
// is passed separately because connections store it encrypted; the caller
// decrypts before building an adapter.
type AdapterRegistration struct {
	Info    AdapterInfo
	Factory func(conn *models.Connection, password string) (Adapter, error)
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]AdapterRegistration)
)

// Register is called by each adapter's init() function.
// Thread-safe for concurrent init() calls.
func Register(reg AdapterRegistration) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[reg.Info.Type] = reg
}

// RegisteredAdapters returns info for all registered adapters.
// Used by the API to tell clients which connection types are available.
func RegisteredAdapters() []AdapterInfo {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]AdapterInfo, 0, len(registry))
	for _, reg := range registry {
		result = append(result, reg.Info)
	}
	return result
}

// GetFactory returns the constructor for a connection type, or nil if the
// type is not registered.
func GetFactory(connType string) func(conn *models.Connection, password string) (Adapter, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	if reg, ok := registry[connType]; ok {
		return reg.Factory
	}
	return nil
}

// IsRegistered checks if an adapter type is available.
func IsRegistered(connType string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[connType]
	return ok
}
