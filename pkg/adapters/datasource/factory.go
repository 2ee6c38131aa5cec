package datasource

import (
	"fmt"

	"github.com/vizly-bi/vizly-engine/pkg/models"
)

// AdapterFactory creates adapters from the registry.
type AdapterFactory interface {
	// NewAdapter builds an adapter for the connection's type. password is
	// the decrypted credential; it never leaves this call path.
	NewAdapter(conn *models.Connection, password string) (Adapter, error)

	// ListTypes returns info for all registered adapter types.
	ListTypes() []AdapterInfo
}

type registryFactory struct{}

// NewAdapterFactory returns a factory backed by the global registry.
func NewAdapterFactory() AdapterFactory {
	return &registryFactory{}
}

func (f *registryFactory) NewAdapter(conn *models.Connection, password string) (Adapter, error) {
	factory := GetFactory(conn.Type)
	if factory == nil {
		return nil, fmt.Errorf("unsupported connection type: %s (not compiled in)", conn.Type)
	}
	return factory(conn, password)
}

func (f *registryFactory) ListTypes() []AdapterInfo {
	return RegisteredAdapters()
}

var _ AdapterFactory = (*registryFactory)(nil)
