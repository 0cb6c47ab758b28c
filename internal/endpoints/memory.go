// filename: internal/endpoints/memory.go
package endpoints

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mailguard/mailguard/internal/common/errors"
	"github.com/mailguard/mailguard/internal/models"
)

// MemoryStore хранит эндпоинты в памяти под RWMutex
type MemoryStore struct {
	endpoints map[string]*models.Endpoint
	mutex     sync.RWMutex
}

// NewMemoryStore создает новое in-memory хранилище эндпоинтов // v1.0
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		endpoints: make(map[string]*models.Endpoint),
	}
}

// GetEndpoint возвращает эндпоинт по ID // v1.0
func (m *MemoryStore) GetEndpoint(ctx context.Context, id string) (*models.Endpoint, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	endpoint, exists := m.endpoints[id]
	if !exists {
		return nil, errors.NotFoundError("endpoint", id)
	}

	clone := *endpoint
	return &clone, nil
}

// List возвращает все эндпоинты // v1.0
func (m *MemoryStore) List(ctx context.Context) ([]*models.Endpoint, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	result := make([]*models.Endpoint, 0, len(m.endpoints))
	for _, endpoint := range m.endpoints {
		clone := *endpoint
		result = append(result, &clone)
	}

	return result, nil
}

// Create создает эндпоинт // v1.0
func (m *MemoryStore) Create(ctx context.Context, endpoint *models.Endpoint) error {
	if endpoint.ID == "" {
		endpoint.ID = uuid.NewString()
	}
	now := time.Now()
	endpoint.CreatedAt = now
	endpoint.UpdatedAt = now

	if err := endpoint.Validate(); err != nil {
		return errors.ConfigValidationError(err.Error())
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	clone := *endpoint
	m.endpoints[endpoint.ID] = &clone
	return nil
}

// Update обновляет эндпоинт // v1.0
func (m *MemoryStore) Update(ctx context.Context, endpoint *models.Endpoint) error {
	if err := endpoint.Validate(); err != nil {
		return errors.ConfigValidationError(err.Error())
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.endpoints[endpoint.ID]; !exists {
		return errors.NotFoundError("endpoint", endpoint.ID)
	}

	endpoint.UpdatedAt = time.Now()
	clone := *endpoint
	m.endpoints[endpoint.ID] = &clone
	return nil
}

// Delete удаляет эндпоинт // v1.0
func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.endpoints[id]; !exists {
		return errors.NotFoundError("endpoint", id)
	}

	delete(m.endpoints, id)
	return nil
}
