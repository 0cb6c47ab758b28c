// filename: internal/endpoints/store.go
package endpoints

import (
	"context"

	"github.com/mailguard/mailguard/internal/models"
)

// Store определяет операции над эндпоинтами маршрутизации.
// GetEndpoint совпадает с контрактом guard.EndpointLookup: резолвер
// действий работает с любым Store // v1.0
type Store interface {
	// GetEndpoint возвращает эндпоинт по ID
	GetEndpoint(ctx context.Context, id string) (*models.Endpoint, error)

	// List возвращает все эндпоинты
	List(ctx context.Context) ([]*models.Endpoint, error)

	// Create создает эндпоинт
	Create(ctx context.Context, endpoint *models.Endpoint) error

	// Update обновляет эндпоинт
	Update(ctx context.Context, endpoint *models.Endpoint) error

	// Delete удаляет эндпоинт
	Delete(ctx context.Context, id string) error
}
