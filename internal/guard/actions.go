// filename: internal/guard/actions.go
package guard

import (
	"context"

	"github.com/mailguard/mailguard/internal/common/errors"
	"github.com/mailguard/mailguard/internal/models"
)

// EndpointLookup интерфейс поиска endpoint'ов для route действий.
// Реализуется хранилищем endpoint'ов; ядру нужен только поиск по ID.
type EndpointLookup interface {
	GetEndpoint(ctx context.Context, id string) (*models.Endpoint, error)
}

// ResolvedAction разрешенное действие: для route дополнительно несет
// проверенный endpoint
type ResolvedAction struct {
	Action   models.Action
	Endpoint *models.Endpoint
}

// ActionResolver разрешает действие сработавшего правила.
// Route действия валидируются при записи правила, но endpoint мог быть
// удален или выключен после, поэтому здесь защитная повторная проверка.
type ActionResolver struct {
	endpoints EndpointLookup
}

// NewActionResolver создает новый resolver действий // v1.0
func NewActionResolver(endpoints EndpointLookup) *ActionResolver {
	return &ActionResolver{endpoints: endpoints}
}

// Resolve разрешает действие. Для allow/block проверок нет. Для route
// отсутствующий или неактивный endpoint дает ACTION_RESOLUTION_ERROR,
// не крэш и не молчаливый fallback: политику отката выбирает вызывающая
// сторона // v1.0
func (r *ActionResolver) Resolve(ctx context.Context, action models.Action) (*ResolvedAction, error) {
	switch action.Type {
	case models.ActionAllow, models.ActionBlock:
		return &ResolvedAction{Action: action}, nil
	case models.ActionRoute:
		endpoint, err := r.endpoints.GetEndpoint(ctx, action.EndpointID)
		if err != nil {
			if errors.IsNotFound(err) {
				return nil, errors.ActionResolutionError(action.EndpointID, "does not exist")
			}
			return nil, errors.Wrap(err, errors.ErrorCodeActionResolution, "endpoint lookup failed")
		}
		if !endpoint.IsActive {
			return nil, errors.ActionResolutionError(action.EndpointID, "is not active")
		}
		return &ResolvedAction{Action: action, Endpoint: endpoint}, nil
	default:
		return nil, errors.ActionResolutionError(action.EndpointID, "has unknown action type")
	}
}
