// filename: internal/models/action.go
package models

import (
	"encoding/json"
	"fmt"
)

// ActionType тип действия сработавшего правила
type ActionType string

const (
	// ActionAllow пропускает письмо к изначально настроенному получателю
	ActionAllow ActionType = "allow"
	// ActionBlock принимает письмо, но никуда его не доставляет (без bounce)
	ActionBlock ActionType = "block"
	// ActionRoute перенаправляет письмо на указанный endpoint
	ActionRoute ActionType = "route"
)

// Action представляет действие правила. Для route обязателен EndpointID.
type Action struct {
	Type       ActionType `json:"action"`
	EndpointID string     `json:"endpointId,omitempty"`
}

// Validate проверяет действие // v1.0
func (a Action) Validate() error {
	switch a.Type {
	case ActionAllow, ActionBlock:
		if a.EndpointID != "" {
			return fmt.Errorf("action %s must not reference an endpoint", a.Type)
		}
		return nil
	case ActionRoute:
		if a.EndpointID == "" {
			return fmt.Errorf("route action requires endpointId")
		}
		return nil
	default:
		return fmt.Errorf("unknown action type: %s", a.Type)
	}
}

// ParseAction парсит сериализованное действие // v1.0
func ParseAction(raw []byte) (Action, error) {
	var action Action
	if err := json.Unmarshal(raw, &action); err != nil {
		return Action{}, fmt.Errorf("failed to parse action: %w", err)
	}
	if err := action.Validate(); err != nil {
		return Action{}, err
	}
	return action, nil
}

// ToJSON возвращает действие в JSON формате // v1.0
func (a Action) ToJSON() ([]byte, error) {
	return json.Marshal(a)
}
