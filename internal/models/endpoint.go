// filename: internal/models/endpoint.go
package models

import (
	"fmt"
	"time"
)

// EndpointType тип доставки endpoint'а
type EndpointType string

const (
	EndpointTypeWebhook      EndpointType = "webhook"
	EndpointTypeEmailForward EndpointType = "email_forward"
)

// Endpoint представляет внешнюю цель доставки для route действий:
// webhook URL или пересылка на другой адрес.
type Endpoint struct {
	ID        string       `json:"id" db:"id"`
	Name      string       `json:"name" db:"name"`
	Type      EndpointType `json:"type" db:"type"`
	Target    string       `json:"target" db:"target"`
	IsActive  bool         `json:"is_active" db:"is_active"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt time.Time    `json:"updated_at" db:"updated_at"`
}

// Validate проверяет корректность endpoint'а // v1.0
func (e *Endpoint) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("endpoint ID is required")
	}
	if e.Name == "" {
		return fmt.Errorf("endpoint name is required")
	}
	if e.Type != EndpointTypeWebhook && e.Type != EndpointTypeEmailForward {
		return fmt.Errorf("unknown endpoint type: %s", e.Type)
	}
	if e.Target == "" {
		return fmt.Errorf("endpoint target is required")
	}
	return nil
}
