package models

import (
	"fmt"
	"time"
)

const (
	TargetTypeDomain = "domain"
	TargetTypeIP     = "ip"
)

type Target struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	TargetType  string    `json:"target_type"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// TargetRef is the embedded relation the scans endpoint returns; only the
// name is needed to resolve graph membership.
type TargetRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type TargetCreateRequest struct {
	Name        string `json:"name"`
	TargetType  string `json:"target_type"`
	Description string `json:"description,omitempty"`
}

func (r *TargetCreateRequest) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("target name is required")
	}
	switch r.TargetType {
	case TargetTypeDomain, TargetTypeIP:
	default:
		return fmt.Errorf("invalid target type: %s", r.TargetType)
	}
	return nil
}
