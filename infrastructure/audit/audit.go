// Package audit appends change history rows in the same transaction
// as the change itself, so a committed mutation and its trail never
// diverge.
package audit

import (
	"context"
	"encoding/json"

	"github.com/uptrace/bun"

	"stoneyard/models"
)

// Service writes audit records inside the caller transaction. A nil
// *Service skips logging, which keeps tests that do not care about the
// trail from having to wire one.
type Service struct{}

func NewService() *Service {
	return &Service{}
}

// Write records one action against one entity. Operator is the staff
// name, not an id, so the trail stays readable after staff turnover.
// Pass the entity state before and after; either may be nil.
func (s *Service) Write(ctx context.Context, tx bun.Tx, operator, action, entityType, entityID string, before, after any) error {
	if s == nil {
		return nil
	}
	beforeJSON, err := marshal(before)
	if err != nil {
		return err
	}
	afterJSON, err := marshal(after)
	if err != nil {
		return err
	}
	log := &models.AuditLog{
		Operator:   operator,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		BeforeJSON: beforeJSON,
		AfterJSON:  afterJSON,
	}
	_, err = tx.NewInsert().Model(log).Exec(ctx)
	return err
}

func marshal(v any) (string, error) {
	if v == nil {
		return "", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
