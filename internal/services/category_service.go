// Package services holds the use-case layer between HTTP handlers and
// storage: chart-of-accounts maintenance with its hierarchy rules, plus
// non-blocking event publishing.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"cuentas/internal/amqp"
	"cuentas/internal/core"
	"cuentas/internal/storage"
)

// CategoryInput carries the caller-editable fields of a category. Level and
// leaf status are derived server-side, never accepted from the client. ID is
// only read on update.
type CategoryInput struct {
	ID       string           `json:"id,omitempty"`
	Code     string           `json:"code"`
	Name     string           `json:"name"`
	Kind     core.AccountKind `json:"kind"`
	ParentID string           `json:"parentId"`
	Active   *bool            `json:"active"`
}

// CategoryService orchestrates chart-of-accounts operations across SQLite
// and AMQP.
type CategoryService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
}

func NewCategoryService(storage *storage.SQLiteRepository, amqpClient *amqp.Client) *CategoryService {
	return &CategoryService{
		storage:    storage,
		amqpClient: amqpClient,
	}
}

// Tree returns the chart of accounts assembled into its hierarchy. Warnings
// report nodes whose parent reference could not be resolved; they are logged
// by the caller, never fatal.
func (s *CategoryService) Tree(ctx context.Context, kind core.AccountKind) ([]*core.AccountCategory, []core.TreeWarning, error) {
	if kind != "" && !kind.Valid() {
		return nil, nil, core.Validationf("unknown account kind: " + string(kind))
	}

	flat, err := s.storage.ListCategories(ctx, kind)
	if err != nil {
		return nil, nil, fmt.Errorf("list categories: %w", err)
	}

	roots, warnings := core.BuildCategoryTree(flat)
	return roots, warnings, nil
}

// Create validates and persists a new category, deriving level and leaf
// status from its position, then publishes a change event.
func (s *CategoryService) Create(ctx context.Context, in CategoryInput) (core.AccountCategory, error) {
	c := core.AccountCategory{
		ID:       uuid.NewString(),
		Code:     in.Code,
		Name:     in.Name,
		Kind:     in.Kind,
		ParentID: in.ParentID,
		Level:    1,
		IsLeaf:   true,
		Active:   true,
	}
	if in.Active != nil {
		c.Active = *in.Active
	}

	parent, err := s.resolveParent(ctx, in.ParentID, in.Kind)
	if err != nil {
		return core.AccountCategory{}, err
	}
	if parent != nil {
		c.Level = parent.Level + 1
	}

	if err := c.Validate(); err != nil {
		return core.AccountCategory{}, err
	}

	inUse, err := s.storage.CategoryCodeInUse(ctx, c.Code, c.ID)
	if err != nil {
		return core.AccountCategory{}, fmt.Errorf("check code: %w", err)
	}
	if inUse {
		return core.AccountCategory{}, core.Validationf("category code already in use: " + c.Code)
	}

	if err := s.storage.CreateCategory(ctx, c); err != nil {
		return core.AccountCategory{}, fmt.Errorf("create category: %w", err)
	}

	if parent != nil && parent.IsLeaf {
		if err := s.storage.MarkCategoryNonLeaf(ctx, parent.ID); err != nil {
			return core.AccountCategory{}, fmt.Errorf("mark parent non-leaf: %w", err)
		}
	}

	s.publishEvent(ctx, "created", c.ID, c.Code)
	return c, nil
}

// Update applies editable fields to an existing category. Moving a category
// under a new parent recomputes the level of the whole subtree; leaf status
// of the new parent is maintained here.
func (s *CategoryService) Update(ctx context.Context, id string, in CategoryInput) (core.AccountCategory, error) {
	existing, err := s.storage.GetCategory(ctx, id)
	if err != nil {
		return core.AccountCategory{}, err
	}

	c := existing
	c.Code = in.Code
	c.Name = in.Name
	c.Kind = in.Kind
	c.ParentID = in.ParentID
	if in.Active != nil {
		c.Active = *in.Active
	}

	if c.ParentID == c.ID {
		return core.AccountCategory{}, core.Validationf("category cannot be its own parent")
	}

	flat, err := s.storage.ListCategories(ctx, "")
	if err != nil {
		return core.AccountCategory{}, fmt.Errorf("list categories: %w", err)
	}
	byID := make(map[string]core.AccountCategory, len(flat))
	children := make(map[string][]string)
	for _, cat := range flat {
		byID[cat.ID] = cat
		if cat.ParentID != "" {
			children[cat.ParentID] = append(children[cat.ParentID], cat.ID)
		}
	}

	// A parent inside the category's own subtree would detach the loop
	// from every root and drop it from the tree entirely.
	ancestor := c.ParentID
	for steps := 0; ancestor != "" && steps < len(flat); steps++ {
		if ancestor == c.ID {
			return core.AccountCategory{}, core.Validationf("category cannot be moved under its own descendant")
		}
		ancestor = byID[ancestor].ParentID
	}

	if c.Kind != existing.Kind && len(children[c.ID]) > 0 {
		return core.AccountCategory{}, core.Validationf("cannot change kind of a category with children")
	}

	parent, err := s.resolveParent(ctx, c.ParentID, c.Kind)
	if err != nil {
		return core.AccountCategory{}, err
	}
	c.Level = 1
	if parent != nil {
		c.Level = parent.Level + 1
	}

	if err := c.Validate(); err != nil {
		return core.AccountCategory{}, err
	}

	inUse, err := s.storage.CategoryCodeInUse(ctx, c.Code, c.ID)
	if err != nil {
		return core.AccountCategory{}, fmt.Errorf("check code: %w", err)
	}
	if inUse {
		return core.AccountCategory{}, core.Validationf("category code already in use: " + c.Code)
	}

	if err := s.storage.UpdateCategory(ctx, c); err != nil {
		return core.AccountCategory{}, fmt.Errorf("update category: %w", err)
	}

	if c.Level != existing.Level {
		if err := s.relevelDescendants(ctx, children, c.ID, c.Level); err != nil {
			return core.AccountCategory{}, err
		}
	}

	if parent != nil && parent.IsLeaf {
		if err := s.storage.MarkCategoryNonLeaf(ctx, parent.ID); err != nil {
			return core.AccountCategory{}, fmt.Errorf("mark parent non-leaf: %w", err)
		}
	}

	s.publishEvent(ctx, "updated", c.ID, c.Code)
	return c, nil
}

// relevelDescendants rewrites the level of every category below the moved
// node so each child stays exactly one deeper than its parent. The seen set
// keeps a pre-existing bad parent loop in stored data from recursing forever.
func (s *CategoryService) relevelDescendants(ctx context.Context, children map[string][]string, rootID string, rootLevel int) error {
	type node struct {
		id    string
		level int
	}
	seen := map[string]bool{rootID: true}
	queue := []node{{rootID, rootLevel}}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, childID := range children[n.id] {
			if seen[childID] {
				continue
			}
			seen[childID] = true
			if err := s.storage.SetCategoryLevel(ctx, childID, n.level+1); err != nil {
				return fmt.Errorf("relevel descendants: %w", err)
			}
			queue = append(queue, node{childID, n.level + 1})
		}
	}
	return nil
}

// Delete removes a category. Children survive and are detached to the root
// level by the store; the next tree build surfaces them as roots.
func (s *CategoryService) Delete(ctx context.Context, id string) error {
	existing, err := s.storage.GetCategory(ctx, id)
	if err != nil {
		return err
	}

	if err := s.storage.DeleteCategory(ctx, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}

	s.publishEvent(ctx, "deleted", existing.ID, existing.Code)
	return nil
}

func (s *CategoryService) resolveParent(ctx context.Context, parentID string, kind core.AccountKind) (*core.AccountCategory, error) {
	if parentID == "" {
		return nil, nil
	}
	parent, err := s.storage.GetCategory(ctx, parentID)
	if errors.Is(err, core.ErrNotFound) {
		return nil, core.Validationf("parent category does not exist: " + parentID)
	}
	if err != nil {
		return nil, fmt.Errorf("get parent: %w", err)
	}
	if parent.Kind != kind {
		return nil, core.Validationf("parent kind does not match: " + string(parent.Kind))
	}
	return &parent, nil
}

func (s *CategoryService) publishEvent(ctx context.Context, action, id, code string) {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping category event")
		return
	}
	if err := s.amqpClient.PublishCategoryEvent(ctx, action, id, code); err != nil {
		slog.ErrorContext(ctx, "Failed to publish category event",
			"action", action, "id", id, "error", err)
		// Don't fail the request - the category change is persisted locally
	}
}

// Close closes the underlying storage and AMQP connections.
func (s *CategoryService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close category service: %v", errs)
	}

	return nil
}
