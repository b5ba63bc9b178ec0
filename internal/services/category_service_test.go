package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"cuentas/internal/core"
	"cuentas/internal/storage"
)

func newTestService(t *testing.T) *CategoryService {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return NewCategoryService(repo, nil)
}

func TestCreateRootCategory(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, CategoryInput{Code: "400", Name: "Ingresos", Kind: core.KindIncome})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.ID == "" {
		t.Error("expected generated id")
	}
	if c.Level != 1 {
		t.Errorf("root level = %d, want 1", c.Level)
	}
	if !c.IsLeaf {
		t.Error("new category should start as leaf")
	}
	if !c.Active {
		t.Error("new category should default to active")
	}
}

func TestCreateChildDerivesLevelAndFlipsParentLeaf(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	parent, err := svc.Create(ctx, CategoryInput{Code: "400", Name: "Ingresos", Kind: core.KindIncome})
	if err != nil {
		t.Fatalf("create parent: %v", err)
	}

	child, err := svc.Create(ctx, CategoryInput{
		Code: "400.1", Name: "Mensualidades", Kind: core.KindIncome, ParentID: parent.ID,
	})
	if err != nil {
		t.Fatalf("create child: %v", err)
	}
	if child.Level != 2 {
		t.Errorf("child level = %d, want 2", child.Level)
	}

	roots, warnings, err := svc.Tree(ctx, "")
	if err != nil {
		t.Fatalf("tree: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
	if len(roots) != 1 {
		t.Fatalf("roots = %d, want 1", len(roots))
	}
	if roots[0].IsLeaf {
		t.Error("parent should no longer be a leaf")
	}
	if len(roots[0].Children) != 1 || roots[0].Children[0].ID != child.ID {
		t.Errorf("child not attached under parent: %+v", roots[0].Children)
	}
}

func TestCreateValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, CategoryInput{Code: "400", Name: "Ingresos", Kind: core.KindIncome}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	tests := []struct {
		name  string
		input CategoryInput
	}{
		{"missing code", CategoryInput{Name: "X", Kind: core.KindIncome}},
		{"missing name", CategoryInput{Code: "401", Kind: core.KindIncome}},
		{"bad kind", CategoryInput{Code: "401", Name: "X", Kind: "revenue"}},
		{"duplicate code", CategoryInput{Code: "400", Name: "Otra", Kind: core.KindIncome}},
		{"missing parent", CategoryInput{Code: "401", Name: "X", Kind: core.KindIncome, ParentID: "nope"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.input)
			if !core.IsValidation(err) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestCreateRejectsParentKindMismatch(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	parent, err := svc.Create(ctx, CategoryInput{Code: "400", Name: "Ingresos", Kind: core.KindIncome})
	if err != nil {
		t.Fatalf("create parent: %v", err)
	}

	_, err = svc.Create(ctx, CategoryInput{
		Code: "600.1", Name: "Gastos varios", Kind: core.KindExpense, ParentID: parent.ID,
	})
	if !core.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestUpdateMoveRecomputesLevel(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	a, _ := svc.Create(ctx, CategoryInput{Code: "600", Name: "Gastos", Kind: core.KindExpense})
	b, err := svc.Create(ctx, CategoryInput{Code: "600.1", Name: "Servicios", Kind: core.KindExpense, ParentID: a.ID})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	moved, err := svc.Update(ctx, b.ID, CategoryInput{
		Code: "601", Name: "Servicios", Kind: core.KindExpense,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if moved.Level != 1 {
		t.Errorf("level after detach = %d, want 1", moved.Level)
	}
	if moved.ParentID != "" {
		t.Errorf("parentId after detach = %q, want empty", moved.ParentID)
	}
}

func TestUpdateReparentRelevelsDescendants(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	a, _ := svc.Create(ctx, CategoryInput{Code: "600", Name: "Gastos", Kind: core.KindExpense})
	b, err := svc.Create(ctx, CategoryInput{Code: "600.1", Name: "Servicios", Kind: core.KindExpense, ParentID: a.ID})
	if err != nil {
		t.Fatalf("create b: %v", err)
	}
	c, err := svc.Create(ctx, CategoryInput{Code: "600.1.1", Name: "Internet", Kind: core.KindExpense, ParentID: b.ID})
	if err != nil {
		t.Fatalf("create c: %v", err)
	}

	moved, err := svc.Update(ctx, b.ID, CategoryInput{
		Code: "601", Name: "Servicios", Kind: core.KindExpense,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if moved.Level != 1 {
		t.Fatalf("moved level = %d, want 1", moved.Level)
	}

	roots, _, err := svc.Tree(ctx, "")
	if err != nil {
		t.Fatalf("tree: %v", err)
	}
	var grandchild *core.AccountCategory
	for _, root := range roots {
		if root.ID == b.ID && len(root.Children) == 1 {
			grandchild = root.Children[0]
		}
	}
	if grandchild == nil || grandchild.ID != c.ID {
		t.Fatalf("expected %s attached under moved root, got %+v", c.ID, roots)
	}
	if grandchild.Level != 2 {
		t.Errorf("descendant level after move = %d, want 2", grandchild.Level)
	}
	if grandchild.ParentID != b.ID {
		t.Errorf("descendant parent after move = %q, want %q", grandchild.ParentID, b.ID)
	}
}

func TestUpdateRejectsDescendantParent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	a, _ := svc.Create(ctx, CategoryInput{Code: "600", Name: "Gastos", Kind: core.KindExpense})
	b, err := svc.Create(ctx, CategoryInput{Code: "600.1", Name: "Servicios", Kind: core.KindExpense, ParentID: a.ID})
	if err != nil {
		t.Fatalf("create b: %v", err)
	}
	c, err := svc.Create(ctx, CategoryInput{Code: "600.1.1", Name: "Internet", Kind: core.KindExpense, ParentID: b.ID})
	if err != nil {
		t.Fatalf("create c: %v", err)
	}

	for _, parentID := range []string{b.ID, c.ID} {
		_, err := svc.Update(ctx, a.ID, CategoryInput{
			Code: "600", Name: "Gastos", Kind: core.KindExpense, ParentID: parentID,
		})
		if !core.IsValidation(err) {
			t.Errorf("parent %s: expected validation error, got %v", parentID, err)
		}
	}

	roots, warnings, err := svc.Tree(ctx, "")
	if err != nil {
		t.Fatalf("tree: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
	if len(roots) != 1 || roots[0].ID != a.ID {
		t.Fatalf("tree changed despite rejected updates: %+v", roots)
	}
}

func TestUpdateKindChange(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	parent, _ := svc.Create(ctx, CategoryInput{Code: "600", Name: "Gastos", Kind: core.KindExpense})
	if _, err := svc.Create(ctx, CategoryInput{Code: "600.1", Name: "Servicios", Kind: core.KindExpense, ParentID: parent.ID}); err != nil {
		t.Fatalf("create child: %v", err)
	}

	_, err := svc.Update(ctx, parent.ID, CategoryInput{
		Code: "600", Name: "Gastos", Kind: core.KindIncome,
	})
	if !core.IsValidation(err) {
		t.Errorf("kind change with children: expected validation error, got %v", err)
	}

	leaf, _ := svc.Create(ctx, CategoryInput{Code: "700", Name: "Caja", Kind: core.KindAsset})
	changed, err := svc.Update(ctx, leaf.ID, CategoryInput{
		Code: "700", Name: "Caja", Kind: core.KindLiability,
	})
	if err != nil {
		t.Fatalf("kind change on leaf: %v", err)
	}
	if changed.Kind != core.KindLiability {
		t.Errorf("kind = %q, want %q", changed.Kind, core.KindLiability)
	}
}

func TestUpdateRejectsSelfParent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, CategoryInput{Code: "600", Name: "Gastos", Kind: core.KindExpense})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = svc.Update(ctx, c.ID, CategoryInput{
		Code: "600", Name: "Gastos", Kind: core.KindExpense, ParentID: c.ID,
	})
	if !core.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestUpdateMissingCategory(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Update(context.Background(), "nope", CategoryInput{
		Code: "600", Name: "Gastos", Kind: core.KindExpense,
	})
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteDetachesChildrenIntoRoots(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	parent, _ := svc.Create(ctx, CategoryInput{Code: "600", Name: "Gastos", Kind: core.KindExpense})
	child, err := svc.Create(ctx, CategoryInput{Code: "600.1", Name: "Servicios", Kind: core.KindExpense, ParentID: parent.ID})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Delete(ctx, parent.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	roots, _, err := svc.Tree(ctx, "")
	if err != nil {
		t.Fatalf("tree: %v", err)
	}
	if len(roots) != 1 || roots[0].ID != child.ID {
		t.Fatalf("expected orphaned child as sole root, got %+v", roots)
	}

	if err := svc.Delete(ctx, parent.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("second delete: expected ErrNotFound, got %v", err)
	}
}

func TestTreeKindFilter(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	svc.Create(ctx, CategoryInput{Code: "400", Name: "Ingresos", Kind: core.KindIncome})
	svc.Create(ctx, CategoryInput{Code: "600", Name: "Gastos", Kind: core.KindExpense})

	roots, _, err := svc.Tree(ctx, core.KindIncome)
	if err != nil {
		t.Fatalf("tree: %v", err)
	}
	if len(roots) != 1 || roots[0].Code != "400" {
		t.Fatalf("expected single income root, got %+v", roots)
	}

	if _, _, err := svc.Tree(ctx, "banana"); !core.IsValidation(err) {
		t.Errorf("expected validation error for bad kind, got %v", err)
	}
}
