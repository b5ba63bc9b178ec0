package http

import (
	"encoding/json"
	"net/http"

	"cuentas/internal/core"
	applog "cuentas/internal/log"
	"cuentas/internal/services"
)

func (s *Server) handleCategoryTree(w http.ResponseWriter, r *http.Request) {
	kind := parseKind(r)
	key := "tree:" + string(kind)

	logger := applog.FromContext(r.Context())
	if roots, found := s.treeCache.Get(key); found {
		logger.DebugContext(r.Context(), "Category tree cache hit", applog.FieldAccountKind, kind)
		writeData(w, http.StatusOK, roots)
		return
	}

	roots, warnings, err := s.categories.Tree(r.Context(), kind)
	if err != nil {
		writeError(w, r, err)
		return
	}
	for _, warn := range warnings {
		logger.WarnContext(r.Context(), "Category parent not found, surfaced as root",
			applog.FieldCategoryID, warn.CategoryID,
			applog.FieldCategoryCode, warn.Code,
			applog.FieldParentID, warn.ParentID)
	}

	s.treeCache.Set(key, roots)
	writeData(w, http.StatusOK, roots)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	input, err := decodeCategoryInput(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	created, err := s.categories.Create(r.Context(), input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.treeCache.Clear()
	writeData(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	input, err := decodeCategoryInput(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if input.ID == "" {
		writeError(w, r, core.Validationf("category id is required"))
		return
	}

	updated, err := s.categories.Update(r.Context(), input.ID, input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.treeCache.Clear()
	writeData(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeError(w, r, core.Validationf("category id is required"))
		return
	}

	if err := s.categories.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}

	s.treeCache.Clear()
	writeData(w, http.StatusOK, map[string]string{"id": id})
}

func decodeCategoryInput(r *http.Request) (services.CategoryInput, error) {
	var input services.CategoryInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		return services.CategoryInput{}, core.Validationf("invalid request body")
	}
	input.Code = sanitizeInput(input.Code)
	input.Name = sanitizeInput(input.Name)
	return input, nil
}
