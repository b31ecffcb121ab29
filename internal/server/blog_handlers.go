package server

import (
	"blogsmith/internal/core"
	"blogsmith/internal/persistence"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

type createBlogRequest struct {
	Title           string `json:"title" validate:"required,max=300"`
	MetaDescription string `json:"metaDescription" validate:"max=500"`
	Content         string `json:"content" validate:"required"`
	Image           string `json:"image"`
	Topic           string `json:"topic" validate:"required,max=100"`
	IsArchived      bool   `json:"isArchived"`
	IsPrivate       bool   `json:"isPrivate"`
}

type updateBlogRequest struct {
	ID any `json:"id"`
	persistence.ArticleUpdate
}

type blogResponse struct {
	Blog    *core.Article `json:"blog"`
	Message string        `json:"message"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// listFilter reads page, limit, search and the visibility flags from the query.
// Callers without an admin session only ever see public articles.
func listFilter(r *http.Request, admin bool) persistence.ArticleFilter {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	f := persistence.ArticleFilter{
		Page:   page,
		Limit:  limit,
		Search: strings.TrimSpace(q.Get("search")),
	}
	if admin {
		f.Archived = boolParam(q.Get("archived"))
		f.Private = boolParam(q.Get("private"))
	} else {
		no := false
		f.Archived = &no
		f.Private = &no
	}
	return f.Normalize()
}

func boolParam(v string) *bool {
	if v == "" {
		return nil
	}
	b := v == "true"
	return &b
}

func cacheKey(f persistence.ArticleFilter) string {
	flag := func(b *bool) string {
		if b == nil {
			return "any"
		}
		return strconv.FormatBool(*b)
	}
	return fmt.Sprintf("p=%d&l=%d&s=%s&a=%s&v=%s", f.Page, f.Limit, f.Search, flag(f.Archived), flag(f.Private))
}

// handleListBlogs handles GET /api/blogs
func (s *Server) handleListBlogs(w http.ResponseWriter, r *http.Request) {
	f := listFilter(r, s.isAdmin(r))
	key := cacheKey(f)

	if page, ok := s.listCache.Get(key); ok {
		s.respondJSON(w, http.StatusOK, page)
		return
	}

	page, err := s.db.Articles().List(r.Context(), f)
	if err != nil {
		s.log.Error("Failed to list blogs", "error", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to fetch blogs")
		return
	}
	s.listCache.Add(key, page)
	s.respondJSON(w, http.StatusOK, page)
}

// handleGetBlog handles GET /api/blogs/{id}. Flags are not checked: a direct link always resolves.
func (s *Server) handleGetBlog(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid blog ID")
		return
	}

	article, err := s.db.Articles().Get(r.Context(), id)
	if errors.Is(err, persistence.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "Blog not found")
		return
	}
	if err != nil {
		s.log.Error("Failed to get blog", "id", id, "error", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to fetch blog")
		return
	}
	s.respondJSON(w, http.StatusOK, article)
}

// handleCreateBlog handles POST /api/blogs
func (s *Server) handleCreateBlog(w http.ResponseWriter, r *http.Request) {
	var req createBlogRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Topic = strings.TrimSpace(req.Topic)
	req.Content = strings.TrimSpace(req.Content)
	if err := s.validate.Struct(req); err != nil {
		s.respondError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	article := &core.Article{
		Title:           req.Title,
		MetaDescription: strings.TrimSpace(req.MetaDescription),
		Content:         s.sanitizer.Sanitize(req.Content),
		Image:           req.Image,
		Topic:           req.Topic,
		IsArchived:      req.IsArchived,
		IsPrivate:       req.IsPrivate,
	}
	if err := s.db.Articles().Create(r.Context(), article); err != nil {
		s.writeStoreError(w, err, "Failed to create blog")
		return
	}

	s.listCache.Purge()
	s.log.Info("Blog created", "id", article.ID, "title", article.Title)
	s.respondJSON(w, http.StatusOK, blogResponse{Blog: article, Message: "Blog created successfully"})
}

// handleUpdateBlog handles PUT /api/blogs/{id} and PUT /api/blogs with the id in the body
func (s *Server) handleUpdateBlog(w http.ResponseWriter, r *http.Request) {
	var req updateBlogRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	rawID := any(chi.URLParam(r, "id"))
	if rawID == "" {
		rawID = req.ID
	}
	id, err := parseID(rawID)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "Blog ID is required")
		return
	}

	update := req.ArticleUpdate
	if update.Title != nil {
		title := strings.TrimSpace(*update.Title)
		if title == "" {
			s.respondError(w, http.StatusBadRequest, "title cannot be empty")
			return
		}
		update.Title = &title
	}
	if update.Content != nil {
		content := s.sanitizer.Sanitize(*update.Content)
		update.Content = &content
	}

	article, err := s.db.Articles().Update(r.Context(), id, update)
	if err != nil {
		s.writeStoreError(w, err, "Failed to update blog")
		return
	}

	s.listCache.Purge()
	s.log.Info("Blog updated", "id", id)
	s.respondJSON(w, http.StatusOK, blogResponse{Blog: article, Message: "Blog updated successfully"})
}

// handleDeleteBlog handles DELETE /api/blogs/{id} and DELETE /api/blogs?id=
func (s *Server) handleDeleteBlog(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "id")
	if raw == "" {
		raw = r.URL.Query().Get("id")
	}
	id, err := parseID(raw)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "Blog ID is required")
		return
	}

	if err := s.db.Articles().Delete(r.Context(), id); err != nil {
		s.writeStoreError(w, err, "Failed to delete blog")
		return
	}

	s.listCache.Purge()
	s.log.Info("Blog deleted", "id", id)
	s.respondJSON(w, http.StatusOK, messageResponse{Message: "Blog deleted successfully"})
}

func (s *Server) writeStoreError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, persistence.ErrNotFound):
		s.respondError(w, http.StatusNotFound, "Blog not found")
	case errors.Is(err, persistence.ErrDuplicateTitle):
		s.respondError(w, http.StatusBadRequest, persistence.ErrDuplicateTitle.Error())
	default:
		s.log.Error(fallback, "error", err)
		s.respondError(w, http.StatusInternalServerError, fallback)
	}
}
