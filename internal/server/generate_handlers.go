package server

import (
	"blogsmith/internal/core"
	"blogsmith/internal/dedup"
	"blogsmith/internal/persistence"
	"blogsmith/internal/pipeline"
	"blogsmith/internal/reddit"
	"errors"
	"net/http"
	"strings"
)

// generationResponse is the structured summary every generation endpoint answers with
type generationResponse struct {
	Success bool               `json:"success"`
	Message string             `json:"message"`
	Results []core.TopicResult `json:"results,omitempty"`
	Blog    *core.Article      `json:"blog,omitempty"`
}

type topicRequest struct {
	Topic string `json:"topic" validate:"required,max=500"`
}

type urlRequest struct {
	RedditURL string `json:"redditUrl" validate:"required,url"`
}

func (s *Server) generationDisabled(w http.ResponseWriter) bool {
	if s.generator != nil {
		return false
	}
	s.respondJSON(w, http.StatusServiceUnavailable, generationResponse{Message: "Blog generation is not configured"})
	return true
}

// handleGenerateBlogs handles POST /api/generate-blogs
func (s *Server) handleGenerateBlogs(w http.ResponseWriter, r *http.Request) {
	if s.generationDisabled(w) {
		return
	}

	report, err := s.generator.Run(r.Context())
	if report == nil {
		report = &core.RunReport{Message: pipeline.MessageFailed}
	}
	if report.Created() > 0 {
		s.listCache.Purge()
	}

	resp := generationResponse{
		Success: report.Success,
		Message: report.Message,
		Results: report.Results,
	}
	if resp.Results == nil {
		resp.Results = []core.TopicResult{}
	}

	switch {
	case err == nil:
		s.respondJSON(w, http.StatusOK, resp)
	case errors.Is(err, pipeline.ErrRunInProgress):
		s.respondJSON(w, http.StatusConflict, resp)
	case errors.Is(err, pipeline.ErrStoreUnavailable):
		s.log.Error("Blog generation aborted", "error", err)
		s.respondJSON(w, http.StatusServiceUnavailable, resp)
	default:
		s.log.Error("Blog generation failed", "error", err)
		s.respondJSON(w, http.StatusInternalServerError, resp)
	}
}

// handleGenerateFromTopic handles POST /api/generate-from-topic
func (s *Server) handleGenerateFromTopic(w http.ResponseWriter, r *http.Request) {
	if s.generationDisabled(w) {
		return
	}

	var req topicRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondJSON(w, http.StatusBadRequest, generationResponse{Message: `Request body must contain a "topic" key.`})
		return
	}
	req.Topic = strings.TrimSpace(req.Topic)
	if err := s.validate.Struct(req); err != nil {
		s.respondJSON(w, http.StatusBadRequest, generationResponse{Message: validationMessage(err)})
		return
	}

	article, err := s.generator.FromSubject(r.Context(), req.Topic)
	s.respondGenerated(w, article, err)
}

// handleGenerateFromURL handles POST /api/generate-from-url
func (s *Server) handleGenerateFromURL(w http.ResponseWriter, r *http.Request) {
	if s.generationDisabled(w) {
		return
	}

	var req urlRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondJSON(w, http.StatusBadRequest, generationResponse{Message: `Request body must contain a "redditUrl" key.`})
		return
	}
	req.RedditURL = strings.TrimSpace(req.RedditURL)
	if err := s.validate.Struct(req); err != nil {
		s.respondJSON(w, http.StatusBadRequest, generationResponse{Message: "Invalid Reddit post URL format."})
		return
	}

	article, err := s.generator.FromURL(r.Context(), req.RedditURL)
	s.respondGenerated(w, article, err)
}

// respondGenerated maps single-article generation outcomes to status codes
func (s *Server) respondGenerated(w http.ResponseWriter, article *core.Article, err error) {
	if err == nil {
		s.listCache.Purge()
		s.respondJSON(w, http.StatusOK, generationResponse{Success: true, Message: "Blog generated successfully!", Blog: article})
		return
	}

	status, message := http.StatusInternalServerError, "Failed to generate blog"
	switch {
	case errors.Is(err, pipeline.ErrRunInProgress):
		status, message = http.StatusConflict, pipeline.MessageInProgress
	case errors.Is(err, reddit.ErrInvalidPostURL):
		status, message = http.StatusBadRequest, "Invalid Reddit post URL format."
	case errors.Is(err, pipeline.ErrEmptySubject):
		status, message = http.StatusBadRequest, `Request body must contain a "topic" key.`
	case errors.Is(err, pipeline.ErrPostUnavailable):
		status, message = http.StatusNotFound, "Could not fetch the specified Reddit post."
	case errors.Is(err, dedup.ErrDuplicate), errors.Is(err, persistence.ErrDuplicateTitle):
		status, message = http.StatusConflict, "A blog for this post already exists."
	case errors.Is(err, pipeline.ErrGenerationFailed):
		message = "Failed to generate blog content"
	}
	if status >= http.StatusInternalServerError {
		s.log.Error("Single blog generation failed", "error", err)
	}
	s.respondJSON(w, status, generationResponse{Message: message})
}
