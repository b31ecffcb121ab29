package server

import (
	"net/http"
)

type authRequest struct {
	Action   string `json:"action" validate:"required,oneof=login logout"`
	Password string `json:"password"`
}

type authResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type authStatusResponse struct {
	Authenticated bool `json:"authenticated"`
}

// handleAuth handles POST /api/auth for login and logout
func (s *Server) handleAuth(w http.ResponseWriter, r *http.Request) {
	var req authRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondJSON(w, http.StatusBadRequest, authResponse{Message: "Invalid action"})
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.respondJSON(w, http.StatusBadRequest, authResponse{Message: "Invalid action"})
		return
	}
	if s.sessions == nil {
		s.respondJSON(w, http.StatusServiceUnavailable, authResponse{Message: "Admin login is disabled"})
		return
	}

	switch req.Action {
	case "login":
		if !s.login.Allow() {
			s.respondJSON(w, http.StatusTooManyRequests, authResponse{Message: "Too many login attempts"})
			return
		}
		if err := s.sessions.CheckPassword(req.Password); err != nil {
			s.log.Warn("Failed admin login", "remote_addr", r.RemoteAddr)
			s.respondJSON(w, http.StatusUnauthorized, authResponse{Message: "Invalid password"})
			return
		}
		token, err := s.sessions.Issue()
		if err != nil {
			s.log.Error("Failed to issue session", "error", err)
			s.respondJSON(w, http.StatusInternalServerError, authResponse{Message: "Server error"})
			return
		}
		s.sessions.SetCookie(w, token)
		s.respondJSON(w, http.StatusOK, authResponse{Success: true, Message: "Login successful"})

	case "logout":
		s.sessions.ClearCookie(w)
		s.respondJSON(w, http.StatusOK, authResponse{Success: true, Message: "Logout successful"})
	}
}

// handleAuthStatus handles GET /api/auth
func (s *Server) handleAuthStatus(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, authStatusResponse{Authenticated: s.isAdmin(r)})
}
