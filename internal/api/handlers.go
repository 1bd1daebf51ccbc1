package api

import (
	"context"
	"errors"
	"net/http"

	"textdigest/internal/auth"
	"textdigest/internal/domain"
)

// transformHandler serves both generation endpoints; mode selects the
// instruction and the record field that receives the output.
func (s *Server) transformHandler(mode domain.Mode) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w, r)
			return
		}

		data, err := s.decodeBody(w, r)
		if err != nil {
			writeDecodeError(w, err)
			return
		}

		text, ok := validateText(data)
		if !ok {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: msgTextRequired})
			return
		}

		ctx := r.Context()
		userID := auth.UserID(ctx)

		transformCtx, cancel := context.WithTimeout(ctx, s.opts.TransformTimeout)
		defer cancel()

		output, err := s.transformer.Transform(transformCtx, s.instructions.For(mode), text)
		if err != nil {
			s.log.ErrorContext(ctx, "Failed to transform text",
				"error", err,
				"mode", mode.String(),
				"userID", userID,
				"textLen", len(text))

			writeJSON(w, http.StatusBadGateway, errorResponse{Error: "Failed to generate response"})
			return
		}

		record := domain.NewRecord(mode, text, output)
		if err = s.store.CreateRecord(ctx, &record); err != nil {
			s.log.ErrorContext(ctx, "Failed to save record",
				"error", err,
				"mode", mode.String(),
				"userID", userID)

			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to save record"})
			return
		}

		s.log.InfoContext(ctx, "Record is created",
			"recordID", record.ID,
			"mode", mode.String(),
			"userID", userID)

		writeJSON(w, http.StatusOK, newRecordResponse(record))
	}
}

func (s *Server) handleTokenObtain(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, r)
		return
	}

	data, err := s.decodeBody(w, r)
	if err != nil {
		writeDecodeError(w, err)
		return
	}

	values, missing := requiredStrings(data, "username", "password")
	if missing != nil {
		writeJSON(w, http.StatusBadRequest, missing)
		return
	}

	pair, err := s.auth.Login(r.Context(), values["username"], values["password"])
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeUnauthorized(w, detailResponse{
				Detail: "No active account found with the given credentials",
			})
			return
		}

		s.log.ErrorContext(r.Context(), "Failed to issue tokens",
			"error", err,
			"username", values["username"])

		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, tokenPairResponse{Refresh: pair.Refresh, Access: pair.Access})
}

func (s *Server) handleTokenRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, r)
		return
	}

	data, err := s.decodeBody(w, r)
	if err != nil {
		writeDecodeError(w, err)
		return
	}

	values, missing := requiredStrings(data, "refresh")
	if missing != nil {
		writeJSON(w, http.StatusBadRequest, missing)
		return
	}

	access, err := s.auth.Refresh(r.Context(), values["refresh"])
	if err != nil {
		if errors.Is(err, auth.ErrInvalidToken) {
			writeUnauthorized(w, detailResponse{
				Detail: "Token is invalid or expired",
				Code:   "token_not_valid",
			})
			return
		}

		s.log.ErrorContext(r.Context(), "Failed to refresh token",
			"error", err)

		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, accessResponse{Access: access})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.log.ErrorContext(r.Context(), "Health check failed",
			"error", err)

		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
