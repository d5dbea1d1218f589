package api

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/tsucess/paeshift-backend-sub001/internal/errors"
)

type errorBody struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := errors.StatusOf(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Error(err))
	}

	var body errorBody
	body.Error.Type = string(errors.TypeOf(err))
	body.Error.Message = err.Error()
	s.writeJSON(w, status, body)
}

func (s *Server) decodeBody(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.InvalidInput("invalid request body", err)
	}
	return nil
}
