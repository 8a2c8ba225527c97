package server

import (
	"encoding/json"
	"net/http"

	"github.com/joseph-ayodele/contracts-parser/internal/common"
)

type errorResponse struct {
	Detail string `json:"detail"`
}

// writeJSON marshals before writing the header so an unencodable value
// (a NaN or Inf score) becomes a 500 instead of an empty 200.
func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("http.encode_failed", "error", err)
		writeDetail(w, http.StatusInternalServerError, "Internal server error.")
		return
	}
	writeBody(w, code, body)
}

func writeDetail(w http.ResponseWriter, code int, detail string) {
	body, _ := json.Marshal(errorResponse{Detail: detail})
	writeBody(w, code, body)
}

func writeBody(w http.ResponseWriter, code int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(append(body, '\n'))
}

// writeError hides the message of anything that maps to a 500.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := common.HTTPStatus(err)
	if code >= http.StatusInternalServerError && code != http.StatusServiceUnavailable {
		s.logger.Error("http.internal_error", "error", err)
		writeDetail(w, code, "Internal server error.")
		return
	}
	writeDetail(w, code, common.MessageOf(err))
}
