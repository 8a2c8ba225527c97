package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/joseph-ayodele/contracts-parser/constants"
	"github.com/joseph-ayodele/contracts-parser/internal/contracts"
	"github.com/joseph-ayodele/contracts-parser/internal/entity"
)

type uploadResponse struct {
	ContractID string `json:"contract_id"`
}

type statusResponse struct {
	ContractID string                   `json:"contract_id"`
	Status     constants.ContractStatus `json:"status"`
	Progress   int                      `json:"progress"`
	Error      *string                  `json:"error"`
}

type dataResponse struct {
	ContractID       string                  `json:"contract_id"`
	Data             map[string]entity.Value `json:"data"`
	ConfidenceScores map[string]float64      `json:"confidence_scores"`
	Gaps             []string                `json:"gaps"`
	Score            float64                 `json:"score"`
}

type listItem struct {
	ContractID string                   `json:"contract_id"`
	Status     constants.ContractStatus `json:"status"`
	CreatedAt  time.Time                `json:"created_at"`
	Score      *float64                 `json:"score"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeDetail(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("File exceeds the %d byte upload limit.", s.maxUploadBytes))
			return
		}
		writeDetail(w, http.StatusUnprocessableEntity, contracts.MsgFileRequired)
		return
	}
	defer file.Close()

	c, err := s.contracts.Submit(r.Context(), contracts.SubmitRequest{Filename: header.Filename, Body: file})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, uploadResponse{ContractID: c.ID})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	c, err := s.contracts.Status(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, statusResponse{
		ContractID: c.ID,
		Status:     c.Status,
		Progress:   c.Progress,
		Error:      c.Error,
	})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	c, err := s.contracts.Data(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	doc := c.Data
	resp := dataResponse{
		ContractID:       c.ID,
		Data:             doc.Categories(),
		ConfidenceScores: doc.ConfidenceScores,
		Gaps:             doc.Gaps,
		Score:            doc.Score,
	}
	if resp.ConfidenceScores == nil {
		resp.ConfidenceScores = map[string]float64{}
	}
	if resp.Gaps == nil {
		resp.Gaps = []string{}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	recs, err := s.contracts.List(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := make([]listItem, 0, len(recs))
	for _, c := range recs {
		out = append(out, listItem{
			ContractID: c.ID,
			Status:     c.Status,
			CreatedAt:  c.CreatedAt,
			Score:      c.Score(),
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	f, c, err := s.contracts.OpenFile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", constants.ContentTypePDF)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, constants.StoredFilename(c.ID)))
	if st, err := f.Stat(); err == nil {
		http.ServeContent(w, r, "", st.ModTime(), f)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, f)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	data, err := s.export.ExportContractsXLSX(r.Context(), status)
	if err != nil {
		s.logger.Error("export.xlsx.failed", "status", status, "error", err)
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", constants.ContentTypeXLSX)
	w.Header().Set("Content-Disposition", `attachment; filename="contracts.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
