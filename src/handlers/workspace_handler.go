// src/handlers/workspace_handler.go
package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Tombez/bank-transaction-vis-sub000/src/config"
	"github.com/Tombez/bank-transaction-vis-sub000/src/logger"
	"github.com/Tombez/bank-transaction-vis-sub000/src/services"
	"github.com/Tombez/bank-transaction-vis-sub000/src/workspace"
)

type WorkspaceHandler struct {
	pipelineService services.PipelineService
}

func NewWorkspaceHandler(service services.PipelineService) *WorkspaceHandler {
	return &WorkspaceHandler{pipelineService: service}
}

// HandleGetWorkspace writes the workspace wire format: a JSON array of banks.
func (h *WorkspaceHandler) HandleGetWorkspace(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := h.pipelineService.Workspace().Encode(w); err != nil {
		logger.ErrorFromContext(r.Context(), "Failed to encode workspace", "error", err)
	}
}

// HandlePutWorkspace restores a previously saved workspace. Decoding keeps
// every persisted mapping as-is; nothing heuristic runs on restore.
func (h *WorkspaceHandler) HandlePutWorkspace(w http.ResponseWriter, r *http.Request) {
	ws, err := workspace.Decode(http.MaxBytesReader(w, r.Body, config.Cfg.MaxUploadSizeBytes))
	if err != nil {
		sendJSONError(w, "invalid workspace payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.pipelineService.ReplaceWorkspace(ws); err != nil {
		logger.ErrorFromContext(r.Context(), "Failed to replace workspace", "error", err)
		sendJSONError(w, "failed to store workspace", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type uploadFileRequest struct {
	File string `json:"file"`
	CSV  string `json:"csv"`
}

type uploadFileResponse struct {
	ID            string                 `json:"id"`
	Settings      workspace.FileSettings `json:"settings"`
	IsFullyFilled bool                   `json:"isFullyFilled"`
}

// HandleUploadFile ingests one CSV export under /banks/{bank}/accounts/{account}.
// Header detection and column heuristics run once here; the response carries
// the guessed mapping for the user to confirm or override.
func (h *WorkspaceHandler) HandleUploadFile(w http.ResponseWriter, r *http.Request) {
	bank := chi.URLParam(r, "bank")
	account := chi.URLParam(r, "account")
	if bank == "" || account == "" {
		sendJSONError(w, "bank and account are required", http.StatusBadRequest)
		return
	}

	var req uploadFileRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	file, err := h.pipelineService.AddTransactionFile(bank, account, req.File, req.CSV)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyUpload), errors.Is(err, services.ErrParsingFailed):
			sendJSONError(w, err.Error(), http.StatusBadRequest)
		default:
			logger.ErrorFromContext(r.Context(), "Upload failed", "file", req.File, "error", err)
			sendJSONError(w, "failed to ingest file", http.StatusInternalServerError)
		}
		return
	}
	sendJSON(w, uploadFileResponse{
		ID:            file.ID,
		Settings:      file.Settings,
		IsFullyFilled: file.IsFullyFilled(),
	}, http.StatusCreated)
}

// HandleUpdateFileSettings applies a user override to a file's role mapping.
func (h *WorkspaceHandler) HandleUpdateFileSettings(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "fileID")
	var settings workspace.FileSettings
	if err := decodeJSONBody(w, r, &settings); err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.pipelineService.UpdateFileSettings(fileID, settings); err != nil {
		if errors.Is(err, services.ErrFileNotFound) {
			sendJSONError(w, "file not found", http.StatusNotFound)
			return
		}
		logger.ErrorFromContext(r.Context(), "Settings update failed", "fileID", fileID, "error", err)
		sendJSONError(w, "failed to update settings", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, config.Cfg.MaxUploadSizeBytes)
	raw, err := io.ReadAll(body)
	if err != nil {
		return errors.New("request body too large or unreadable")
	}
	if err := unmarshalStrict(raw, dst); err != nil {
		return errors.New("invalid JSON payload: " + err.Error())
	}
	return nil
}
