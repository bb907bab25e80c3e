// src/handlers/report_handler.go
package handlers

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Tombez/bank-transaction-vis-sub000/src/logger"
	"github.com/Tombez/bank-transaction-vis-sub000/src/models"
	"github.com/Tombez/bank-transaction-vis-sub000/src/processors"
	"github.com/Tombez/bank-transaction-vis-sub000/src/services"
)

type ReportHandler struct {
	pipelineService services.PipelineService
}

func NewReportHandler(service services.PipelineService) *ReportHandler {
	return &ReportHandler{pipelineService: service}
}

// HandleGetCategories returns the income, ignored and spending trees.
func (h *ReportHandler) HandleGetCategories(w http.ResponseWriter, r *http.Request) {
	report, err := h.pipelineService.Report()
	if err != nil {
		logger.ErrorFromContext(r.Context(), "Pipeline run failed", "error", err)
		sendJSONError(w, "pipeline failed: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}
	sendJSON(w, report.Categories, http.StatusOK)
}

// Flow pieces reference each other through connectors, so the wire shape
// replaces pointers with (layer, index) coordinates.
type flowPieceRef struct {
	Layer int `json:"layer"`
	Index int `json:"index"`
}

type flowConnectorDTO struct {
	Offset float64      `json:"offset"`
	Target flowPieceRef `json:"target"`
}

type flowPieceDTO struct {
	Name  string             `json:"name"`
	Total decimal.Decimal    `json:"total"`
	Color string             `json:"color"`
	Left  []flowConnectorDTO `json:"left,omitempty"`
	Right []flowConnectorDTO `json:"right,omitempty"`
}

// HandleGetFlow returns the flow-diagram layers with connector bands.
func (h *ReportHandler) HandleGetFlow(w http.ResponseWriter, r *http.Request) {
	report, err := h.pipelineService.Report()
	if err != nil {
		logger.ErrorFromContext(r.Context(), "Pipeline run failed", "error", err)
		sendJSONError(w, "pipeline failed: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}
	sendJSON(w, flowLayersDTO(report.Layers), http.StatusOK)
}

func flowLayersDTO(layers [][]*models.FlowPiece) [][]flowPieceDTO {
	refs := make(map[*models.FlowPiece]flowPieceRef)
	for li, layer := range layers {
		for pi, piece := range layer {
			refs[piece] = flowPieceRef{Layer: li, Index: pi}
		}
	}
	connectors := func(cs []models.FlowConnector) []flowConnectorDTO {
		var out []flowConnectorDTO
		for _, c := range cs {
			out = append(out, flowConnectorDTO{Offset: c.Offset, Target: refs[c.Piece]})
		}
		return out
	}
	out := make([][]flowPieceDTO, len(layers))
	for li, layer := range layers {
		for _, piece := range layer {
			out[li] = append(out[li], flowPieceDTO{
				Name:  piece.Name,
				Total: piece.Total,
				Color: piece.Color,
				Left:  connectors(piece.LeftConnectors),
				Right: connectors(piece.RightConnectors),
			})
		}
	}
	return out
}

// HandleGetBalances returns every account's daily balance series.
func (h *ReportHandler) HandleGetBalances(w http.ResponseWriter, r *http.Request) {
	report, err := h.pipelineService.Report()
	if err != nil {
		logger.ErrorFromContext(r.Context(), "Pipeline run failed", "error", err)
		sendJSONError(w, "pipeline failed: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}
	sendJSON(w, report.Balances, http.StatusOK)
}

type reconcileRequest struct {
	Account string `json:"account"`
	Known   []struct {
		Date    string          `json:"date"`
		Balance decimal.Decimal `json:"balance"`
	} `json:"known"`
}

type reconcileResponse struct {
	Points        []models.BalancePoint `json:"points"`
	Discrepancies []models.Discrepancy  `json:"discrepancies"`
}

// HandleReconcile checks an account against known checkpoint balances.
func (h *ReportHandler) HandleReconcile(w http.ResponseWriter, r *http.Request) {
	var req reconcileRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	known := make([]processors.KnownBalance, 0, len(req.Known))
	for _, k := range req.Known {
		at, err := time.Parse("2006-01-02", k.Date)
		if err != nil {
			sendJSONError(w, "invalid checkpoint date "+k.Date, http.StatusBadRequest)
			return
		}
		known = append(known, processors.KnownBalance{At: at, Balance: k.Balance})
	}
	points, events, err := h.pipelineService.ReconcileAccount(req.Account, known)
	if err != nil {
		logger.ErrorFromContext(r.Context(), "Reconciliation failed", "account", req.Account, "error", err)
		sendJSONError(w, "reconciliation failed: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}
	sendJSON(w, reconcileResponse{Points: points, Discrepancies: events}, http.StatusOK)
}

// HandleGetLedgerCSV streams the simplified ledger CSV.
func (h *ReportHandler) HandleGetLedgerCSV(w http.ResponseWriter, r *http.Request) {
	csvText, err := h.pipelineService.LedgerCSV()
	if err != nil {
		logger.ErrorFromContext(r.Context(), "Ledger export failed", "error", err)
		sendJSONError(w, "ledger export failed: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="ledger.csv"`)
	_, _ = w.Write([]byte(csvText))
}
