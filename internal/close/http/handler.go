package closehttp

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/closeboard/internal/board"
	"github.com/odyssey-erp/closeboard/internal/close"
	"github.com/odyssey-erp/closeboard/internal/close/export"
	"github.com/odyssey-erp/closeboard/internal/competency"
	"github.com/odyssey-erp/closeboard/internal/domain"
	"github.com/odyssey-erp/closeboard/internal/platform/httpx"
	"github.com/odyssey-erp/closeboard/internal/shared"
)

type closeService interface {
	ReportRows(ctx context.Context, comp competency.YearMonth, onlyStatus *domain.Status) ([]close.ReportRow, error)
	SetNotes(ctx context.Context, companyID string, comp competency.YearMonth, notes string) (domain.ClosingRecord, error)
	History(companyID string) ([]domain.ClosingRecord, error)
}

// Handler wires HTTP endpoints for the closing board and its report.
type Handler struct {
	logger    *slog.Logger
	service   closeService
	session   *board.Session
	validator *validator.Validate
}

type selectForm struct {
	Competency string `json:"competencia" validate:"required,datetime=2006-01"`
}

type moveForm struct {
	Status string `json:"status" validate:"required,oneof=pendente em-andamento concluido"`
}

type notesForm struct {
	Notes string `json:"observacoes" validate:"max=2000"`
}

type reportResponse struct {
	Competency competency.YearMonth `json:"competencia"`
	Label      string               `json:"competenciaLabel"`
	Rows       []close.ReportRow    `json:"rows"`
}

type reportFile struct {
	name        string
	contentType string
	body        []byte
}

// NewHandler constructs a closing HTTP handler.
func NewHandler(logger *slog.Logger, service closeService, session *board.Session) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		session:   session,
		validator: validator.New(),
	}
}

// MountRoutes registers HTTP routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/board", func(r chi.Router) {
		r.Get("/", h.showBoard)
		r.Put("/competency", h.selectCompetency)
		r.Get("/picker", h.picker)
		r.Post("/cards/{companyID}/move", h.moveCard)
	})
	r.Route("/closings/{companyID}", func(r chi.Router) {
		r.Get("/", h.history)
		r.Put("/{competency}/notes", h.updateNotes)
	})
	r.Get("/report", h.report)
}

// showBoard projects the selected competency. A competencia query parameter
// views another month without moving the selection.
func (h *Handler) showBoard(w http.ResponseWriter, r *http.Request) {
	comp, err := h.competencyParam(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	columns, err := h.session.ColumnsFor(r.Context(), comp)
	if err != nil {
		h.logger.Error("build board", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, columns)
}

// competencyParam reads ?competencia, falling back to the board selection.
func (h *Handler) competencyParam(r *http.Request) (competency.YearMonth, error) {
	value := r.URL.Query().Get("competencia")
	if value == "" {
		return h.session.Active(), nil
	}
	comp, err := competency.Parse(value)
	if err != nil {
		return competency.YearMonth{}, fmt.Errorf("%w: %w", shared.ErrValidation, err)
	}
	return comp, nil
}

func (h *Handler) selectCompetency(w http.ResponseWriter, r *http.Request) {
	var form selectForm
	if !httpx.DecodeAndValidate(w, r, h.validator, &form) {
		return
	}
	if err := h.session.SelectCompetency(form.Competency); err != nil {
		httpx.RespondError(w, err)
		return
	}
	columns, err := h.session.Columns(r.Context())
	if err != nil {
		h.logger.Error("build board", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, columns)
}

func (h *Handler) picker(w http.ResponseWriter, r *http.Request) {
	months := competency.BoardPickerMonths
	if raw := r.URL.Query().Get("months"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 120 {
			httpx.InvalidFields(w, map[string]string{"months": "range 1-120"})
			return
		}
		months = n
	}
	httpx.JSON(w, http.StatusOK, h.session.Picker(months))
}

func (h *Handler) moveCard(w http.ResponseWriter, r *http.Request) {
	var form moveForm
	if !httpx.DecodeAndValidate(w, r, h.validator, &form) {
		return
	}
	companyID := chi.URLParam(r, "companyID")
	rec, err := h.session.DropCard(r.Context(), companyID, form.Status)
	if err != nil {
		h.logger.Error("move card", slog.Any("error", err), slog.String("company_id", companyID))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rec)
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.History(chi.URLParam(r, "companyID"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, records)
}

func (h *Handler) updateNotes(w http.ResponseWriter, r *http.Request) {
	comp, err := competency.Parse(chi.URLParam(r, "competency"))
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %w", shared.ErrValidation, err))
		return
	}
	var form notesForm
	if !httpx.DecodeAndValidate(w, r, h.validator, &form) {
		return
	}
	companyID := chi.URLParam(r, "companyID")
	rec, err := h.service.SetNotes(r.Context(), companyID, comp, form.Notes)
	if err != nil {
		h.logger.Error("update notes", slog.Any("error", err), slog.String("company_id", companyID))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rec)
}

// report serves the closing report as json (default), csv or xlsx. Identical
// concurrent downloads share one build.
func (h *Handler) report(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	comp, err := h.competencyParam(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var onlyStatus *domain.Status
	if value := q.Get("status"); value != "" {
		status, err := domain.ParseStatus(value)
		if err != nil {
			httpx.RespondError(w, fmt.Errorf("%w: %w", shared.ErrValidation, err))
			return
		}
		onlyStatus = &status
	}
	format := q.Get("format")
	if format == "" {
		format = "json"
	}
	if format != "json" && format != "csv" && format != "xlsx" {
		httpx.InvalidFields(w, map[string]string{"format": "oneof json csv xlsx"})
		return
	}

	if format == "json" {
		rows, err := h.service.ReportRows(r.Context(), comp, onlyStatus)
		if err != nil {
			h.logger.Error("build report", slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, reportResponse{Competency: comp, Label: comp.Label(), Rows: rows})
		return
	}

	key := fmt.Sprintf("%s|%s|%v", comp, format, q.Get("status"))
	result, err, _ := singleflightBuild(r.Context(), key, func(ctx context.Context) (interface{}, error) {
		rows, err := h.service.ReportRows(ctx, comp, onlyStatus)
		if err != nil {
			return nil, err
		}
		return renderReport(comp, format, rows)
	})
	if err != nil {
		h.logger.Error("export report", slog.Any("error", err), slog.String("format", format))
		httpx.RespondError(w, err)
		return
	}
	file := result.(reportFile)
	w.Header().Set("Content-Type", file.contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(file.body)
}

func renderReport(comp competency.YearMonth, format string, rows []close.ReportRow) (reportFile, error) {
	buf := &bytes.Buffer{}
	switch format {
	case "csv":
		if err := export.WriteReportCSV(buf, rows); err != nil {
			return reportFile{}, err
		}
		return reportFile{name: export.FileName(comp, "csv"), contentType: "text/csv; charset=utf-8", body: buf.Bytes()}, nil
	default:
		if err := export.WriteReportXLSX(buf, rows); err != nil {
			return reportFile{}, err
		}
		return reportFile{name: export.FileName(comp, "xlsx"), contentType: export.ContentTypeXLSX, body: buf.Bytes()}, nil
	}
}
