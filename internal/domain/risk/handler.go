package risk

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ams/ams/internal/domain/patient"
	"github.com/ams/ams/internal/domain/renal"
	"github.com/ams/ams/internal/platform/auth"
)

type Handler struct {
	repo patient.Repository
}

func NewHandler(repo patient.Repository) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole("admin", "physician", "nurse", "pharmacist"))
	read.GET("/patients/:id/flags", h.GetPatientFlags)
	read.GET("/dashboard/kpis", h.GetFleetKPIs)
}

// flagsView is the per-patient monitoring summary: red flags, adherence per
// course, and the recomputed eGFR.
type flagsView struct {
	PatientID string       `json:"patient_id"`
	Flags     Flags        `json:"flags"`
	EGFR      renal.Result `json:"egfr"`
	Adherence []Adherence  `json:"adherence"`
}

func (h *Handler) GetPatientFlags(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := h.repo.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, patient.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadGateway, "store request failed, please retry")
	}
	return c.JSON(http.StatusOK, flagsView{
		PatientID: p.ID.String(),
		Flags:     Evaluate(p, time.Now()),
		EGFR:      p.EGFR(),
		Adherence: CourseAdherence(p),
	})
}

func (h *Handler) GetFleetKPIs(c echo.Context) error {
	patients, err := h.repo.List(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "store request failed, please retry")
	}
	return c.JSON(http.StatusOK, Fleet(patients, time.Now()))
}
