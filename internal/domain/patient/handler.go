package patient

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ams/ams/internal/domain/renal"
	"github.com/ams/ams/internal/domain/therapy"
	"github.com/ams/ams/internal/platform/advisory"
	"github.com/ams/ams/internal/platform/auth"
	"github.com/ams/ams/pkg/pagination"
)

type Handler struct {
	svc      *Service
	advisory *advisory.Client
}

// NewHandler creates the patient handler. advisoryClient may be nil, in
// which case the advice endpoint always returns an empty hint.
func NewHandler(svc *Service, advisoryClient *advisory.Client) *Handler {
	return &Handler{svc: svc, advisory: advisoryClient}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	// Read endpoints – every clinical role.
	read := api.Group("", auth.RequireRole("admin", "physician", "nurse", "pharmacist"))
	read.GET("/patients", h.ListPatients)
	read.GET("/patients/:id", h.GetPatient)
	read.GET("/patients/:id/courses/:courseId/advice", h.GetDoseAdvice)

	// Dose logging – nurses administer, so they write here too.
	logGroup := api.Group("", auth.RequireRole("admin", "physician", "nurse", "pharmacist"))
	logGroup.POST("/patients/:id/courses/:courseId/doses", h.RecordDose)
	logGroup.DELETE("/patients/:id/courses/:courseId/doses/:day/:slot", h.ClearDose)
	logGroup.PUT("/patients/:id/courses/:courseId/schedule/:slot", h.SetScheduledTime)

	// Patient and course lifecycle – prescribing roles only.
	write := api.Group("", auth.RequireRole("admin", "physician", "pharmacist"))
	write.POST("/patients", h.CreatePatient)
	write.PUT("/patients/:id", h.UpdatePatient)
	write.DELETE("/patients/:id", h.DeletePatient)
	write.POST("/patients/:id/discharge", h.Discharge)
	write.POST("/patients/:id/courses", h.AddCourse)
	write.POST("/patients/:id/courses/:courseId/complete", h.CompleteCourse)
	write.POST("/patients/:id/courses/:courseId/stop", h.StopCourse)
	write.POST("/patients/:id/courses/:courseId/shift", h.ShiftCourse)
	write.POST("/patients/:id/courses/:courseId/undo", h.UndoCourseAction)
	write.POST("/patients/:id/courses/:courseId/dose", h.AdjustDose)
}

// httpError maps engine errors onto the transport taxonomy: missing
// documents 404, precondition failures 409, store failures 502, anything
// else is a validation problem.
func httpError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrCourseNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case therapy.IsPrecondition(err):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrStore):
		return echo.NewHTTPError(http.StatusBadGateway, "store request failed, please retry")
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}

// View decorates a patient with its derived, never-persisted display
// values.
type View struct {
	*Patient
	EGFR        renal.Result `json:"egfr"`
	DisplayDays int          `json:"display_days"`
}

func newView(p *Patient) *View {
	return &View{Patient: p, EGFR: p.EGFR(), DisplayDays: p.DisplayDays()}
}

func (h *Handler) CreatePatient(c echo.Context) error {
	var p Patient
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Create(c.Request().Context(), &p, auth.ActorFromContext(c)); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, newView(&p))
}

func (h *Handler) GetPatient(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, newView(p))
}

func (h *Handler) ListPatients(c echo.Context) error {
	patients, err := h.svc.List(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	views := make([]*View, 0, len(patients))
	for _, p := range patients {
		views = append(views, newView(p))
	}
	pg := pagination.FromContext(c)
	page := views
	if pg.Offset < len(page) {
		page = page[pg.Offset:]
	} else {
		page = nil
	}
	if len(page) > pg.Limit {
		page = page[:pg.Limit]
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(page, len(views), pg.Limit, pg.Offset))
}

func (h *Handler) UpdatePatient(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var p Patient
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p.ID = id
	updated, err := h.svc.UpdateDetails(c.Request().Context(), &p, auth.ActorFromContext(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, newView(updated))
}

func (h *Handler) DeletePatient(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Discharge(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var body struct {
		Status AdmissionStatus `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if body.Status == "" {
		body.Status = StatusDischarged
	}
	p, err := h.svc.SetAdmissionStatus(c.Request().Context(), id, body.Status, auth.ActorFromContext(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, newView(p))
}

func (h *Handler) AddCourse(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var course therapy.Course
	if err := c.Bind(&course); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.AddCourse(c.Request().Context(), id, &course, auth.ActorFromContext(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, newView(p))
}

func (h *Handler) courseIDs(c echo.Context) (patientID, courseID uuid.UUID, err error) {
	patientID, err = uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	courseID, err = uuid.Parse(c.Param("courseId"))
	if err != nil {
		return uuid.Nil, uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid course id")
	}
	return patientID, courseID, nil
}

func (h *Handler) RecordDose(c echo.Context) error {
	patientID, courseID, err := h.courseIDs(c)
	if err != nil {
		return err
	}
	var body struct {
		Day           int                `json:"day"`
		Slot          int                `json:"slot"`
		Status        therapy.DoseStatus `json:"status"`
		ScheduledTime string             `json:"scheduled_time"`
		Reason        string             `json:"reason"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.RecordDose(c.Request().Context(), patientID, courseID,
		body.Day, body.Slot, body.Status, body.ScheduledTime, body.Reason,
		auth.ActorFromContext(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, newView(p))
}

func (h *Handler) ClearDose(c echo.Context) error {
	patientID, courseID, err := h.courseIDs(c)
	if err != nil {
		return err
	}
	day, err := strconv.Atoi(c.Param("day"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid day index")
	}
	slot, err := strconv.Atoi(c.Param("slot"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid slot index")
	}
	p, err := h.svc.ClearDose(c.Request().Context(), patientID, courseID, day, slot, auth.ActorFromContext(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, newView(p))
}

func (h *Handler) SetScheduledTime(c echo.Context) error {
	patientID, courseID, err := h.courseIDs(c)
	if err != nil {
		return err
	}
	slot, err := strconv.Atoi(c.Param("slot"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid slot index")
	}
	var body struct {
		Time string `json:"time"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.SetScheduledTime(c.Request().Context(), patientID, courseID, slot, body.Time, auth.ActorFromContext(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, newView(p))
}

func (h *Handler) CompleteCourse(c echo.Context) error {
	patientID, courseID, err := h.courseIDs(c)
	if err != nil {
		return err
	}
	p, err := h.svc.CompleteCourse(c.Request().Context(), patientID, courseID, auth.ActorFromContext(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, newView(p))
}

type reasonBody struct {
	Reason string `json:"reason"`
	Detail string `json:"detail"`
}

func (h *Handler) StopCourse(c echo.Context) error {
	patientID, courseID, err := h.courseIDs(c)
	if err != nil {
		return err
	}
	var body reasonBody
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.StopCourse(c.Request().Context(), patientID, courseID, body.Reason, body.Detail, auth.ActorFromContext(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, newView(p))
}

func (h *Handler) ShiftCourse(c echo.Context) error {
	patientID, courseID, err := h.courseIDs(c)
	if err != nil {
		return err
	}
	var body reasonBody
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.ShiftCourse(c.Request().Context(), patientID, courseID, body.Reason, body.Detail, auth.ActorFromContext(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, newView(p))
}

func (h *Handler) UndoCourseAction(c echo.Context) error {
	patientID, courseID, err := h.courseIDs(c)
	if err != nil {
		return err
	}
	p, err := h.svc.UndoCourseAction(c.Request().Context(), patientID, courseID, auth.ActorFromContext(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, newView(p))
}

func (h *Handler) AdjustDose(c echo.Context) error {
	patientID, courseID, err := h.courseIDs(c)
	if err != nil {
		return err
	}
	var body struct {
		NewDose string `json:"new_dose"`
		Reason  string `json:"reason"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.AdjustDose(c.Request().Context(), patientID, courseID, body.NewDose, body.Reason, auth.ActorFromContext(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, newView(p))
}

// GetDoseAdvice consults the advisory dosing service for a renal-adjustment
// hint. The hint is never authoritative: upstream failure or timeout yields
// an empty response, never an error, and no mutation is ever blocked on it.
func (h *Handler) GetDoseAdvice(c echo.Context) error {
	patientID, courseID, err := h.courseIDs(c)
	if err != nil {
		return err
	}
	p, err := h.svc.Get(c.Request().Context(), patientID)
	if err != nil {
		return httpError(err)
	}
	course := p.Course(courseID)
	if course == nil {
		return httpError(ErrCourseNotFound)
	}
	if h.advisory == nil {
		return c.JSON(http.StatusOK, advisory.Recommendation{})
	}
	rec := h.advisory.Advice(c.Request().Context(), advisory.Request{
		Drug:      course.Drug,
		EGFR:      p.EGFR().Display,
		Guideline: c.QueryParam("guideline"),
		Dose:      course.Dose,
		Frequency: course.Frequency,
	})
	if rec == nil {
		return c.JSON(http.StatusOK, advisory.Recommendation{})
	}
	return c.JSON(http.StatusOK, rec)
}
