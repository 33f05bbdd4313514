package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/theatre-reservation/internal/config"
	"github.com/iliyamo/theatre-reservation/internal/model"
	"github.com/iliyamo/theatre-reservation/internal/repository"
)

// PerformanceHandler serves scheduled performances.  Responses are never
// cached because available_seats changes with every booking.
type PerformanceHandler struct {
	Performances *repository.PerformanceRepo
	Plays        *repository.PlayRepo
	Halls        *repository.HallRepo
	Media        config.MediaConfig
	log          hclog.Logger
}

func NewPerformanceHandler(perfs *repository.PerformanceRepo, plays *repository.PlayRepo, halls *repository.HallRepo,
	media config.MediaConfig, logger hclog.Logger) *PerformanceHandler {
	return &PerformanceHandler{Performances: perfs, Plays: plays, Halls: halls, Media: media, log: logger.Named("performances")}
}

type performanceRequest struct {
	Play        uint64    `json:"play" validate:"required"`
	TheatreHall uint64    `json:"theatre_hall" validate:"required"`
	ShowTime    time.Time `json:"show_time" validate:"required"`
}

const dateLayout = "2006-01-02"

// ListPerformances supports ?date=YYYY-MM-DD and ?play=<id>.
func (h *PerformanceHandler) ListPerformances(c echo.Context) error {
	pg, err := parsePage(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	var f repository.PerformanceFilter
	fe := fieldErrors{}
	if v := c.QueryParam("date"); v != "" {
		d, err := time.Parse(dateLayout, v)
		if err != nil {
			fe.add("date", "Date has wrong format. Use one of these formats instead: YYYY-MM-DD.")
		} else {
			f.Date = &d
		}
	}
	if v := c.QueryParam("play"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			fe.add("play", "A valid integer is required.")
		}
		f.PlayID = id
	}
	if len(fe) > 0 {
		return writeError(c, h.log, fe)
	}

	perfs, total, err := h.Performances.List(c.Request().Context(), f, pg)
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := make([]performanceListBody, 0, len(perfs))
	for _, p := range perfs {
		out = append(out, performanceListResponse(p))
	}
	return c.JSON(http.StatusOK, newPage(pg, total, out))
}

func (h *PerformanceHandler) GetPerformance(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	p, err := h.Performances.GetByID(c.Request().Context(), id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, performanceDetailResponse(*p, h.Media.URLPrefix))
}

// checkReferences reports unknown play or hall ids against their fields.
func (h *PerformanceHandler) checkReferences(c echo.Context, req performanceRequest) error {
	ctx := c.Request().Context()
	fe := fieldErrors{}
	if _, err := h.Plays.GetByID(ctx, req.Play); errors.Is(err, repository.ErrNotFound) {
		fe.add("play", fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", req.Play))
	} else if err != nil {
		return err
	}
	if _, err := h.Halls.GetByID(ctx, req.TheatreHall); errors.Is(err, repository.ErrNotFound) {
		fe.add("theatre_hall", fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", req.TheatreHall))
	} else if err != nil {
		return err
	}
	if len(fe) > 0 {
		return fe
	}
	return nil
}

func (h *PerformanceHandler) CreatePerformance(c echo.Context) error {
	var req performanceRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, h.log, err)
	}
	if err := h.checkReferences(c, req); err != nil {
		return writeError(c, h.log, err)
	}
	p := &model.Performance{PlayID: req.Play, TheatreHallID: req.TheatreHall, ShowTime: req.ShowTime.UTC()}
	if err := h.Performances.Create(c.Request().Context(), p); err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, performanceResponse(*p))
}

// UpdatePerformance serves PUT and PATCH.
func (h *PerformanceHandler) UpdatePerformance(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	ctx := c.Request().Context()
	var req performanceRequest
	if c.Request().Method == http.MethodPatch {
		cur, err := h.Performances.GetByID(ctx, id)
		if err != nil {
			return writeError(c, h.log, err)
		}
		req = performanceRequest{Play: cur.PlayID, TheatreHall: cur.TheatreHallID, ShowTime: cur.ShowTime}
	}
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, h.log, err)
	}
	if err := h.checkReferences(c, req); err != nil {
		return writeError(c, h.log, err)
	}
	p := &model.Performance{ID: id, PlayID: req.Play, TheatreHallID: req.TheatreHall, ShowTime: req.ShowTime.UTC()}
	if err := h.Performances.Update(ctx, p); err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, performanceResponse(*p))
}

func (h *PerformanceHandler) DeletePerformance(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	if err := h.Performances.Delete(c.Request().Context(), id); err != nil {
		return writeError(c, h.log, err)
	}
	return c.NoContent(http.StatusNoContent)
}
