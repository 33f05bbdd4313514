package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/theatre-reservation/internal/config"
	"github.com/iliyamo/theatre-reservation/internal/model"
	"github.com/iliyamo/theatre-reservation/internal/repository"
)

// CatalogHandler serves theatre halls, genres, actors and plays.  Reads
// are open to any authenticated user; writes are admin-only (enforced by
// the router).
type CatalogHandler struct {
	Halls  *repository.HallRepo
	Genres *repository.GenreRepo
	Actors *repository.ActorRepo
	Plays  *repository.PlayRepo
	Media  config.MediaConfig
	log    hclog.Logger
}

func NewCatalogHandler(halls *repository.HallRepo, genres *repository.GenreRepo, actors *repository.ActorRepo,
	plays *repository.PlayRepo, media config.MediaConfig, logger hclog.Logger) *CatalogHandler {
	if halls == nil || genres == nil || actors == nil || plays == nil {
		panic("nil repository passed to NewCatalogHandler")
	}
	return &CatalogHandler{Halls: halls, Genres: genres, Actors: actors, Plays: plays, Media: media, log: logger.Named("catalog")}
}

// ----- theatre halls -----

type hallRequest struct {
	Name        string `json:"name" validate:"notblank,max=100"`
	Rows        int    `json:"rows" validate:"gte=1"`
	SeatsPerRow int    `json:"seats_per_row" validate:"gte=1"`
}

func (h *CatalogHandler) ListHalls(c echo.Context) error {
	pg, err := parsePage(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	halls, total, err := h.Halls.List(c.Request().Context(), pg)
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := make([]hallBody, 0, len(halls))
	for _, hall := range halls {
		out = append(out, hallResponse(hall))
	}
	return c.JSON(http.StatusOK, newPage(pg, total, out))
}

func (h *CatalogHandler) GetHall(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	hall, err := h.Halls.GetByID(c.Request().Context(), id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, hallResponse(*hall))
}

func (h *CatalogHandler) CreateHall(c echo.Context) error {
	var req hallRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, h.log, err)
	}
	hall := &model.TheatreHall{Name: strings.TrimSpace(req.Name), Rows: req.Rows, SeatsPerRow: req.SeatsPerRow}
	if err := h.Halls.Create(c.Request().Context(), hall); err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, hallResponse(*hall))
}

// UpdateHall serves PUT (all fields) and PATCH (fields present in the body).
func (h *CatalogHandler) UpdateHall(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	ctx := c.Request().Context()
	var req hallRequest
	if c.Request().Method == http.MethodPatch {
		cur, err := h.Halls.GetByID(ctx, id)
		if err != nil {
			return writeError(c, h.log, err)
		}
		req = hallRequest{Name: cur.Name, Rows: cur.Rows, SeatsPerRow: cur.SeatsPerRow}
	}
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, h.log, err)
	}
	hall := &model.TheatreHall{ID: id, Name: strings.TrimSpace(req.Name), Rows: req.Rows, SeatsPerRow: req.SeatsPerRow}
	if err := h.Halls.Update(ctx, hall); err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, hallResponse(*hall))
}

func (h *CatalogHandler) DeleteHall(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	if err := h.Halls.Delete(c.Request().Context(), id); err != nil {
		return writeError(c, h.log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ----- genres -----

type genreRequest struct {
	Name string `json:"name" validate:"notblank,max=100"`
}

// genreWriteError reports a taken name against the name field.
func (h *CatalogHandler) genreWriteError(c echo.Context, err error) error {
	if errors.Is(err, repository.ErrDuplicate) {
		err = fieldError("name", "genre with this name already exists.")
	}
	return writeError(c, h.log, err)
}

func (h *CatalogHandler) ListGenres(c echo.Context) error {
	pg, err := parsePage(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	genres, total, err := h.Genres.List(c.Request().Context(), pg)
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := make([]genreBody, 0, len(genres))
	for _, g := range genres {
		out = append(out, genreResponse(g))
	}
	return c.JSON(http.StatusOK, newPage(pg, total, out))
}

func (h *CatalogHandler) GetGenre(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	g, err := h.Genres.GetByID(c.Request().Context(), id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, genreResponse(*g))
}

func (h *CatalogHandler) CreateGenre(c echo.Context) error {
	var req genreRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, h.log, err)
	}
	g := &model.Genre{Name: strings.TrimSpace(req.Name)}
	if err := h.Genres.Create(c.Request().Context(), g); err != nil {
		return h.genreWriteError(c, err)
	}
	return c.JSON(http.StatusCreated, genreResponse(*g))
}

// UpdateGenre serves PUT and PATCH; a genre has a single writable field.
func (h *CatalogHandler) UpdateGenre(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	ctx := c.Request().Context()
	var req genreRequest
	if c.Request().Method == http.MethodPatch {
		cur, err := h.Genres.GetByID(ctx, id)
		if err != nil {
			return writeError(c, h.log, err)
		}
		req.Name = cur.Name
	}
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, h.log, err)
	}
	g := &model.Genre{ID: id, Name: strings.TrimSpace(req.Name)}
	if err := h.Genres.Update(ctx, g); err != nil {
		return h.genreWriteError(c, err)
	}
	return c.JSON(http.StatusOK, genreResponse(*g))
}

func (h *CatalogHandler) DeleteGenre(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	if err := h.Genres.Delete(c.Request().Context(), id); err != nil {
		return writeError(c, h.log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ----- actors -----

type actorRequest struct {
	FirstName string `json:"first_name" validate:"notblank,max=100"`
	LastName  string `json:"last_name" validate:"notblank,max=100"`
}

func (h *CatalogHandler) ListActors(c echo.Context) error {
	pg, err := parsePage(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	actors, total, err := h.Actors.List(c.Request().Context(), pg)
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := make([]actorBody, 0, len(actors))
	for _, a := range actors {
		out = append(out, actorResponse(a))
	}
	return c.JSON(http.StatusOK, newPage(pg, total, out))
}

func (h *CatalogHandler) GetActor(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	a, err := h.Actors.GetByID(c.Request().Context(), id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, actorResponse(*a))
}

func (h *CatalogHandler) CreateActor(c echo.Context) error {
	var req actorRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, h.log, err)
	}
	a := &model.Actor{FirstName: strings.TrimSpace(req.FirstName), LastName: strings.TrimSpace(req.LastName)}
	if err := h.Actors.Create(c.Request().Context(), a); err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, actorResponse(*a))
}

func (h *CatalogHandler) UpdateActor(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	ctx := c.Request().Context()
	var req actorRequest
	if c.Request().Method == http.MethodPatch {
		cur, err := h.Actors.GetByID(ctx, id)
		if err != nil {
			return writeError(c, h.log, err)
		}
		req = actorRequest{FirstName: cur.FirstName, LastName: cur.LastName}
	}
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, h.log, err)
	}
	a := &model.Actor{ID: id, FirstName: strings.TrimSpace(req.FirstName), LastName: strings.TrimSpace(req.LastName)}
	if err := h.Actors.Update(ctx, a); err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, actorResponse(*a))
}

func (h *CatalogHandler) DeleteActor(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	if err := h.Actors.Delete(c.Request().Context(), id); err != nil {
		return writeError(c, h.log, err)
	}
	return c.NoContent(http.StatusNoContent)
}
