package handler

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/theatre-reservation/internal/model"
	"github.com/iliyamo/theatre-reservation/internal/repository"
)

type playRequest struct {
	Title       string   `json:"title" validate:"notblank,max=255"`
	Description string   `json:"description"`
	Genres      []uint64 `json:"genres" validate:"dive,gte=1"`
	Actors      []uint64 `json:"actors" validate:"dive,gte=1"`
}

func (r playRequest) toModel(id uint64) *model.Play {
	p := &model.Play{ID: id, Title: strings.TrimSpace(r.Title), Description: r.Description}
	for _, g := range r.Genres {
		p.Genres = append(p.Genres, model.Genre{ID: g})
	}
	for _, a := range r.Actors {
		p.Actors = append(p.Actors, model.Actor{ID: a})
	}
	return p
}

// ListPlays supports ?title=, ?genres=1,2 and ?actors=3,4.
func (h *CatalogHandler) ListPlays(c echo.Context) error {
	pg, err := parsePage(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	f := repository.PlayFilter{Title: c.QueryParam("title")}
	fe := fieldErrors{}
	if f.GenreIDs, err = parseIDList(c.QueryParam("genres")); err != nil {
		fe.add("genres", "Enter a comma separated list of integer ids.")
	}
	if f.ActorIDs, err = parseIDList(c.QueryParam("actors")); err != nil {
		fe.add("actors", "Enter a comma separated list of integer ids.")
	}
	if len(fe) > 0 {
		return writeError(c, h.log, fe)
	}

	plays, total, err := h.Plays.List(c.Request().Context(), f, pg)
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := make([]playListBody, 0, len(plays))
	for _, p := range plays {
		out = append(out, playListResponse(p, h.Media.URLPrefix))
	}
	return c.JSON(http.StatusOK, newPage(pg, total, out))
}

func (h *CatalogHandler) GetPlay(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	p, err := h.Plays.GetByID(c.Request().Context(), id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, playDetailResponse(*p, h.Media.URLPrefix))
}

func (h *CatalogHandler) CreatePlay(c echo.Context) error {
	var req playRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, h.log, err)
	}
	ctx := c.Request().Context()
	p := req.toModel(0)
	if err := h.Plays.Create(ctx, p); err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, playResponse(*p, h.Media.URLPrefix))
}

// UpdatePlay serves PUT and PATCH.  The image is only changed through
// UploadPlayImage.
func (h *CatalogHandler) UpdatePlay(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	ctx := c.Request().Context()
	cur, err := h.Plays.GetByID(ctx, id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	var req playRequest
	if c.Request().Method == http.MethodPatch {
		req = playRequest{Title: cur.Title, Description: cur.Description, Genres: cur.GenreIDs(), Actors: cur.ActorIDs()}
	}
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, h.log, err)
	}
	p := req.toModel(id)
	p.Image = cur.Image
	if err := h.Plays.Update(ctx, p); err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, playResponse(*p, h.Media.URLPrefix))
}

func (h *CatalogHandler) DeletePlay(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	if err := h.Plays.Delete(c.Request().Context(), id); err != nil {
		return writeError(c, h.log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// imageFileName builds "<slugified title>-<uuid><ext>" so uploads never
// collide and stay readable on disk.
func imageFileName(title, ext string) string {
	base := slug.Make(title)
	if base == "" {
		base = "play"
	}
	return fmt.Sprintf("%s-%s%s", base, uuid.New().String(), ext)
}

// UploadPlayImage handles POST /plays/:id/upload-image with a multipart
// "image" field.  The file is stored under MEDIA_ROOT/uploads/plays and
// its relative path saved on the play.
func (h *CatalogHandler) UploadPlayImage(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return writeError(c, h.log, err)
	}
	ctx := c.Request().Context()
	p, err := h.Plays.GetByID(ctx, id)
	if err != nil {
		return writeError(c, h.log, err)
	}

	fh, err := c.FormFile("image")
	if err != nil {
		return writeError(c, h.log, fieldError("image", "No file was submitted."))
	}
	if h.Media.MaxBytes > 0 && fh.Size > h.Media.MaxBytes {
		return writeError(c, h.log, fieldError("image", fmt.Sprintf("Ensure the file is at most %d bytes.", h.Media.MaxBytes)))
	}
	src, err := fh.Open()
	if err != nil {
		return writeError(c, h.log, err)
	}
	defer src.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(src, head)
	if err != nil && err != io.ErrUnexpectedEOF {
		return writeError(c, h.log, fieldError("image", "Upload a valid image."))
	}
	ext, ok := imageExtensions[http.DetectContentType(head[:n])]
	if !ok {
		return writeError(c, h.log, fieldError("image", "Upload a valid image. The file you uploaded was either not an image or a corrupted image."))
	}

	rel := path.Join("uploads", "plays", imageFileName(p.Title, ext))
	dst := filepath.Join(h.Media.Root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return writeError(c, h.log, err)
	}
	out, err := os.Create(dst)
	if err != nil {
		return writeError(c, h.log, err)
	}
	_, err = io.Copy(out, io.MultiReader(bytes.NewReader(head[:n]), src))
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(dst)
		return writeError(c, h.log, err)
	}

	if err := h.Plays.SetImage(ctx, id, rel); err != nil {
		_ = os.Remove(dst)
		return writeError(c, h.log, err)
	}
	if p.Image != nil && *p.Image != "" {
		_ = os.Remove(filepath.Join(h.Media.Root, filepath.FromSlash(*p.Image)))
	}
	h.log.Info("play image uploaded", "play_id", id, "path", rel, "bytes", fh.Size)
	return c.JSON(http.StatusOK, echo.Map{"id": id, "image": mediaURL(h.Media.URLPrefix, &rel)})
}
