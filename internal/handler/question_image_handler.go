package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/examsecure/examsecure-backend/internal/middleware"
	"github.com/examsecure/examsecure-backend/internal/render"
	"github.com/examsecure/examsecure-backend/internal/response"
	"github.com/examsecure/examsecure-backend/internal/session"
	"github.com/examsecure/examsecure-backend/internal/store"
)

// QuestionImageHandler serves rendered question bitmaps. Question text
// only ever leaves the server inside a perturbed image; the JSON surface
// carries numbers and option counts, never the text itself.
type QuestionImageHandler struct {
	store    *store.Store
	sessions *session.Manager
	renderer *render.Renderer
}

// NewQuestionImageHandler creates a new QuestionImageHandler.
func NewQuestionImageHandler(st *store.Store, sessions *session.Manager, r *render.Renderer) *QuestionImageHandler {
	return &QuestionImageHandler{store: st, sessions: sessions, renderer: r}
}

// Image godoc
// GET /api/v1/attempt/questions/:number/image?format=png|webp
// Renders the question the caller is entitled to see: the request only
// succeeds while an attempt on the owning exam is live.
func (h *QuestionImageHandler) Image(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	s, err := h.sessions.Get(claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNoActiveAttempt)
		return
	}

	number, err := strconv.Atoi(c.Param("number"))
	if err != nil || number < 1 {
		response.Fail(c, http.StatusBadRequest, response.ErrQuestionBounds)
		return
	}

	q, err := h.store.QuestionByNumber(s.ExamID(), number)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrQuestionBounds)
		return
	}

	in := render.Input{
		ExamID:         q.ExamID,
		QuestionNumber: q.QuestionNumber,
		Text:           q.Text,
		Options:        q.Options,
	}

	switch c.DefaultQuery("format", "png") {
	case "webp":
		data, err := h.renderer.RenderWebP(in)
		if err != nil {
			response.Fail(c, http.StatusInternalServerError, response.ErrRenderFailed)
			return
		}
		c.Data(http.StatusOK, "image/webp", data)
	default:
		data, err := h.renderer.RenderPNG(in)
		if err != nil {
			response.Fail(c, http.StatusInternalServerError, response.ErrRenderFailed)
			return
		}
		c.Data(http.StatusOK, "image/png", data)
	}
}
