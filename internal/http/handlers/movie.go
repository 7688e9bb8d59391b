package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/movierec-backend/internal/http/response"
	"github.com/yungbote/movierec-backend/internal/services"
)

type MovieHandler struct {
	movieService services.MovieService
	recService   services.RecommendationService
}

func NewMovieHandler(movieService services.MovieService, recService services.RecommendationService) *MovieHandler {
	return &MovieHandler{movieService: movieService, recService: recService}
}

// GET /api/movies?top_n=
func (mh *MovieHandler) TopRated(c *gin.Context) {
	n, err := queryInt(c, "top_n", 0)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	out, err := mh.recService.TopRated(c.Request.Context(), n)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, out)
}

// GET /api/movies/genre/:genre?top_n=
func (mh *MovieHandler) TopRatedByGenre(c *gin.Context) {
	n, err := queryInt(c, "top_n", 0)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	out, err := mh.recService.TopRatedByGenre(c.Request.Context(), strings.TrimSpace(c.Param("genre")), n)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, out)
}

// GET /api/movies/:id
func (mh *MovieHandler) Get(c *gin.Context) {
	id, err := intParam(c, "id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	m, err := mh.movieService.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, m)
}

// GET /api/movies/:id/similar?top_n=
func (mh *MovieHandler) Similar(c *gin.Context) {
	id, err := intParam(c, "id")
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	n, err := queryInt(c, "top_n", 0)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	out, err := mh.recService.Similar(c.Request.Context(), id, n)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, out)
}

// POST /api/movies
func (mh *MovieHandler) Create(c *gin.Context) {
	var req services.CreateMovieInput
	if err := bindJSON(c, &req); err != nil {
		response.RespondErr(c, err)
		return
	}
	m, err := mh.movieService.Create(c.Request.Context(), req)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, m)
}
