package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Domenick1991/farequote/internal/domain"
	"github.com/Domenick1991/farequote/internal/search"
	"github.com/Domenick1991/farequote/internal/service/quotes"
)

type QuoteHandler struct {
	service quotes.QuoteUseCase
	logger  *zap.SugaredLogger
}

func NewQuoteHandler(service quotes.QuoteUseCase, logger *zap.SugaredLogger) *QuoteHandler {
	return &QuoteHandler{service: service, logger: logger}
}

func (h *QuoteHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.search)
	router.GET("/:id", h.get)
}

// search never rejects a request because of its filters; only store
// failures produce an error response.
func (h *QuoteHandler) search(c *gin.Context) {
	criteria, echo := search.ParseParams(c.Request.URL.Query())

	result, err := h.service.Search(c.Request.Context(), criteria)
	if err != nil {
		h.logger.Errorw("quote search failed", "error", err, "current", echo)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}
	c.JSON(http.StatusOK, newSearchResponse(result, echo))
}

func (h *QuoteHandler) get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	quote, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrFareNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.logger.Errorw("get quote failed", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, newQuoteRow(*quote))
}
