package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/virtualbasket/backend/internal/domain"
	"github.com/virtualbasket/backend/internal/infrastructure/logging"
	"github.com/virtualbasket/backend/internal/usecase"
)

// validate checks request payloads against their struct tags
var validate = validator.New()

// BasketService is the use case surface the handlers depend on
type BasketService interface {
	ParseBasket(ctx context.Context, text string) (*domain.BasketResult, error)
	MatchPhrases(ctx context.Context, phrases []string) ([]domain.PhraseMatch, error)
	SplitPhrases(text string) []string
}

// ParseBasketRequest is the body of POST /virtual-basket/parse
type ParseBasketRequest struct {
	Text string `json:"text" validate:"max=2000"`
}

// MatchBasketRequest is the body of POST /virtual-basket/match.
// Either Phrases or Text must be given; Text is split into phrases.
type MatchBasketRequest struct {
	Phrases []string `json:"phrases" validate:"omitempty,max=50,dive,required,max=200"`
	Text    string   `json:"text" validate:"max=2000"`
}

// MatchBasketResponse is the body returned by POST /virtual-basket/match
type MatchBasketResponse struct {
	Matches      []domain.PhraseMatch `json:"matches"`
	TotalMatched int                  `json:"total_matched"`
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	basketService BasketService
	logger        zerolog.Logger
}

// NewHandler creates a new HTTP handler. A nil service makes the basket
// endpoints answer 501.
func NewHandler(basketService BasketService, logger zerolog.Logger) *Handler {
	return &Handler{
		basketService: basketService,
		logger:        logger.With().Str("component", "http").Logger(),
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "virtualbasket-backend",
		"version": "1.0.0",
	})
}

// ParseBasket turns free text into parsed items, suggestions and combos
func (h *Handler) ParseBasket(c *gin.Context) {
	if h.basketService == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "basket service is not configured"})
		return
	}

	var req ParseBasketRequest
	if !h.bindAndValidate(c, &req) {
		return
	}

	result, err := h.basketService.ParseBasket(c.Request.Context(), req.Text)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// MatchBasket resolves each phrase to its single best product
func (h *Handler) MatchBasket(c *gin.Context) {
	if h.basketService == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "basket service is not configured"})
		return
	}

	var req MatchBasketRequest
	if !h.bindAndValidate(c, &req) {
		return
	}

	phrases := req.Phrases
	if len(phrases) == 0 {
		phrases = h.basketService.SplitPhrases(req.Text)
	}
	if len(phrases) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "either phrases or text is required"})
		return
	}

	matches, err := h.basketService.MatchPhrases(c.Request.Context(), phrases)
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := MatchBasketResponse{Matches: matches}
	for _, m := range matches {
		if m.Matched() {
			resp.TotalMatched++
		}
	}

	c.JSON(http.StatusOK, resp)
}

// Vocabulary lists the item types and colors the parser understands
func (h *Handler) Vocabulary(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"item_types": usecase.ItemTypes(),
		"colors":     usecase.Colors(),
	})
}

// bindAndValidate decodes the JSON body into req and validates it, writing a
// 400 response and returning false on failure
func (h *Handler) bindAndValidate(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return false
	}

	if err := validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "request validation failed",
			"details": validationMessages(err),
		})
		return false
	}
	return true
}

// writeError maps use case errors to HTTP status codes
func (h *Handler) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"

	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrCatalogUnavailable):
		status, message = http.StatusServiceUnavailable, "product catalog is temporarily unavailable, please retry"
	case errors.Is(err, domain.ErrRateLimited):
		status, message = http.StatusTooManyRequests, "rate limit exceeded"
	case errors.Is(err, context.DeadlineExceeded):
		status, message = http.StatusGatewayTimeout, "request timed out"
	}

	logger := logging.FromContext(c.Request.Context(), h.logger)
	logger.Error().Err(err).Int("status", status).Str("path", c.FullPath()).Msg("request failed")

	c.JSON(status, gin.H{"error": message})
}

// validationMessages flattens validator errors into "field: rule" strings
func validationMessages(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}

	messages := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		if fe.Param() != "" {
			messages = append(messages, fmt.Sprintf("%s: failed %s=%s", field, fe.Tag(), fe.Param()))
		} else {
			messages = append(messages, fmt.Sprintf("%s: failed %s", field, fe.Tag()))
		}
	}
	return messages
}
