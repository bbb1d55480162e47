package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"vnpay-acquirer/internal/domains/token/model"
	"vnpay-acquirer/internal/domains/token/service"
	"vnpay-acquirer/internal/shared/response"
)

type TokenHandler struct {
	service service.TokenService
}

func NewTokenHandler(service service.TokenService) *TokenHandler {
	return &TokenHandler{service: service}
}

// GetToken handles GET /admin/tokens/:id
func (h *TokenHandler) GetToken(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid token ID")
		return
	}

	token, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		statusCode, message, code := model.GetErrorResponse(err)
		response.Error(c, statusCode, code, message)
		return
	}

	response.Success(c, http.StatusOK, "Payment token retrieved", token)
}

// ListPartnerTokens handles GET /admin/partners/:id/tokens
func (h *TokenHandler) ListPartnerTokens(c *gin.Context) {
	partnerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid partner ID")
		return
	}

	tokens, err := h.service.ListByPartner(c.Request.Context(), partnerID)
	if err != nil {
		statusCode, message, code := model.GetErrorResponse(err)
		response.Error(c, statusCode, code, message)
		return
	}

	response.Success(c, http.StatusOK, "Payment tokens retrieved", gin.H{
		"data":  tokens,
		"total": len(tokens),
	})
}
