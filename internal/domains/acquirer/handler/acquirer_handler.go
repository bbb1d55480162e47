package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"vnpay-acquirer/internal/domains/acquirer/model"
	"vnpay-acquirer/internal/domains/acquirer/service"
	tokenModel "vnpay-acquirer/internal/domains/token/model"
	"vnpay-acquirer/internal/shared/response"
)

type AcquirerHandler struct {
	service service.AcquirerService
}

func NewAcquirerHandler(service service.AcquirerService) *AcquirerHandler {
	return &AcquirerHandler{service: service}
}

// =====================================================
// CHECKOUT ENDPOINTS
// =====================================================

// FormValues handles POST /payment/vnpay/form_values
func (h *AcquirerHandler) FormValues(c *gin.Context) {
	var req struct {
		AcquirerID uuid.UUID `json:"acquirer_id"`
		model.TxValues
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, model.ErrCodeInvalidInput, "Invalid request payload")
		return
	}

	values, err := h.service.FormGenerateValues(c.Request.Context(), req.AcquirerID, req.TxValues)
	if err != nil {
		statusCode, message, code := model.GetErrorResponse(err)
		response.Error(c, statusCode, code, message)
		return
	}

	response.Success(c, http.StatusOK, "Form values generated", values)
}

// S2SCreateJSON handles POST /payment/vnpay/s2s/create_json
func (h *AcquirerHandler) S2SCreateJSON(c *gin.Context) {
	var data model.S2SFormData
	if err := c.ShouldBindJSON(&data); err != nil {
		response.Error(c, http.StatusBadRequest, model.ErrCodeInvalidInput, "Invalid request payload")
		return
	}

	if !h.service.S2SFormValidate(data) {
		response.Error(c, http.StatusBadRequest, tokenModel.ErrCodeInvalidCardInput, "Missing credit card information")
		return
	}

	token, err := h.service.S2SFormProcess(c.Request.Context(), data)
	if err != nil {
		var tokErr *tokenModel.TokenError
		if errors.As(err, &tokErr) {
			statusCode, message, code := tokenModel.GetErrorResponse(err)
			response.Error(c, statusCode, code, message)
			return
		}
		statusCode, message, code := model.GetErrorResponse(err)
		response.Error(c, statusCode, code, message)
		return
	}

	response.Success(c, http.StatusCreated, "Payment token created", tokenModel.ToTokenResponse(token))
}

// =====================================================
// ADMIN ENDPOINTS
// =====================================================

// GetAcquirer handles GET /admin/acquirers/:id
func (h *AcquirerHandler) GetAcquirer(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid acquirer ID")
		return
	}

	result, err := h.service.GetAcquirerResponse(c.Request.Context(), id)
	if err != nil {
		statusCode, message, code := model.GetErrorResponse(err)
		response.Error(c, statusCode, code, message)
		return
	}

	response.Success(c, http.StatusOK, "Acquirer retrieved successfully", result)
}

// UpdateCredentials handles PUT /admin/acquirers/:id/credentials
func (h *AcquirerHandler) UpdateCredentials(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid acquirer ID")
		return
	}

	var req model.UpdateCredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, model.ErrCodeInvalidInput, "Invalid request payload")
		return
	}

	result, err := h.service.UpdateCredentials(c.Request.Context(), id, req)
	if err != nil {
		statusCode, message, code := model.GetErrorResponse(err)
		response.Error(c, statusCode, code, message)
		return
	}

	response.Success(c, http.StatusOK, "Acquirer credentials updated", result)
}
