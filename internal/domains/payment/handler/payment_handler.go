package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	acquirerModel "vnpay-acquirer/internal/domains/acquirer/model"
	"vnpay-acquirer/internal/domains/payment/gateway/vnpay"
	"vnpay-acquirer/internal/domains/payment/model"
	"vnpay-acquirer/internal/domains/payment/service"
	tokenModel "vnpay-acquirer/internal/domains/token/model"
	"vnpay-acquirer/internal/shared/response"
	"vnpay-acquirer/internal/shared/utils"
	"vnpay-acquirer/pkg/logger"
)

// maxFeedbackBody bounds the feedback payload read from the gateway
const maxFeedbackBody = 1 << 20

type PaymentHandler struct {
	paymentService service.PaymentService
}

// NewPaymentHandler creates new payment handler
func NewPaymentHandler(paymentService service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// =====================================================
// CHECKOUT ENDPOINTS
// =====================================================

// CreateCharge charges the token posted by the checkout
// POST /api/v1/payment/vnpay/create_charge
func (h *PaymentHandler) CreateCharge(c *gin.Context) {
	var req model.CreateChargeRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, http.StatusBadRequest, model.ErrCodeInvalidInput, "Invalid request payload")
		return
	}

	result, err := h.paymentService.CreateCharge(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Charge processed", result)
}

// Feedback receives a signed gateway answer and validates the matching transaction
// POST /api/v1/payment/vnpay/feedback
func (h *PaymentHandler) Feedback(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxFeedbackBody))
	if err != nil {
		response.BadRequest(c, "Unable to read feedback body")
		return
	}

	data, validated, err := h.paymentService.ReceiveFeedback(
		c.Request.Context(),
		body,
		c.GetHeader(vnpay.HeaderSignature),
	)
	if err != nil {
		logger.Warn("vnpay: feedback rejected", map[string]interface{}{
			"error":      err.Error(),
			"client_ip":  utils.ClientIP(c),
			"request_id": c.GetString("request_id"),
		})
		writeError(c, err)
		return
	}

	logger.Info("vnpay: feedback received", map[string]interface{}{
		"reference":  data.Reference(),
		"object":     data.Object,
		"validated":  validated,
		"client_ip":  utils.ClientIP(c),
		"request_id": c.GetString("request_id"),
	})

	response.Success(c, http.StatusOK, "Feedback processed", model.FeedbackResponse{
		Validated: validated,
		Reference: data.Reference(),
	})
}

// =====================================================
// ADMIN ENDPOINTS
// =====================================================

// CreateTransaction handles POST /admin/transactions
func (h *PaymentHandler) CreateTransaction(c *gin.Context) {
	var req model.CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, model.ErrCodeInvalidInput, "Invalid request payload")
		return
	}

	tx, err := h.paymentService.CreateTransaction(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "Transaction created", model.ToTransactionResponse(tx))
}

// GetTransaction handles GET /admin/transactions/:id
func (h *PaymentHandler) GetTransaction(c *gin.Context) {
	id, ok := transactionID(c)
	if !ok {
		return
	}

	tx, err := h.paymentService.GetTransaction(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Transaction retrieved successfully", model.ToTransactionResponse(tx))
}

// ListFeedback handles GET /admin/transactions/:id/feedback
func (h *PaymentHandler) ListFeedback(c *gin.Context) {
	id, ok := transactionID(c)
	if !ok {
		return
	}

	logs, err := h.paymentService.ListFeedback(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Feedback retrieved successfully", gin.H{
		"data":  logs,
		"total": len(logs),
	})
}

// DoTransaction handles POST /admin/transactions/:id/charge
func (h *PaymentHandler) DoTransaction(c *gin.Context) {
	id, ok := transactionID(c)
	if !ok {
		return
	}

	tx, validated, err := h.paymentService.DoTransaction(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Charge processed", gin.H{
		"validated":   validated,
		"transaction": model.ToTransactionResponse(tx),
	})
}

// DoRefund handles POST /admin/transactions/:id/refund
func (h *PaymentHandler) DoRefund(c *gin.Context) {
	id, ok := transactionID(c)
	if !ok {
		return
	}

	refund, validated, err := h.paymentService.DoRefund(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Refund processed", gin.H{
		"validated":   validated,
		"transaction": model.ToTransactionResponse(refund),
	})
}

// =====================================================
// HELPERS
// =====================================================

func transactionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid transaction ID")
		return uuid.Nil, false
	}
	return id, true
}

// writeError maps payment, acquirer and token errors to the response envelope
func writeError(c *gin.Context, err error) {
	var (
		statusCode    int
		message, code string
		acqErr        *acquirerModel.AcquirerError
		tokErr        *tokenModel.TokenError
	)

	switch {
	case errors.As(err, new(*model.PaymentError)):
		statusCode, message, code = model.GetErrorResponse(err)
	case errors.As(err, &acqErr):
		statusCode, message, code = acquirerModel.GetErrorResponse(err)
	case errors.As(err, &tokErr):
		statusCode, message, code = tokenModel.GetErrorResponse(err)
	default:
		logger.ErrorWithFields("payment request failed", err, map[string]interface{}{
			"path":       c.FullPath(),
			"request_id": c.GetString("request_id"),
		})
		statusCode, message, code = http.StatusInternalServerError, "Internal server error", "SYS_001"
	}

	response.Error(c, statusCode, code, message)
}
