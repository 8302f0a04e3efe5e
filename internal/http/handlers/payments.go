package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nkoudou/brocante/internal/config"
	"github.com/nkoudou/brocante/internal/domain/transaction"
	"github.com/nkoudou/brocante/internal/service"
)

type Payments interface {
	Pay(ctx context.Context, req transaction.PayRequest) (transaction.Transaction, error)
}

type PaymentsHandler struct {
	payments Payments
}

func NewPaymentsHandler(payments Payments) *PaymentsHandler {
	return &PaymentsHandler{payments: payments}
}

func (h *PaymentsHandler) Pay(ctx *gin.Context) {
	var req transaction.PayRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(20 * time.Second)

	defer cancel()

	t, err := h.payments.Pay(cctx, req)

	if err != nil {
		if errors.Is(err, service.ErrUpstream) {
			RespondUpstreamFailed(ctx, "Charge was declined")
			return
		}

		RespondInternal(ctx, "Could not record payment")
		return
	}

	ctx.JSON(http.StatusOK, t)
}
