package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/dkolesnikov/expensio/internal/common"
	"github.com/dkolesnikov/expensio/internal/server/models"
	"github.com/gin-gonic/gin"
)

type expenseRequest struct {
	Amount      float64 `json:"amount" binding:"required,gt=0"`
	Description string  `json:"description" binding:"max=255"`
	Category    string  `json:"category" binding:"required,max=64"`
}

type expenseResponse struct {
	ID          string    `json:"id"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	HasReceipt  bool      `json:"has_receipt"`
	CreatedAt   time.Time `json:"created_at"`
}

func toExpenseResponse(e *models.Expense) expenseResponse {
	return expenseResponse{
		ID:          e.ID,
		Amount:      e.Amount,
		Description: e.Description,
		Category:    e.Category,
		HasReceipt:  e.ReceiptKey != "",
		CreatedAt:   e.CreatedAt,
	}
}

func toExpenseResponses(list []*models.Expense) []expenseResponse {
	out := make([]expenseResponse, 0, len(list))
	for _, e := range list {
		out = append(out, toExpenseResponse(e))
	}
	return out
}

// expenseError maps service errors to responses shared by the expense
// handlers.
func (s *Server) expenseError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrorUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "access denied"})
	case errors.Is(err, common.ErrorNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "expense not found"})
	default:
		s.logger.Error(c.Request.Context(), "expense operation failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (s *Server) handleAddExpense(c *gin.Context) {
	var req expenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	e, err := s.expenses.Add(c.Request.Context(), req.Amount, req.Description, req.Category)
	if err != nil {
		s.expenseError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toExpenseResponse(e))
}

// handleListExpenses serves the full list by default; ?category= narrows to
// one category, ?from=&to= (RFC 3339) to a time range, ?period=week to the
// past seven days.
func (s *Server) handleListExpenses(c *gin.Context) {
	ctx := c.Request.Context()

	var (
		list []*models.Expense
		err  error
	)

	switch {
	case c.Query("period") == "week":
		list, err = s.expenses.ListLastWeek(ctx)
	case c.Query("from") != "" || c.Query("to") != "":
		var from, to time.Time
		from, to, err = parseRange(c.Query("from"), c.Query("to"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		list, err = s.expenses.ListInRange(ctx, from, to)
	case c.Query("category") != "":
		list, err = s.expenses.ListByCategory(ctx, c.Query("category"))
	default:
		list, err = s.expenses.List(ctx)
	}

	if err != nil {
		s.expenseError(c, err)
		return
	}
	c.JSON(http.StatusOK, toExpenseResponses(list))
}

func parseRange(fromStr, toStr string) (time.Time, time.Time, error) {
	from, err := time.Parse(time.RFC3339, fromStr)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("invalid 'from' timestamp, expected RFC 3339")
	}
	to, err := time.Parse(time.RFC3339, toStr)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("invalid 'to' timestamp, expected RFC 3339")
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, errors.New("'to' precedes 'from'")
	}
	return from, to, nil
}

func (s *Server) handleGetExpense(c *gin.Context) {
	e, err := s.expenses.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.expenseError(c, err)
		return
	}
	c.JSON(http.StatusOK, toExpenseResponse(e))
}

func (s *Server) handleTotal(c *gin.Context) {
	ctx := c.Request.Context()

	var (
		total float64
		err   error
	)
	if category := c.Query("category"); category != "" {
		total, err = s.expenses.TotalByCategory(ctx, category)
	} else {
		total, err = s.expenses.Total(ctx)
	}

	if err != nil {
		s.expenseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": total})
}

func (s *Server) handleUpdateExpense(c *gin.Context) {
	var req expenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	e, err := s.expenses.Update(c.Request.Context(), c.Param("id"), req.Amount, req.Description, req.Category)
	if err != nil {
		s.expenseError(c, err)
		return
	}
	c.JSON(http.StatusOK, toExpenseResponse(e))
}

func (s *Server) handleDeleteExpense(c *gin.Context) {
	if err := s.expenses.Delete(c.Request.Context(), c.Param("id")); err != nil {
		s.expenseError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleAttachReceipt(c *gin.Context) {
	upload, err := s.expenses.AttachReceipt(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.expenseError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"key": upload.Key, "upload_url": upload.URL})
}

func (s *Server) handleReceiptURL(c *gin.Context) {
	url, err := s.expenses.ReceiptURL(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.expenseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}
