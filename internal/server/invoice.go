package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	invoicedomain "github.com/smallbiznis/meterbill/internal/invoice/domain"
)

// CreateInvoice computes and persists an invoice over `start`..`end`
// (YYYY-MM-DD, end optional) and responds with the rendered PDF.
func (s *Server) CreateInvoice(c *gin.Context) {
	start, err := parseDate(c.Query("start"))
	if err != nil || start.IsZero() {
		AbortWithError(c, invoicedomain.ErrInvalidPeriod)
		return
	}

	end, err := parseDate(c.Query("end"))
	if err != nil {
		AbortWithError(c, invoicedomain.ErrInvalidPeriod)
		return
	}

	resp, err := s.invoiceSvc.CreateInvoice(c.Request.Context(), invoicedomain.CreateInvoiceRequest{
		CustomerID: strings.TrimSpace(c.Param("id")),
		Start:      start,
		End:        end,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=invoice-%s.pdf", resp.Invoice.ID.String()))
	c.Data(http.StatusOK, "application/pdf", resp.Document)
}

func (s *Server) ListInvoices(c *gin.Context) {
	resp, err := s.invoiceSvc.ListByCustomer(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", value)
}
