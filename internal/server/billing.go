package server

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	billingdomain "github.com/gridsmith/meterbill/internal/billing/domain"
	"github.com/gridsmith/meterbill/internal/providers/pdf"
	"github.com/gridsmith/meterbill/pkg/db/pagination"
)

type generateBillRequest struct {
	CustomerID   string `json:"customer_id"`
	ConnectionID string `json:"connection_id"`
	PeriodFrom   string `json:"period_from"`
	PeriodTo     string `json:"period_to"`
}

func (s *Server) GenerateBill(c *gin.Context) {
	var req generateBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	periodFrom, err := parseOptionalTime(req.PeriodFrom, false)
	if err != nil || periodFrom == nil {
		AbortWithError(c, newValidationError("period_from", "invalid_input", "invalid period_from"))
		return
	}
	periodTo, err := parseOptionalTime(req.PeriodTo, true)
	if err != nil || periodTo == nil {
		AbortWithError(c, newValidationError("period_to", "invalid_input", "invalid period_to"))
		return
	}

	resp, err := s.billingSvc.Generate(c.Request.Context(), billingdomain.GenerateBillRequest{
		CustomerID:   strings.TrimSpace(req.CustomerID),
		ConnectionID: strings.TrimSpace(req.ConnectionID),
		PeriodFrom:   *periodFrom,
		PeriodTo:     *periodTo,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListBills(c *gin.Context) {
	var query struct {
		pagination.Pagination
		CustomerID string `form:"customer_id"`
		MeterID    string `form:"meter_id"`
		Status     string `form:"status"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	data, pageInfo, err := s.billingSvc.List(c.Request.Context(), billingdomain.ListBillRequest{
		CustomerID: strings.TrimSpace(query.CustomerID),
		MeterID:    strings.TrimSpace(query.MeterID),
		Status:     strings.TrimSpace(query.Status),
		Pagination: query.Pagination,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": data, "page_info": pageInfo})
}

func (s *Server) GetBillByID(c *gin.Context) {
	resp, err := s.billingSvc.Present(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetBillPDF(c *gin.Context) {
	result, err := s.billingSvc.Present(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	charges := make([]pdf.ChargeRow, 0, len(result.Charges))
	for _, line := range result.Charges {
		charges = append(charges, pdf.ChargeRow{
			Description: line.Description,
			Amount:      line.Amount.StringFixed(2),
		})
	}

	doc, err := s.pdfProvider.GenerateBill(c.Request.Context(), pdf.BillData{
		BillNumber:      result.BillID,
		IssueDate:       result.IssueDate,
		DueDate:         result.DueDate,
		BillingPeriod:   result.BillingPeriod,
		Status:          result.Status,
		CustomerName:    result.CustomerName,
		CustomerAddress: result.CustomerAddress,
		CustomerEmail:   result.CustomerEmail,
		Utility:         result.Utility,
		MeterSerial:     result.Meter,
		PreviousReading: result.PreviousReading.StringFixed(2),
		CurrentReading:  result.CurrentReading.StringFixed(2),
		Consumption:     result.Consumption.StringFixed(2),
		Unit:            result.Unit,
		Charges:         charges,
		TotalAmount:     result.TotalAmount,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="bill-`+result.BillID+`.pdf"`)
	c.Header("Content-Type", "application/pdf")
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, doc)
}

func isBillingValidationError(err error) bool {
	switch err {
	case billingdomain.ErrInvalidInput,
		billingdomain.ErrInvalidID:
		return true
	default:
		return false
	}
}
