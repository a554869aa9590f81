package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	meterdomain "github.com/gridsmith/meterbill/internal/meter/domain"
	readingdomain "github.com/gridsmith/meterbill/internal/reading/domain"
	"github.com/gridsmith/meterbill/pkg/db/pagination"
)

type createMeterRequest struct {
	Serial      string `json:"serial"`
	Utility     string `json:"utility"`
	InstalledAt string `json:"installed_at"`
}

func (s *Server) CreateMeter(c *gin.Context) {
	var req createMeterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	installedAt, err := parseOptionalTime(req.InstalledAt, false)
	if err != nil {
		AbortWithError(c, newValidationError("installed_at", "invalid_installed_at", "invalid installed_at"))
		return
	}

	resp, err := s.meterSvc.Create(c.Request.Context(), meterdomain.CreateMeterRequest{
		Serial:      strings.TrimSpace(req.Serial),
		Utility:     strings.TrimSpace(req.Utility),
		InstalledAt: installedAt,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListMeters(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Serial  string `form:"serial"`
		Utility string `form:"utility"`
		Status  string `form:"status"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.meterSvc.List(c.Request.Context(), meterdomain.ListMeterRequest{
		PageToken: query.PageToken,
		PageSize:  query.PageSize,
		Serial:    strings.TrimSpace(query.Serial),
		Utility:   strings.TrimSpace(query.Utility),
		Status:    strings.TrimSpace(query.Status),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetMeterByID(c *gin.Context) {
	resp, err := s.meterSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListMeterReadings(c *gin.Context) {
	var query struct {
		From  string `form:"from"`
		To    string `form:"to"`
		Limit int    `form:"limit"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	from, err := parseOptionalTime(query.From, false)
	if err != nil {
		AbortWithError(c, newValidationError("from", "invalid_from", "invalid from"))
		return
	}
	to, err := parseOptionalTime(query.To, true)
	if err != nil {
		AbortWithError(c, newValidationError("to", "invalid_to", "invalid to"))
		return
	}

	resp, err := s.readingSvc.ListByMeter(c.Request.Context(), readingdomain.ListReadingRequest{
		MeterID: strings.TrimSpace(c.Param("id")),
		From:    from,
		To:      to,
		Limit:   query.Limit,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func isMeterValidationError(err error) bool {
	switch err {
	case meterdomain.ErrInvalidSerial,
		meterdomain.ErrInvalidUtility,
		meterdomain.ErrInvalidID:
		return true
	default:
		return false
	}
}
