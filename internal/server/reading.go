package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	readingdomain "github.com/gridsmith/meterbill/internal/reading/domain"
	"github.com/shopspring/decimal"
)

type captureReadingRequest struct {
	MeterID     string `json:"meter_id"`
	ReadingDate string `json:"reading_date"`
	Value       string `json:"value"`
	Source      string `json:"source"`
}

func (s *Server) CaptureReading(c *gin.Context) {
	var req captureReadingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	readingDate, err := parseOptionalTime(req.ReadingDate, false)
	if err != nil || readingDate == nil {
		AbortWithError(c, newValidationError("reading_date", "invalid_date", "invalid reading_date"))
		return
	}

	value, err := decimal.NewFromString(strings.TrimSpace(req.Value))
	if err != nil {
		AbortWithError(c, newValidationError("value", "invalid_value", "invalid value"))
		return
	}

	meterID := strings.TrimSpace(req.MeterID)
	release, err := s.captureLimiter.Acquire(c.Request.Context(), meterID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	defer release()

	resp, err := s.readingSvc.Capture(c.Request.Context(), readingdomain.CaptureReadingRequest{
		MeterID:     meterID,
		ReadingDate: *readingDate,
		Value:       value,
		Source:      strings.TrimSpace(req.Source),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func isReadingValidationError(err error) bool {
	switch err {
	case readingdomain.ErrInvalidMeter,
		readingdomain.ErrInvalidDate,
		readingdomain.ErrInvalidValue:
		return true
	default:
		return false
	}
}
