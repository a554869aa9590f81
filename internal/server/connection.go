package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	connectiondomain "github.com/gridsmith/meterbill/internal/connection/domain"
	"github.com/gridsmith/meterbill/pkg/db/pagination"
)

type createConnectionRequest struct {
	CustomerID string `json:"customer_id"`
	MeterID    string `json:"meter_id"`
	TariffID   string `json:"tariff_id"`
}

func (s *Server) CreateConnection(c *gin.Context) {
	var req createConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.connectionSvc.Create(c.Request.Context(), connectiondomain.CreateConnectionRequest{
		CustomerID: strings.TrimSpace(req.CustomerID),
		MeterID:    strings.TrimSpace(req.MeterID),
		TariffID:   strings.TrimSpace(req.TariffID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListConnections(c *gin.Context) {
	var query struct {
		pagination.Pagination
		CustomerID string `form:"customer_id"`
		Status     string `form:"status"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	data, pageInfo, err := s.connectionSvc.List(c.Request.Context(), connectiondomain.ListConnectionRequest{
		CustomerID: strings.TrimSpace(query.CustomerID),
		Status:     strings.TrimSpace(query.Status),
		Pagination: query.Pagination,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": data, "page_info": pageInfo})
}

func (s *Server) GetConnectionByID(c *gin.Context) {
	resp, err := s.connectionSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DisconnectConnection(c *gin.Context) {
	resp, err := s.connectionSvc.Disconnect(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func isConnectionValidationError(err error) bool {
	switch err {
	case connectiondomain.ErrInvalidID,
		connectiondomain.ErrUtilityMismatch,
		connectiondomain.ErrClassMismatch:
		return true
	default:
		return false
	}
}
