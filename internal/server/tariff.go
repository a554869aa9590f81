package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	tariffdomain "github.com/gridsmith/meterbill/internal/tariff/domain"
	"github.com/shopspring/decimal"
)

type electricitySlabsRequest struct {
	Slab1Max  decimal.Decimal `json:"slab1_max"`
	Slab1Rate decimal.Decimal `json:"slab1_rate"`
	Slab2Max  decimal.Decimal `json:"slab2_max"`
	Slab2Rate decimal.Decimal `json:"slab2_rate"`
	Slab3Rate decimal.Decimal `json:"slab3_rate"`
}

type waterRatesRequest struct {
	FlatRate    decimal.Decimal `json:"flat_rate"`
	FixedCharge decimal.Decimal `json:"fixed_charge"`
}

type gasSlabsRequest struct {
	Slab1Max      decimal.Decimal `json:"slab1_max"`
	Slab1Rate     decimal.Decimal `json:"slab1_rate"`
	Slab2Rate     decimal.Decimal `json:"slab2_rate"`
	SubsidyAmount decimal.Decimal `json:"subsidy_amount"`
}

type createTariffRequest struct {
	Name               string                   `json:"name"`
	Utility            string                   `json:"utility"`
	Class              string                   `json:"class"`
	ValidFrom          string                   `json:"valid_from"`
	ValidTo            string                   `json:"valid_to"`
	InstallationCharge decimal.Decimal          `json:"installation_charge"`
	Electricity        *electricitySlabsRequest `json:"electricity"`
	Water              *waterRatesRequest       `json:"water"`
	Gas                *gasSlabsRequest         `json:"gas"`
}

func (s *Server) CreateTariff(c *gin.Context) {
	var req createTariffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	validFrom, err := parseOptionalTime(req.ValidFrom, false)
	if err != nil || validFrom == nil {
		AbortWithError(c, newValidationError("valid_from", "invalid_validity", "invalid valid_from"))
		return
	}
	validTo, err := parseOptionalTime(req.ValidTo, true)
	if err != nil {
		AbortWithError(c, newValidationError("valid_to", "invalid_validity", "invalid valid_to"))
		return
	}

	domainReq := tariffdomain.CreateTariffRequest{
		Name:               strings.TrimSpace(req.Name),
		Utility:            strings.TrimSpace(req.Utility),
		Class:              strings.TrimSpace(req.Class),
		ValidFrom:          *validFrom,
		ValidTo:            validTo,
		InstallationCharge: req.InstallationCharge,
	}
	if req.Electricity != nil {
		domainReq.Electricity = &tariffdomain.ElectricitySlabs{
			Slab1Max:  req.Electricity.Slab1Max,
			Slab1Rate: req.Electricity.Slab1Rate,
			Slab2Max:  req.Electricity.Slab2Max,
			Slab2Rate: req.Electricity.Slab2Rate,
			Slab3Rate: req.Electricity.Slab3Rate,
		}
	}
	if req.Water != nil {
		domainReq.Water = &tariffdomain.WaterRates{
			FlatRate:    req.Water.FlatRate,
			FixedCharge: req.Water.FixedCharge,
		}
	}
	if req.Gas != nil {
		domainReq.Gas = &tariffdomain.GasSlabs{
			Slab1Max:      req.Gas.Slab1Max,
			Slab1Rate:     req.Gas.Slab1Rate,
			Slab2Rate:     req.Gas.Slab2Rate,
			SubsidyAmount: req.Gas.SubsidyAmount,
		}
	}

	resp, err := s.tariffSvc.Create(c.Request.Context(), domainReq)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListTariffs(c *gin.Context) {
	var query struct {
		Utility  string `form:"utility"`
		Class    string `form:"class"`
		ActiveAt string `form:"active_at"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	activeAt, err := parseOptionalTime(query.ActiveAt, false)
	if err != nil {
		AbortWithError(c, newValidationError("active_at", "invalid_active_at", "invalid active_at"))
		return
	}

	resp, err := s.tariffSvc.List(c.Request.Context(), tariffdomain.ListTariffRequest{
		Utility:  strings.TrimSpace(query.Utility),
		Class:    strings.TrimSpace(query.Class),
		ActiveAt: activeAt,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetTariffByID(c *gin.Context) {
	resp, err := s.tariffSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func isTariffValidationError(err error) bool {
	switch err {
	case tariffdomain.ErrInvalidName,
		tariffdomain.ErrInvalidUtility,
		tariffdomain.ErrInvalidClass,
		tariffdomain.ErrInvalidValidity,
		tariffdomain.ErrInvalidPayload,
		tariffdomain.ErrInvalidSlabOrder,
		tariffdomain.ErrInvalidRate,
		tariffdomain.ErrInvalidID:
		return true
	default:
		return false
	}
}
