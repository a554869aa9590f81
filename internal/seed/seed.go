// Package seed loads a small demo dataset for local development.
package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	connectiondomain "github.com/gridsmith/meterbill/internal/connection/domain"
	customerdomain "github.com/gridsmith/meterbill/internal/customer/domain"
	meterdomain "github.com/gridsmith/meterbill/internal/meter/domain"
	tariffdomain "github.com/gridsmith/meterbill/internal/tariff/domain"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// EnsureDemoData seeds one tariff per utility, two customers, three meters,
// and the matching active connections. It is a no-op when any customer
// already exists, so an existing database is never touched.
func EnsureDemoData(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&customerdomain.Customer{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		now := time.Now().UTC()
		validFrom := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC)

		elecTariff, err := seedElectricityTariff(tx, node, validFrom)
		if err != nil {
			return err
		}
		waterTariff, err := seedWaterTariff(tx, node, validFrom)
		if err != nil {
			return err
		}
		gasTariff, err := seedGasTariff(tx, node, validFrom)
		if err != nil {
			return err
		}

		household := customerdomain.Customer{
			ID:        node.Generate(),
			Name:      "Ayu Lestari",
			Email:     "ayu.lestari@example.com",
			Phone:     "+62-811-0001",
			Address:   "12 Jalan Melati, Bandung",
			Class:     customerdomain.ClassHousehold,
			Status:    customerdomain.CustomerStatusActive,
			CreatedAt: now,
			UpdatedAt: now,
		}
		business := customerdomain.Customer{
			ID:        node.Generate(),
			Name:      "Kopi Pagi Roastery",
			Email:     "billing@kopipagi.example.com",
			Phone:     "+62-811-0002",
			Address:   "3 Jalan Braga, Bandung",
			Class:     customerdomain.ClassBusiness,
			Status:    customerdomain.CustomerStatusActive,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.Create(&household).Error; err != nil {
			return err
		}
		if err := tx.Create(&business).Error; err != nil {
			return err
		}

		type hookup struct {
			serial   string
			utility  meterdomain.UtilityType
			customer snowflake.ID
			tariff   snowflake.ID
		}
		hookups := []hookup{
			{"ELEC-0001", meterdomain.UtilityElectricity, household.ID, elecTariff},
			{"WATR-0001", meterdomain.UtilityWater, household.ID, waterTariff},
			{"GAS-0001", meterdomain.UtilityGas, business.ID, gasTariff},
		}
		for _, h := range hookups {
			meter := meterdomain.Meter{
				ID:          node.Generate(),
				Serial:      h.serial,
				Utility:     h.utility,
				Status:      meterdomain.MeterStatusActive,
				InstalledAt: validFrom,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if err := tx.Create(&meter).Error; err != nil {
				return err
			}

			conn := connectiondomain.ServiceConnection{
				ID:          node.Generate(),
				CustomerID:  h.customer,
				MeterID:     meter.ID,
				TariffID:    h.tariff,
				Status:      connectiondomain.ConnectionActive,
				ConnectedAt: validFrom,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if err := tx.Create(&conn).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

func seedElectricityTariff(tx *gorm.DB, node *snowflake.Node, validFrom time.Time) (snowflake.ID, error) {
	tariff := tariffdomain.Tariff{
		ID:                 node.Generate(),
		Name:               "Residential Electricity",
		Utility:            meterdomain.UtilityElectricity,
		Class:              customerdomain.ClassHousehold,
		ValidFrom:          validFrom,
		InstallationCharge: decimal.NewFromInt(100),
	}
	if err := tx.Create(&tariff).Error; err != nil {
		return 0, err
	}
	payload := tariffdomain.ElectricityTariff{
		ID:        node.Generate(),
		TariffID:  tariff.ID,
		Slab1Max:  decimal.NewFromInt(100),
		Slab1Rate: decimal.RequireFromString("0.10"),
		Slab2Max:  decimal.NewFromInt(200),
		Slab2Rate: decimal.RequireFromString("0.15"),
		Slab3Rate: decimal.RequireFromString("0.20"),
	}
	if err := tx.Create(&payload).Error; err != nil {
		return 0, err
	}
	return tariff.ID, nil
}

func seedWaterTariff(tx *gorm.DB, node *snowflake.Node, validFrom time.Time) (snowflake.ID, error) {
	tariff := tariffdomain.Tariff{
		ID:                 node.Generate(),
		Name:               "Residential Water",
		Utility:            meterdomain.UtilityWater,
		Class:              customerdomain.ClassHousehold,
		ValidFrom:          validFrom,
		InstallationCharge: decimal.NewFromInt(50),
	}
	if err := tx.Create(&tariff).Error; err != nil {
		return 0, err
	}
	payload := tariffdomain.WaterTariff{
		ID:          node.Generate(),
		TariffID:    tariff.ID,
		FlatRate:    decimal.RequireFromString("1.50"),
		FixedCharge: decimal.NewFromInt(10),
	}
	if err := tx.Create(&payload).Error; err != nil {
		return 0, err
	}
	return tariff.ID, nil
}

func seedGasTariff(tx *gorm.DB, node *snowflake.Node, validFrom time.Time) (snowflake.ID, error) {
	tariff := tariffdomain.Tariff{
		ID:                 node.Generate(),
		Name:               "Commercial Gas",
		Utility:            meterdomain.UtilityGas,
		Class:              customerdomain.ClassBusiness,
		ValidFrom:          validFrom,
		InstallationCharge: decimal.NewFromInt(75),
	}
	if err := tx.Create(&tariff).Error; err != nil {
		return 0, err
	}
	payload := tariffdomain.GasTariff{
		ID:            node.Generate(),
		TariffID:      tariff.ID,
		Slab1Max:      decimal.NewFromInt(50),
		Slab1Rate:     decimal.RequireFromString("0.50"),
		Slab2Rate:     decimal.RequireFromString("0.75"),
		SubsidyAmount: decimal.NewFromInt(20),
	}
	if err := tx.Create(&payload).Error; err != nil {
		return 0, err
	}
	return tariff.ID, nil
}
