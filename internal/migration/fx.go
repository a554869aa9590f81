package migration

import (
	billingdomain "github.com/gridsmith/meterbill/internal/billing/domain"
	"github.com/gridsmith/meterbill/internal/config"
	connectiondomain "github.com/gridsmith/meterbill/internal/connection/domain"
	customerdomain "github.com/gridsmith/meterbill/internal/customer/domain"
	meterdomain "github.com/gridsmith/meterbill/internal/meter/domain"
	paymentdomain "github.com/gridsmith/meterbill/internal/payment/domain"
	readingdomain "github.com/gridsmith/meterbill/internal/reading/domain"
	"github.com/gridsmith/meterbill/internal/seed"
	tariffdomain "github.com/gridsmith/meterbill/internal/tariff/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		// Versioned SQL migrations run against Postgres. The sqlite and
		// mysql paths are for local development and use schema sync.
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
			return seedIfRequested(conn, cfg)
		}

		if err := conn.AutoMigrate(
			&customerdomain.Customer{},
			&meterdomain.Meter{},
			&readingdomain.MeterReading{},
			&tariffdomain.Tariff{},
			&tariffdomain.ElectricityTariff{},
			&tariffdomain.WaterTariff{},
			&tariffdomain.GasTariff{},
			&connectiondomain.ServiceConnection{},
			&billingdomain.Bill{},
			&billingdomain.BillLineItem{},
			&paymentdomain.Payment{},
		); err != nil {
			return err
		}
		return seedIfRequested(conn, cfg)
	}),
)

func seedIfRequested(conn *gorm.DB, cfg config.Config) error {
	if !cfg.SeedDemoData {
		return nil
	}
	return seed.EnsureDemoData(conn)
}
