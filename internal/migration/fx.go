package migration

import (
	"github.com/smallbiznis/meterbill/internal/config"
	customerdomain "github.com/smallbiznis/meterbill/internal/customer/domain"
	invoicedomain "github.com/smallbiznis/meterbill/internal/invoice/domain"
	meterdomain "github.com/smallbiznis/meterbill/internal/meter/domain"
	readingdomain "github.com/smallbiznis/meterbill/internal/reading/domain"
	"github.com/smallbiznis/meterbill/internal/seed"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if err := conn.AutoMigrate(
			&customerdomain.Customer{},
			&meterdomain.Meter{},
			&readingdomain.Reading{},
			&invoicedomain.Invoice{},
		); err != nil {
			return err
		}

		if cfg.Environment == "development" {
			return seed.EnsureDemoCustomer(conn)
		}
		return nil
	}),
)
