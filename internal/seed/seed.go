package seed

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	customerdomain "github.com/smallbiznis/meterbill/internal/customer/domain"
	"gorm.io/gorm"
)

const (
	demoCustomerName  = "Demo Customer"
	demoCustomerEmail = "demo@meterbill.local"
)

// EnsureDemoCustomer seeds a demo customer for development bootstrap so a
// fresh database accepts uploads without a prior create call.
func EnsureDemoCustomer(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var customer customerdomain.Customer
		err := tx.WithContext(ctx).Where("email = ?", demoCustomerEmail).First(&customer).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		customer = customerdomain.Customer{
			ID:    node.Generate(),
			Name:  demoCustomerName,
			Email: demoCustomerEmail,
		}
		return tx.WithContext(ctx).Create(&customer).Error
	})
}
