package boot

import (
	"log"
	"os"

	"github.com/Ghodjeezreal/paygate/src/models"
	"github.com/Ghodjeezreal/paygate/src/types"
	"github.com/Ghodjeezreal/paygate/src/utils"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

func InitDb(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&models.VehicleType{},
		&models.PassPackage{},
		&models.PassPurchase{},
		&models.GoodsEntry{},
		&models.VerificationLog{},
		&models.User{},
	)
}

// SeedReferenceData loads the fee schedule, the sold packages and the staff
// accounts. Idempotent; existing rows are left untouched.
func SeedReferenceData(gdb *gorm.DB) error {
	vehicleTypes := []models.VehicleType{
		{Name: "Motorcycle", Fee: 500},
		{Name: "Car/SUV", Fee: 1000},
		{Name: "Small Van", Fee: 2000},
		{Name: "Medium Truck", Fee: 3500},
		{Name: "Large Truck", Fee: 5000},
		{Name: "Trailer", Fee: 7500},
		{Name: "Container Truck", Fee: 10000},
	}
	for _, vt := range vehicleTypes {
		if err := gdb.Where(&models.VehicleType{Name: vt.Name}).FirstOrCreate(&vt).Error; err != nil {
			return err
		}
	}

	var carSuv models.VehicleType
	if err := gdb.Where(&models.VehicleType{Name: "Car/SUV"}).First(&carSuv).Error; err != nil {
		return err
	}
	packages := []models.PassPackage{
		{Name: "10 Entry Pass - Car/SUV", Entries: 10, Price: 8000, Discount: 20, VehicleTypeID: carSuv.ID},
		{Name: "20 Entry Pass - Car/SUV", Entries: 20, Price: 14000, Discount: 30, VehicleTypeID: carSuv.ID},
	}
	for _, pkg := range packages {
		pkg.Slug = slug.Make(pkg.Name)
		if err := gdb.Where(&models.PassPackage{Slug: pkg.Slug}).FirstOrCreate(&pkg).Error; err != nil {
			return err
		}
	}

	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminPassword == "" {
		adminPassword = "admin123"
	}
	securityPassword := os.Getenv("SECURITY_PASSWORD")
	if securityPassword == "" {
		securityPassword = "security123"
	}
	users := []struct {
		username string
		password string
		fullName string
		role     types.Role
	}{
		{"admin", adminPassword, "Estate Administrator", types.ROLE_ADMIN},
		{"security1", securityPassword, "Security Guard One", types.ROLE_SECURITY},
		{"security2", securityPassword, "Security Guard Two", types.ROLE_SECURITY},
	}
	for _, u := range users {
		hash, err := utils.HashPassword(u.password)
		if err != nil {
			return err
		}
		user := models.User{
			Username: u.username,
			Password: hash,
			FullName: u.fullName,
			Role:     u.role,
		}
		if err := gdb.Where(&models.User{Username: u.username}).FirstOrCreate(&user).Error; err != nil {
			return err
		}
	}
	log.Println("Reference data seeded")
	return nil
}
