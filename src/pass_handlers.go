package main

import (
	"errors"
	"log"
	"net/http"

	"github.com/Ghodjeezreal/paygate/src/config"
	"github.com/Ghodjeezreal/paygate/src/models"
	"github.com/Ghodjeezreal/paygate/src/models/scopes"
	"github.com/Ghodjeezreal/paygate/src/types"
	"github.com/Ghodjeezreal/paygate/src/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func passHandlers(g *gin.RouterGroup, gdb *gorm.DB) *gin.RouterGroup {
	g.
		GET("/pass-packages", func(ctx *gin.Context) {
			var packages []models.PassPackage
			if err := gdb.Preload("VehicleType").Order("price ASC").Find(&packages).Error; err != nil {
				log.Printf("Error listing pass packages: %s\n", err.Error())
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Could not load packages"})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"packages": packages})
		}).
		POST("/pass-packages/purchase", func(ctx *gin.Context) {
			var body types.PurchasePassRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				log.Printf("Error validating request: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var pkg models.PassPackage
			if err := gdb.Where(&models.PassPackage{ID: body.PackageID}).First(&pkg).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.JSON(http.StatusNotFound, gin.H{"error": "Package not found"})
					return
				}
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Could not load package"})
				return
			}
			purchase := models.PassPurchase{
				Reference:        utils.GenerateReference(config.PASS_REF_PREFIX),
				ResidentName:     body.ResidentName,
				ResidentEmail:    body.ResidentEmail,
				ResidentPhone:    body.ResidentPhone,
				PassPackageID:    pkg.ID,
				RemainingEntries: pkg.Entries,
			}
			if err := gdb.Create(&purchase).Error; err != nil {
				log.Printf("Error creating pass purchase: %s\n", err.Error())
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create purchase"})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{
				"success":      true,
				"purchase_id":  purchase.ID,
				"reference":    purchase.Reference,
				"package_name": pkg.Name,
				"amount":       pkg.Price * 100,
			})
		}).
		GET("/pass-packages/check", func(ctx *gin.Context) {
			var params types.PassQueryParams
			if err := ctx.ShouldBindQuery(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var purchase models.PassPurchase
			err := gdb.
				Scopes(scopes.WithReference(params.Reference)).
				Preload("PassPackage").
				Preload("PassPackage.VehicleType").
				First(&purchase).
				Error
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.JSON(http.StatusNotFound, gin.H{"valid": false, "error": "Pass not found"})
					return
				}
				ctx.JSON(http.StatusInternalServerError, gin.H{"valid": false, "error": "Could not check pass"})
				return
			}
			if purchase.PaymentStatus != types.PAYMENT_PAID {
				ctx.JSON(http.StatusBadRequest, gin.H{"valid": false, "error": "Pass payment has not been completed"})
				return
			}
			if purchase.RemainingEntries <= 0 {
				ctx.JSON(http.StatusBadRequest, gin.H{"valid": false, "error": "No entries remaining on this pass"})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"valid": true, "pass": purchase})
		}).
		GET("/pass-packages/details", func(ctx *gin.Context) {
			var params types.PassQueryParams
			if err := ctx.ShouldBindQuery(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var purchase models.PassPurchase
			err := gdb.
				Scopes(scopes.WithReference(params.Reference)).
				Preload("PassPackage").
				Preload("PassPackage.VehicleType").
				Preload("Entries", func(db *gorm.DB) *gorm.DB {
					return db.Order("created_at DESC")
				}).
				First(&purchase).
				Error
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.JSON(http.StatusNotFound, gin.H{"error": "Pass not found"})
					return
				}
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Could not load pass"})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"pass": purchase})
		})
	return g
}
