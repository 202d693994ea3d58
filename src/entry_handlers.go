package main

import (
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/Ghodjeezreal/paygate/src/config"
	"github.com/Ghodjeezreal/paygate/src/lib"
	awslib "github.com/Ghodjeezreal/paygate/src/lib/aws"
	"github.com/Ghodjeezreal/paygate/src/models"
	"github.com/Ghodjeezreal/paygate/src/models/scopes"
	"github.com/Ghodjeezreal/paygate/src/passes"
	"github.com/Ghodjeezreal/paygate/src/types"
	"github.com/Ghodjeezreal/paygate/src/utils"
	"github.com/gin-gonic/gin"
	"github.com/yeqown/go-qrcode"
	"gorm.io/gorm"
)

func entryHandlers(g *gin.RouterGroup, gdb *gorm.DB, ledger *passes.Ledger) *gin.RouterGroup {
	g.
		GET("/vehicle-types", func(ctx *gin.Context) {
			var vehicleTypes []models.VehicleType
			if err := gdb.Order("fee ASC").Find(&vehicleTypes).Error; err != nil {
				log.Printf("Error listing vehicle types: %s\n", err.Error())
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Could not load vehicle types"})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"vehicle_types": vehicleTypes})
		}).
		POST("/goods-entry", func(ctx *gin.Context) {
			var body types.CreateGoodsEntryRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				log.Printf("Error validating request: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var vehicleType models.VehicleType
			if err := gdb.Where(&models.VehicleType{ID: body.VehicleTypeID}).First(&vehicleType).Error; err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid vehicle type"})
				return
			}
			entry := models.GoodsEntry{
				Reference:     utils.GenerateReference(config.ENTRY_REF_PREFIX),
				ResidentName:  body.ResidentName,
				ResidentEmail: body.ResidentEmail,
				VendorCompany: body.VendorCompany,
				Address:       body.Address,
				PlateNumber:   utils.NormalizePlate(body.PlateNumber),
				VehicleTypeID: body.VehicleTypeID,
				ExpiresAt:     time.Now().Add(config.ENTRY_VALID_HOURS * time.Hour),
			}

			if body.UsePass {
				if body.PassReference == "" {
					ctx.JSON(http.StatusBadRequest, gin.H{"error": "Pass reference is required"})
					return
				}
				purchase, err := ledger.ConsumeForEntry(ctx.Request.Context(), body.PassReference, &entry)
				if err != nil {
					log.Printf("Error consuming pass [%s]: %s\n", body.PassReference, err.Error())
					switch {
					case errors.Is(err, passes.ErrPassNotFound):
						ctx.JSON(http.StatusNotFound, gin.H{"error": "Pass not found"})
					case errors.Is(err, passes.ErrPaymentIncomplete):
						ctx.JSON(http.StatusBadRequest, gin.H{"error": "Pass payment has not been completed"})
					case errors.Is(err, passes.ErrEntriesExhausted):
						ctx.JSON(http.StatusBadRequest, gin.H{"error": "No entries remaining on this pass"})
					case errors.Is(err, passes.ErrVehicleTypeMismatch):
						ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
					default:
						ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create entry"})
					}
					return
				}
				ctx.JSON(http.StatusCreated, gin.H{
					"id":                entry.ID,
					"reference":         entry.Reference,
					"used_pass":         true,
					"remaining_entries": purchase.RemainingEntries,
					"message":           "Entry created using pass",
				})
				return
			}

			if err := gdb.Create(&entry).Error; err != nil {
				log.Printf("Error creating entry: %s\n", err.Error())
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create entry"})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{
				"id":           entry.ID,
				"reference":    entry.Reference,
				"fee":          vehicleType.Fee,
				"amount":       vehicleType.Fee * 100,
				"vehicle_type": vehicleType.Name,
			})
		}).
		GET("/my-passes", func(ctx *gin.Context) {
			var params types.MyPassesQueryParams
			if err := ctx.ShouldBindQuery(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if params.Email == "" && params.Phone == "" {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "Provide an email or phone number"})
				return
			}
			q := gdb.
				Model(&models.PassPurchase{}).
				Scopes(scopes.PaidOnly).
				Preload("PassPackage").
				Preload("PassPackage.VehicleType").
				Preload("Entries", func(db *gorm.DB) *gorm.DB {
					return db.Order("created_at DESC")
				}).
				Order("created_at DESC")
			if params.Email != "" {
				q = q.Where("resident_email = ?", params.Email)
			}
			if params.Phone != "" {
				q = q.Where("resident_phone = ?", params.Phone)
			}
			var purchases []models.PassPurchase
			if err := q.Find(&purchases).Error; err != nil {
				log.Printf("Error listing passes: %s\n", err.Error())
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Could not load passes"})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"passes": purchases})
		}).
		GET("/entries/:reference/code", func(ctx *gin.Context) {
			var params types.ReferenceURIParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var entry models.GoodsEntry
			if err := gdb.Where(&models.GoodsEntry{Reference: params.Reference}).First(&entry).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.JSON(http.StatusNotFound, gin.H{"error": "Entry not found"})
					return
				}
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Could not load entry"})
				return
			}
			if entry.PaymentStatus != types.PAYMENT_PAID || entry.QRCode == nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "Payment has not been confirmed for this entry"})
				return
			}

			cacheKey := awslib.EntryCodeKey(entry.ID)
			rd := lib.GetRedisClient()
			if rd != nil {
				cached, err := rd.Get(ctx.Request.Context(), cacheKey).Result()
				if err == nil && cached != "" {
					ctx.JSON(http.StatusOK, gin.H{"url": cached})
					return
				}
			}

			filepath, err := awslib.LocalCodePath(entry.ID)
			if err != nil {
				log.Printf("Could not read working directory: %s\n", err.Error())
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Could not render code"})
				return
			}
			if os.Getenv("S3_ASSETS_BUCKET") != "" {
				if err := awslib.DownloadEntryCode(entry.ID); err != nil {
					log.Printf("Could not fetch code for entry [%d]: %s\n", entry.ID, err.Error())
				}
			}
			if _, err := os.Stat(filepath); err != nil {
				qrc, err := qrcode.New(*entry.QRCode)
				if err != nil {
					log.Printf("Error generating code for entry [%d]: %s\n", entry.ID, err.Error())
					ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Could not render code"})
					return
				}
				if err := qrc.Save(filepath); err != nil {
					log.Printf("Error saving code for entry [%d]: %s\n", entry.ID, err.Error())
					ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Could not render code"})
					return
				}
			}

			if os.Getenv("S3_ASSETS_BUCKET") != "" {
				url, err := awslib.UploadEntryCode(entry.ID, filepath)
				if err != nil {
					log.Printf("Error uploading code for entry [%d]: %s\n", entry.ID, err.Error())
					ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Could not upload code"})
					return
				}
				if rd != nil {
					rd.SetEx(ctx.Request.Context(), cacheKey, *url, 30*time.Minute)
				}
				ctx.JSON(http.StatusOK, gin.H{"url": url})
				return
			}
			ctx.FileAttachment(filepath, "entrypass.jpeg")
		})
	return g
}
