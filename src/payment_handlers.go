package main

import (
	"encoding/hex"
	"errors"
	"log"
	"net/http"
	"os"

	"github.com/Ghodjeezreal/paygate/src/gate"
	"github.com/Ghodjeezreal/paygate/src/lib"
	"github.com/Ghodjeezreal/paygate/src/models"
	"github.com/Ghodjeezreal/paygate/src/types"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func paymentHandlers(g *gin.RouterGroup, gdb *gorm.DB) *gin.RouterGroup {
	g.
		POST("/verify-payment", func(ctx *gin.Context) {
			var body types.VerifyPaymentRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				log.Printf("Error validating request: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			pc := lib.GetPaystackClient()
			paid, err := pc.VerifyTransaction(ctx.Request.Context(), body.Reference)
			if err != nil {
				log.Printf("Error verifying transaction [%s]: %s\n", body.Reference, err.Error())
				ctx.JSON(http.StatusBadGateway, gin.H{"error": "Payment verification failed, please try again"})
				return
			}
			if !paid {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "Payment was not successful"})
				return
			}

			keyEnv := os.Getenv("API_QRC_SECRET")
			key, err := hex.DecodeString(keyEnv)
			if err != nil {
				log.Printf("Could not read data from string: %s\n", err.Error())
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Could not confirm payment"})
				return
			}

			var entry models.GoodsEntry
			err = gdb.Transaction(func(tx *gorm.DB) error {
				res := tx.
					Model(&models.GoodsEntry{}).
					Where("reference = ? AND payment_status = ?", body.Reference, types.PAYMENT_PENDING).
					Update("payment_status", types.PAYMENT_PAID)
				if res.Error != nil {
					return res.Error
				}
				err := tx.
					Where(&models.GoodsEntry{Reference: body.Reference}).
					First(&entry).
					Error
				if err != nil {
					return err
				}
				if err := tx.Where(&models.VehicleType{ID: entry.VehicleTypeID}).First(&entry.VehicleType).Error; err != nil {
					return err
				}
				if entry.QRCode == nil {
					sealed, err := gate.Seal(key, gate.NewSnapshot(&entry))
					if err != nil {
						return err
					}
					if err := tx.
						Model(&models.GoodsEntry{}).
						Where("id = ?", entry.ID).
						Update("qr_code", sealed).
						Error; err != nil {
						return err
					}
					entry.QRCode = &sealed
				}
				return nil
			})
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.JSON(http.StatusNotFound, gin.H{"error": "Entry not found"})
					return
				}
				log.Printf("Error confirming payment for [%s]: %s\n", body.Reference, err.Error())
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Could not confirm payment"})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"success": true, "entry": entry})
		}).
		POST("/verify-pass-payment", func(ctx *gin.Context) {
			var body types.VerifyPassPaymentRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				log.Printf("Error validating request: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			providerRef := body.ProviderReference
			if providerRef == "" {
				providerRef = body.Reference
			}
			pc := lib.GetPaystackClient()
			paid, err := pc.VerifyTransaction(ctx.Request.Context(), providerRef)
			if err != nil {
				log.Printf("Error verifying transaction [%s]: %s\n", providerRef, err.Error())
				ctx.JSON(http.StatusBadGateway, gin.H{"verified": false, "error": "Payment verification failed, please try again"})
				return
			}
			if !paid {
				ctx.JSON(http.StatusBadRequest, gin.H{"verified": false, "error": "Payment was not successful"})
				return
			}

			var purchase models.PassPurchase
			err = gdb.Transaction(func(tx *gorm.DB) error {
				res := tx.
					Model(&models.PassPurchase{}).
					Where("reference = ? AND payment_status = ?", body.Reference, types.PAYMENT_PENDING).
					Update("payment_status", types.PAYMENT_PAID)
				if res.Error != nil {
					return res.Error
				}
				return tx.
					Where(&models.PassPurchase{Reference: body.Reference}).
					Preload("PassPackage").
					First(&purchase).
					Error
			})
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.JSON(http.StatusNotFound, gin.H{"verified": false, "error": "Pass not found"})
					return
				}
				log.Printf("Error confirming pass payment for [%s]: %s\n", body.Reference, err.Error())
				ctx.JSON(http.StatusInternalServerError, gin.H{"verified": false, "error": "Could not confirm payment"})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"verified": true, "pass": purchase})
		})
	return g
}
