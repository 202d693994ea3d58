package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/Ghodjeezreal/paygate/src/models"
	"github.com/Ghodjeezreal/paygate/src/models/scopes"
	"github.com/Ghodjeezreal/paygate/src/types"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const adminEntriesLimit = 100

func adminHandlers(g *gin.RouterGroup, gdb *gorm.DB) *gin.RouterGroup {
	g.
		GET("/entries", func(ctx *gin.Context) {
			var params types.AdminEntriesQueryParams
			if err := ctx.ShouldBindQuery(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			q := gdb.
				Model(&models.GoodsEntry{}).
				Preload("VehicleType").
				Preload("VerificationLogs", func(db *gorm.DB) *gorm.DB {
					return db.Order("verified_at DESC")
				})
			if params.Status != "" && params.Status != "all" {
				q = q.Scopes(scopes.WithPaymentStatus(types.PaymentStatus(params.Status)))
			}
			if params.VehicleType > 0 {
				q = q.Where("vehicle_type_id = ?", params.VehicleType)
			}
			if params.DateFrom != "" {
				if from, err := time.Parse(time.DateOnly, params.DateFrom); err == nil {
					q = q.Where("created_at >= ?", from)
				}
			}
			if params.DateTo != "" {
				if to, err := time.Parse(time.DateOnly, params.DateTo); err == nil {
					q = q.Where("created_at < ?", to.AddDate(0, 0, 1))
				}
			}
			if params.Search != "" {
				term := fmt.Sprintf("%%%s%%", params.Search)
				q = q.Where(
					"resident_name ILIKE ? OR vendor_company ILIKE ? OR plate_number ILIKE ? OR reference ILIKE ?",
					term, term, term, term,
				)
			}
			var entries []models.GoodsEntry
			if err := q.Order("created_at DESC").Limit(adminEntriesLimit).Find(&entries).Error; err != nil {
				log.Printf("Error listing entries: %s\n", err.Error())
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Could not load entries"})
				return
			}

			var total, paid, pending, verified int64
			if err := gdb.Model(&models.GoodsEntry{}).Count(&total).Error; err != nil {
				log.Printf("Error counting entries: %s\n", err.Error())
			}
			if err := gdb.Model(&models.GoodsEntry{}).Where("payment_status = ?", types.PAYMENT_PAID).Count(&paid).Error; err != nil {
				log.Printf("Error counting paid entries: %s\n", err.Error())
			}
			if err := gdb.Model(&models.GoodsEntry{}).Where("payment_status = ?", types.PAYMENT_PENDING).Count(&pending).Error; err != nil {
				log.Printf("Error counting pending entries: %s\n", err.Error())
			}
			if err := gdb.Model(&models.GoodsEntry{}).Where("pass_status = ?", types.PASS_USED).Count(&verified).Error; err != nil {
				log.Printf("Error counting verified entries: %s\n", err.Error())
			}

			ctx.JSON(http.StatusOK, gin.H{
				"entries": entries,
				"stats": gin.H{
					"total":    total,
					"paid":     paid,
					"pending":  pending,
					"verified": verified,
				},
			})
		}).
		GET("/entries/:id/logs", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var logs []models.VerificationLog
			err := gdb.
				Where(&models.VerificationLog{GoodsEntryID: params.ID}).
				Order("verified_at DESC").
				Find(&logs).
				Error
			if err != nil {
				log.Printf("Error listing logs for entry [%d]: %s\n", params.ID, err.Error())
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Could not load verification logs"})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"logs": logs})
		})
	return g
}
