package main

import (
	"errors"
	"log"
	"net/http"

	"github.com/Ghodjeezreal/paygate/src/models"
	"github.com/Ghodjeezreal/paygate/src/types"
	"github.com/Ghodjeezreal/paygate/src/verification"
	"github.com/gin-gonic/gin"
)

func entryView(entry *models.GoodsEntry) gin.H {
	return gin.H{
		"id":             entry.ID,
		"reference":      entry.Reference,
		"resident_name":  entry.ResidentName,
		"vendor_company": entry.VendorCompany,
		"address":        entry.Address,
		"plate_number":   entry.PlateNumber,
		"vehicle_type":   entry.VehicleType.Name,
		"fee":            entry.VehicleType.Fee,
		"payment_status": entry.PaymentStatus,
		"pass_status":    entry.PassStatus,
		"expires_at":     entry.ExpiresAt,
	}
}

func verifyHandlers(g *gin.RouterGroup, engine *verification.Engine) *gin.RouterGroup {
	g.
		POST("/verify-entry", func(ctx *gin.Context) {
			var body types.VerifyEntryRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				log.Printf("Error validating request: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			agent := body.SecurityAgent
			if agent == "" {
				agent = ctx.GetString("full_name")
			}
			if agent == "" {
				agent = ctx.GetString("username")
			}
			verdict, err := engine.Verify(ctx.Request.Context(), verification.Request{
				Reference:     body.Reference,
				SecurityAgent: agent,
				PreviewOnly:   body.PreviewOnly,
				ForceReject:   body.ForceReject,
				RejectionNote: body.RejectionNote,
			})
			if err != nil {
				switch {
				case errors.Is(err, verification.ErrEntryNotFound):
					ctx.JSON(http.StatusNotFound, gin.H{"allowed": false, "error": "Entry not found"})
				case errors.Is(err, verification.ErrAgentRequired):
					ctx.JSON(http.StatusBadRequest, gin.H{"error": "Security agent name is required"})
				default:
					log.Printf("Error verifying entry [%s]: %s\n", body.Reference, err.Error())
					ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Could not verify entry"})
				}
				return
			}
			if verdict.Preview {
				ctx.JSON(http.StatusOK, gin.H{"preview": true, "entry": entryView(verdict.Entry)})
				return
			}
			if !verdict.Allowed {
				ctx.JSON(http.StatusOK, gin.H{
					"allowed": false,
					"reason":  verdict.Reason,
					"entry":   entryView(verdict.Entry),
				})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{
				"allowed": true,
				"entry":   entryView(verdict.Entry),
			})
		})
	return g
}
