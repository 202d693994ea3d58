package main

import (
	"log"
	"net/http"

	"github.com/Ghodjeezreal/paygate/src/middlewares"
	"github.com/Ghodjeezreal/paygate/src/models"
	"github.com/Ghodjeezreal/paygate/src/types"
	"github.com/Ghodjeezreal/paygate/src/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func authHandlers(g *gin.RouterGroup, gdb *gorm.DB) *gin.RouterGroup {
	g.
		POST("/auth/login", func(ctx *gin.Context) {
			var body types.LoginRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				log.Printf("Error validating request: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var user models.User
			if err := gdb.Where(&models.User{Username: body.Username}).First(&user).Error; err != nil {
				ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
				return
			}
			if !utils.CheckPassword(user.Password, body.Password) {
				ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
				return
			}
			token, err := middlewares.GenerateToken(&user)
			if err != nil {
				log.Printf("Error generating token for [%s]: %s\n", user.Username, err.Error())
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Could not complete login"})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{
				"success": true,
				"token":   token,
				"user": gin.H{
					"id":        user.ID,
					"username":  user.Username,
					"role":      user.Role,
					"full_name": user.FullName,
				},
			})
		})
	return g
}
