package main

import (
	"io"
	"log"
	"net/http"
	"os"
	"path"
	"regexp"

	"github.com/Ghodjeezreal/paygate/src/boot"
	"github.com/Ghodjeezreal/paygate/src/db"
	"github.com/Ghodjeezreal/paygate/src/middlewares"
	"github.com/Ghodjeezreal/paygate/src/passes"
	"github.com/Ghodjeezreal/paygate/src/types"
	"github.com/Ghodjeezreal/paygate/src/verification"
	"github.com/covalenthq/lumberjack"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	_ "github.com/joho/godotenv/autoload"
)

const (
	apiPrefix string = "/api/v1"
)

var plateNumberRegexp = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9 -]{1,14}$`)

var plateNumberValidatorFunc validator.Func = func(fl validator.FieldLevel) bool {
	plate, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	return plateNumberRegexp.MatchString(plate)
}

func setupRouter() *gin.Engine {
	router := gin.Default()
	router.Use(middlewares.SecureHeaders)
	router.GET("/", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, "ok")
	})
	return router
}

func registerValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("platenumber", plateNumberValidatorFunc)
	}
}

func initLogger() {
	cwd, _ := os.Getwd()
	serverLogs := path.Join(cwd, "logs", "server.log")
	apiLogs := path.Join(cwd, "logs", "api.log")
	gin.ForceConsoleColor()

	f, _ := os.Create(apiLogs)
	gin.DefaultWriter = io.MultiWriter(f, os.Stdout)
	log.SetOutput(&lumberjack.Logger{
		Filename:   serverLogs,
		MaxSize:    500,
		MaxBackups: 3,
		MaxAge:     30,
		Compress:   true,
	})
}

func main() {
	apiEnv := os.Getenv("API_ENV")
	if apiEnv == "local" {
		cwd, _ := os.Getwd()
		if err := godotenv.Load(path.Join(cwd, ".env")); err != nil {
			panic(err)
		}
	}
	initLogger()

	gdb, err := db.Connect()
	if err != nil {
		log.Fatalf("Failed to connect to database: %s", err)
	}
	if err := boot.InitDb(gdb); err != nil {
		log.Fatalf("Failed to run migrations: %s", err)
	}
	if err := boot.SeedReferenceData(gdb); err != nil {
		log.Fatalf("Failed to seed reference data: %s", err)
	}

	ledger := passes.NewLedger(gdb)
	engine := verification.NewEngine(gdb)

	router := setupRouter()

	appHost := os.Getenv("APP_HOST")
	if apiEnv == "local" {
		router.Use(cors.Default())
	} else {
		cc := cors.DefaultConfig()
		cc.AllowMethods = append(cc.AllowMethods, "GET", "POST", "PATCH", "PUT", "DELETE", "HEAD")
		cc.AllowHeaders = append(cc.AllowHeaders, "Origin", "Authorization")
		cc.AllowOriginFunc = func(origin string) bool {
			match, _ := regexp.MatchString(appHost, origin)
			return match
		}
		cc.AllowCredentials = true
		cc.AllowAllOrigins = false
		router.Use(cors.New(cc))
	}

	registerValidators()

	public := router.Group(apiPrefix)
	public.GET("/health", func(ctx *gin.Context) {
		ctx.Header("Cache-Control", "no-store")
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	public = authHandlers(public, gdb)
	public = entryHandlers(public, gdb, ledger)
	public = passHandlers(public, gdb)
	public = paymentHandlers(public, gdb)

	authorized := router.Group(apiPrefix)
	authorized.Use(middlewares.AuthMiddleware(gdb))
	{
		gateGroup := authorized.Group("", middlewares.RequireRole(types.ROLE_SECURITY, types.ROLE_ADMIN))
		verifyHandlers(gateGroup, engine)

		adminGroup := authorized.Group("/admin", middlewares.RequireRole(types.ROLE_ADMIN))
		adminHandlers(adminGroup, gdb)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %s", err)
	}
}
