package main

import (
	"strings"

	_ "catalog/docs"
	"catalog/internal/caching"
	"catalog/internal/config"
	"catalog/internal/handlers"
	"catalog/internal/middleware"
	"catalog/internal/services"
	"catalog/internal/storage"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
)

type routerDeps struct {
	cfg            *config.Config
	log            zerolog.Logger
	db             handlers.Pinger
	cache          caching.CacheService
	blobStore      storage.BlobStore
	productService services.ProductService
	guard          echo.MiddlewareFunc
}

func newRouter(d routerDeps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// HTML forms tunnel PUT/PATCH/DELETE through POST with a _method field.
	e.Pre(echoMiddleware.MethodOverrideWithConfig(echoMiddleware.MethodOverrideConfig{
		Getter: echoMiddleware.MethodFromForm("_method"),
	}))
	e.Pre(echoMiddleware.RemoveTrailingSlash())

	e.Use(echoMiddleware.RequestID())
	e.Use(middleware.RequestLogger(d.log))
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.BodyLimit("10M"))

	healthHandlers := handlers.NewHealthHandlers(d.db, d.cache, d.blobStore, version)
	e.GET("/health", healthHandlers.LivenessCheck)
	e.GET("/health/ready", healthHandlers.ReadinessCheck)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	if d.cfg.StorageDriver == config.StorageLocal {
		e.Static(strings.TrimRight(d.cfg.StoragePublicPath, "/"), d.cfg.StorageRoot)
	}

	versionMiddleware := middleware.NewVersionMiddleware()
	api := e.Group("", versionMiddleware.VersionHeader(versionMiddleware.CurrentVersion()))

	var guard []echo.MiddlewareFunc
	if d.guard != nil {
		guard = append(guard, d.guard)
	}
	handlers.NewProductHandlers(d.productService, d.log).Register(api, guard...)

	return e
}
