// Package v1 assembles the HTTP API: routes, middleware and handler wiring.
package v1

import (
	"context"

	"github.com/gin-gonic/gin"

	"corseg/internal/core/company"
	"corseg/internal/core/entity"
	"corseg/internal/core/numerator"
	"corseg/internal/domain"
	"corseg/internal/domain/auth"
	"corseg/internal/domain/catalogs"
	"corseg/internal/domain/comision"
	"corseg/internal/domain/configuration"
	"corseg/internal/domain/liquidacion"
	"corseg/internal/domain/movimiento"
	"corseg/internal/domain/pago"
	"corseg/internal/domain/poliza"
	"corseg/internal/domain/reclamo"
	"corseg/internal/infrastructure/http/v1/handlers"
	"corseg/internal/infrastructure/http/v1/middleware"
	"corseg/internal/infrastructure/storage/postgres"
	"corseg/internal/infrastructure/storage/postgres/catalog_repo"
	"corseg/internal/infrastructure/storage/postgres/company_repo"
	"corseg/internal/infrastructure/storage/postgres/document_repo"
	"corseg/pkg/logger"
)

// RouterConfig holds the shared infrastructure the API builds on.
type RouterConfig struct {
	Logger        *logger.Logger
	Pool          *postgres.Pool
	TxManager     *postgres.TxManager
	JWTService    *auth.JWTService
	AuthService   *auth.Service
	ConfigService *configuration.Service
	Companies     *company_repo.CompanyRepo
	Numbers       numerator.Generator
	Attachments   *postgres.AttachmentStore

	// Mode is the gin mode (debug, release, test).
	Mode string
}

// NewRouter creates the API engine with all routes mounted.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}

	router := gin.New()

	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints stay outside auth.
	health := handlers.NewHealthHandler(cfg.Pool)
	health.RegisterRoutes(router.Group("/health"))

	api := router.Group("/api/v1")

	base := handlers.NewBaseHandler()

	registerAuthRoutes(api, base, cfg)
	registerBusinessRoutes(api, base, cfg)

	return router
}

func registerAuthRoutes(api *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	authHandler := handlers.NewAuthHandler(base, cfg.AuthService)

	// Login and registration hit the database before any user context
	// exists, so they carry the db middleware only.
	public := api.Group("/auth")
	public.Use(middleware.DBContext(cfg.Pool.Unwrap(), cfg.TxManager))

	protected := api.Group("/auth")
	protected.Use(middleware.DBContext(cfg.Pool.Unwrap(), cfg.TxManager))
	protected.Use(middleware.Auth(cfg.JWTService))

	authHandler.RegisterRoutes(public, protected)
}

func registerBusinessRoutes(api *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	// Every business route runs authenticated and scoped to one company.
	rg := api.Group("")
	rg.Use(middleware.Auth(cfg.JWTService))
	rg.Use(middleware.CompanyContext(cfg.Pool.Unwrap(), cfg.TxManager, cfg.Companies))

	companies := handlers.NewCompanyHandler(base, cfg.Companies)
	companies.RegisterRoutes(rg.Group("/companies"))

	configHandler := handlers.NewConfigurationHandler(base, cfg.ConfigService)
	configHandler.RegisterRoutes(rg.Group("/configuration", writeRole()))

	registerCatalogRoutes(rg, base)
	registerDocumentRoutes(rg, base, cfg)
}

// catalogRoutes builds the service and handler for one catalog entity and
// mounts its CRUD.
func catalogRoutes[T handlers.CatalogEntity](
	rg *gin.RouterGroup,
	base *handlers.BaseHandler,
	path, name string,
	repo domain.CatalogRepository[T],
	newEntity func() T,
) {
	service := domain.NewCatalogService(domain.CatalogServiceConfig[T]{
		Repo:       repo,
		EntityName: name,
	})
	handler := handlers.NewCatalogHandler(base, handlers.CatalogHandlerConfig[T]{
		Service:    service,
		EntityName: name,
		NewEntity:  newEntity,
	})
	RegisterCatalogRoutes(rg, path, handler)
}

func registerCatalogRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler) {
	catalogRoutes(rg, base, "/cias", "cia",
		catalog_repo.NewCiaRepo(),
		func() *catalogs.Cia { return &catalogs.Cia{Catalog: entity.NewCatalog("", "")} })

	catalogRoutes(rg, base, "/vendedores", "vendedor",
		catalog_repo.NewVendedorRepo(),
		func() *catalogs.Vendedor { return &catalogs.Vendedor{Catalog: entity.NewCatalog("", "")} })

	catalogRoutes(rg, base, "/ramos", "ramo",
		catalog_repo.NewRamoRepo(),
		func() *catalogs.Ramo { return &catalogs.Ramo{Catalog: entity.NewCatalog("", "")} })

	catalogRoutes(rg, base, "/grupos", "grupo",
		catalog_repo.NewGrupoRepo(),
		func() *catalogs.Grupo { return &catalogs.Grupo{Catalog: entity.NewCatalog("", "")} })

	catalogRoutes(rg, base, "/productos", "producto",
		catalog_repo.NewProductoRepo(),
		func() *catalogs.Producto { return &catalogs.Producto{Catalog: entity.NewCatalog("", "")} })

	catalogRoutes(rg, base, "/formas-pago", "forma_pago",
		catalog_repo.NewFormaPagoRepo(),
		func() *catalogs.FormaPago { return &catalogs.FormaPago{Catalog: entity.NewCatalog("", "")} })

	catalogRoutes(rg, base, "/frecuencias-pago", "frecuencia_pago",
		catalog_repo.NewFrecuenciaPagoRepo(),
		func() *catalogs.FrecuenciaPago { return &catalogs.FrecuenciaPago{Catalog: entity.NewCatalog("", "")} })

	catalogRoutes(rg, base, "/vehiculo-marcas", "vehiculo_marca",
		catalog_repo.NewVehiculoMarcaRepo(),
		func() *catalogs.VehiculoMarca { return &catalogs.VehiculoMarca{Catalog: entity.NewCatalog("", "")} })

	catalogRoutes(rg, base, "/vehiculo-modelos", "vehiculo_modelo",
		catalog_repo.NewVehiculoModeloRepo(),
		func() *catalogs.VehiculoModelo { return &catalogs.VehiculoModelo{Catalog: entity.NewCatalog("", "")} })

	catalogRoutes(rg, base, "/vehiculo-tipos", "vehiculo_tipo",
		catalog_repo.NewVehiculoTipoRepo(),
		func() *catalogs.VehiculoTipo { return &catalogs.VehiculoTipo{Catalog: entity.NewCatalog("", "")} })

	catalogRoutes(rg, base, "/tipos-comision", "tipo_comision",
		catalog_repo.NewTipoComisionRepo(),
		func() *comision.TipoComision { return &comision.TipoComision{Catalog: entity.NewCatalog("", "")} })

	catalogRoutes(rg, base, "/comisiones", "comision",
		catalog_repo.NewComisionRepo(),
		func() *comision.Comision { return &comision.Comision{Catalog: entity.NewCatalog("", "")} })
}

func registerDocumentRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	read := readRoles()
	write := writeRole()

	polizaRepo := document_repo.NewPolizaRepo()
	movimientoRepo := document_repo.NewMovimientoRepo()
	pagoRepo := document_repo.NewPagoRepo()
	liquidacionRepo := document_repo.NewLiquidacionRepo()
	ajusteRepo := document_repo.NewAjusteRepo()
	reclamoRepo := document_repo.NewReclamoRepo()
	productoRepo := catalog_repo.NewProductoRepo()

	polizaService := poliza.NewService(polizaRepo)
	movimientoService := movimiento.NewService(movimiento.ServiceConfig{
		Repo:      movimientoRepo,
		Polizas:   polizaRepo,
		Pagos:     pagoRepo,
		Numbers:   cfg.Numbers,
		NumberCfg: cfg.ConfigService.NumeratorFunc(configuration.KeyNumeradorMovimiento),
	})
	pagoService := pago.NewService(pago.ServiceConfig{
		Repo:      pagoRepo,
		Polizas:   polizaRepo,
		Productos: productoRepo,
		Ajustes:   ajusteRepo,
		Numbers:   cfg.Numbers,
		NumberCfg: cfg.ConfigService.NumeratorFunc(configuration.KeyNumeradorPago),
	})
	liquidacionService := liquidacion.NewService(liquidacion.ServiceConfig{
		Repo:           liquidacionRepo,
		Ajustes:        ajusteRepo,
		Pagos:          pagoRepo,
		Numbers:        cfg.Numbers,
		LiqCiaCfg:      cfg.ConfigService.NumeratorFunc(configuration.KeyNumeradorLiqCia),
		LiqVendedorCfg: cfg.ConfigService.NumeratorFunc(configuration.KeyNumeradorLiqVendedor),
		AjusteCfg:      cfg.ConfigService.NumeratorFunc(configuration.KeyNumeradorAjuste),
	})
	reclamoService := reclamo.NewService(reclamo.ServiceConfig{
		Repo:      reclamoRepo,
		Polizas:   polizaRepo,
		Store:     cfg.Attachments,
		Numbers:   cfg.Numbers,
		NumberCfg: cfg.ConfigService.NumeratorFunc(configuration.KeyNumeradorReclamo),
	})

	// Policies.
	polizaHandler := handlers.NewDocumentHandler(base, handlers.DocumentHandlerConfig[*poliza.Poliza]{
		Service:    polizaService,
		EntityName: "poliza",
		NewEntity: func(ctx context.Context) *poliza.Poliza {
			p := poliza.New(company.MustGet(ctx).ID)
			return &p
		},
		BeforeSave: func(ctx context.Context, p *poliza.Poliza) {
			p.CompanyID = company.MustGet(ctx).ID
		},
	})
	polizaHandler.RegisterCRUD(rg.Group("/polizas"), read, write)

	// Movements.
	movimientoHandler := handlers.NewDocumentHandler(base, handlers.DocumentHandlerConfig[*movimiento.Movimiento]{
		Service:    movimientoService,
		EntityName: "movimiento",
		NewEntity: func(ctx context.Context) *movimiento.Movimiento {
			return &movimiento.Movimiento{Document: entity.NewDocument(company.MustGet(ctx).ID)}
		},
		BeforeSave: func(ctx context.Context, m *movimiento.Movimiento) {
			m.CompanyID = company.MustGet(ctx).ID
		},
	})
	movimientos := rg.Group("/movimientos")
	movimientoHandler.RegisterCRUD(movimientos, read, write)
	movimientos.POST("/:id/procesar", write, movimientoHandler.Action(movimientoService.Procesar))
	movimientos.POST("/:id/confirmar", write, movimientoHandler.Action(movimientoService.Confirmar))
	movimientos.POST("/:id/cancelar", write, movimientoHandler.Action(movimientoService.Cancelar))
	movimientos.POST("/:id/reabrir", write, movimientoHandler.Action(movimientoService.Reabrir))

	// Payments.
	pagoDocHandler := handlers.NewDocumentHandler(base, handlers.DocumentHandlerConfig[*pago.Pago]{
		Service:    pagoService,
		EntityName: "pago",
		NewEntity: func(ctx context.Context) *pago.Pago {
			return &pago.Pago{Document: entity.NewDocument(company.MustGet(ctx).ID)}
		},
		BeforeSave: func(ctx context.Context, pg *pago.Pago) {
			pg.CompanyID = company.MustGet(ctx).ID
		},
	})
	pagoHandler := handlers.NewPagoHandler(base, pagoService, pagoDocHandler)
	pagoHandler.RegisterRoutes(rg.Group("/pagos"), read, write)

	// Settlements and adjustments.
	liquidacionHandler := handlers.NewLiquidacionHandler(base, liquidacionService, ajusteRepo, ajusteRepo)
	liquidacionHandler.RegisterRoutes(rg.Group("/liquidaciones"), rg.Group("/ajustes"), read, write)

	// Claims.
	reclamoDocHandler := handlers.NewDocumentHandler(base, handlers.DocumentHandlerConfig[*reclamo.Reclamo]{
		Service:    reclamoService,
		EntityName: "reclamo",
		NewEntity: func(ctx context.Context) *reclamo.Reclamo {
			return &reclamo.Reclamo{Document: entity.NewDocument(company.MustGet(ctx).ID)}
		},
		BeforeSave: func(ctx context.Context, r *reclamo.Reclamo) {
			r.CompanyID = company.MustGet(ctx).ID
		},
	})
	reclamoHandler := handlers.NewReclamoHandler(base, reclamoService, reclamoDocHandler)
	reclamoHandler.RegisterRoutes(rg.Group("/reclamos"), read, write)
}
