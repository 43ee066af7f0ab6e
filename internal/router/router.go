package router

import (
	"novaadm/internal/config"
	"novaadm/internal/handler"
	"novaadm/internal/infra"
	"novaadm/internal/middleware"
	"novaadm/internal/repository"
	"novaadm/internal/service"
	"novaadm/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) (*gin.Engine, error) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	apiLimiter, err := middleware.NewLimiter(rdb, cfg.RateLimit, "api")
	if err != nil {
		return nil, err
	}
	loginLimiter, err := middleware.NewLimiter(rdb, middleware.LoginRate, "login")
	if err != nil {
		return nil, err
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	origen := "*"
	if cfg.IsProduction() {
		origen = cfg.Domain
	}
	r.Use(middleware.CORS(origen))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimit(apiLimiter))

	zona := infra.Ubicacion(cfg.ZonaHoraria)

	// ── Repositories ─────────────────────────────────────────────────────────
	usuarioRepo := repository.NewUsuarioRepository(db)
	tasaRepo := repository.NewTasaRepository(db)
	cajaRepo := repository.NewCajaRepository(db)
	metodoRepo := repository.NewMetodoPagoRepository(db)
	clienteRepo := repository.NewClienteRepository(db)
	proveedorRepo := repository.NewProveedorRepository(db)
	compraRepo := repository.NewCompraRepository(db)
	ventaRepo := repository.NewVentaRepository(db)
	retencionRepo := repository.NewRetencionRepository(db)
	pagoPasarelaRepo := repository.NewPagoPasarelaRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	// Worker dispatcher, injected into services that enqueue async jobs
	dispatcher := worker.NewDispatcher(rdb)

	authSvc := service.NewAuthService(usuarioRepo, cfg)
	tasaSvc := service.NewTasaService(tasaRepo, rdb, service.FuentesTasa(cfg), cfg)
	cajaSvc := service.NewCajaService(cajaRepo, metodoRepo, tasaSvc)
	terceroSvc := service.NewTerceroService(clienteRepo, proveedorRepo, compraRepo, tasaSvc, zona)
	ventaSvc := service.NewVentaService(ventaRepo, clienteRepo, tasaSvc, cfg)
	retencionSvc := service.NewRetencionService(retencionRepo, ventaRepo, dispatcher)
	cobranzaSvc := service.NewCobranzaService(ventaRepo, metodoRepo, cfg.PlazoCobranzaDias)
	reporteSvc := service.NewReporteService(ventaRepo, compraRepo, retencionRepo, zona)
	pasarelaSvc := service.NewPasarelaService(pasarelas(cfg), pagoPasarelaRepo, ventaRepo, metodoRepo, cfg.Domain)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	tasaH := handler.NewTasaHandler(tasaSvc, zona)
	cajaH := handler.NewCajaHandler(cajaSvc)
	tercerosH := handler.NewTercerosHandler(terceroSvc)
	ventasH := handler.NewVentasHandler(ventaSvc)
	retencionesH := handler.NewRetencionesHandler(retencionSvc)
	cobranzasH := handler.NewCobranzasHandler(cobranzaSvc)
	pasarelasH := handler.NewPasarelasHandler(pasarelaSvc)
	reportesH := handler.NewReportesHandler(reporteSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.RateLimit(loginLimiter), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Gateway callbacks, authenticated by body signature
	r.POST("/webhooks/:pasarela", pasarelasH.Webhook)

	todos := middleware.RequireRole(service.RolCajero, service.RolContador, service.RolAdministrador)
	caja := middleware.RequireRole(service.RolCajero, service.RolAdministrador)
	fiscal := middleware.RequireRole(service.RolContador, service.RolAdministrador)
	admin := middleware.RequireRole(service.RolAdministrador)

	// Protected routes
	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret))
	{
		v1.GET("/tasa/actual", todos, tasaH.Actual)
		v1.GET("/tasa/historial", todos, tasaH.Historial)

		cj := v1.Group("/caja", caja)
		{
			cj.POST("/abrir", cajaH.Abrir)
			cj.POST("/movimiento", cajaH.RegistrarMovimiento)
			cj.POST("/cerrar", cajaH.Cerrar)
			cj.GET("/activa", cajaH.GetActiva)
			cj.GET("/historial", cajaH.Historial)
			cj.GET("/:id/reporte", cajaH.ObtenerReporte)
		}

		v1.GET("/metodos-pago", todos, cajaH.ListarMetodosPago)
		v1.POST("/metodos-pago", admin, cajaH.CrearMetodoPago)

		v1.GET("/clientes", todos, tercerosH.ListarClientes)
		v1.POST("/clientes", todos, tercerosH.CrearCliente)
		prov := v1.Group("/proveedores", fiscal)
		{
			prov.GET("", tercerosH.ListarProveedores)
			prov.POST("", tercerosH.CrearProveedor)
			prov.DELETE("/:id", admin, tercerosH.DesactivarProveedor)
		}
		v1.POST("/compras", fiscal, tercerosH.RegistrarCompra)

		v1.POST("/ventas", todos, ventasH.RegistrarVenta)
		v1.GET("/ventas", todos, ventasH.ListarVentas)
		v1.GET("/ventas/:id", todos, ventasH.ObtenerVenta)

		ret := v1.Group("/retenciones", fiscal)
		{
			ret.POST("/:tipo", retencionesH.Crear)
			ret.GET("/:tipo", retencionesH.Listar)
			ret.GET("/:tipo/:id", retencionesH.Obtener)
			ret.DELETE("/:tipo/:id", retencionesH.Anular)
			ret.GET("/:tipo/:id/pdf", retencionesH.DescargarPDF)
		}

		cob := v1.Group("/cobranzas", todos)
		{
			cob.POST("/pagos", cobranzasH.RegistrarPago)
			cob.GET("", cobranzasH.Listar)
			cob.GET("/:venta_id", cobranzasH.Obtener)
		}

		v1.POST("/pasarelas/:pasarela/pagos", todos, pasarelasH.Iniciar)
		v1.GET("/reportes/fiscal", fiscal, reportesH.Fiscal)
	}

	// Swagger UI, only enabled outside production
	if !cfg.IsProduction() {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r, nil
}

// pasarelas builds the gateways that have a URL configured.
func pasarelas(cfg *config.Config) []infra.Pasarela {
	var out []infra.Pasarela
	if cfg.PagoMovilURL != "" {
		out = append(out, infra.NewPasarelaHTTP(infra.PasarelaPagoMovil, cfg.PagoMovilURL, cfg.PagoMovilAPIKey, cfg.PagoMovilSecreto))
	}
	if cfg.TarjetaURL != "" {
		out = append(out, infra.NewPasarelaHTTP(infra.PasarelaTarjeta, cfg.TarjetaURL, cfg.TarjetaAPIKey, cfg.TarjetaSecreto))
	}
	if len(out) == 0 {
		log.Warn().Msg("router: no payment gateway configured")
	}
	return out
}
