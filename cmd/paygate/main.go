package main

import (
	"context"
	"database/sql"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/labstack/echo"
	echo_middleware "github.com/labstack/echo/middleware"
	_ "github.com/lib/pq"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/reform.v1"
	"gopkg.in/reform.v1/dialects/postgresql"

	"github.com/prayerwatchman/paygate/httputils"
	"github.com/prayerwatchman/paygate/provider/paypal"
	"github.com/prayerwatchman/paygate/services/checkout"
	"github.com/prayerwatchman/paygate/services/notifier"
)

var (
	VERSION = "dev"

	onLoggerDev         = flag.Bool("logger-dev", false, "Enable development logger.")
	onLoggerDebugLevelF = flag.Bool("logger-debug-level", false, "Enable debug level logger.")
)

func main() {
	var wg sync.WaitGroup
	defaultLogger("INFO")
	flag.Parse()
	if *onLoggerDev || *onLoggerDebugLevelF {
		defaultLogger("DEBUG")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	zap.L().Info("Starting donation payment service...",
		zap.String("version", VERSION),
	)
	defer func() { zap.L().Info("Done.") }()

	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		<-ch
		cancel()
	}()

	mode := paypal.Mode(os.Getenv("PAYPAL_MODE"))
	clientID := os.Getenv("PAYPAL_CLIENT_ID")
	secret := os.Getenv("PAYPAL_SECRET")
	// Absent credentials are a fatal configuration error, demo mode must be
	// asked for explicitly. Malformed credentials degrade to demo orders at
	// request time.
	if mode != paypal.ModeDemo && (clientID == "" || secret == "") {
		zap.L().Panic("PAYPAL_CLIENT_ID and PAYPAL_SECRET are required (set PAYPAL_MODE=demo to run without them).")
	}

	var db *reform.DB
	if pgConn := os.Getenv("PG_CONN"); pgConn != "" {
		sqlDB := setupPostgres(pgConn, 0, 5, 5)
		db = reform.NewDB(sqlDB, postgresql.Dialect, reform.NewPrintfLogger(zap.L().Sugar().Debugf))
		if _, err := db.Exec("SELECT version();"); err != nil {
			zap.L().Panic("Failed to check version to PostgreSQL.", zap.Error(err))
		}
	} else {
		zap.L().Warn("PG_CONN is not set, orders will not be persisted.")
	}

	var nc *nats.EncodedConn
	if natsURL := os.Getenv("NATS_URL"); natsURL != "" {
		conn, err := nats.Connect(natsURL)
		if err != nil {
			zap.L().Panic("Failed connect to NATS.", zap.Error(err))
		}
		defer conn.Close()
		nc, err = nats.NewEncodedConn(conn, nats.JSON_ENCODER)
		if err != nil {
			zap.L().Panic("Failed create encoded conn to NATS.", zap.Error(err))
		}
		zap.L().Info("NATS - Connected!")
	} else {
		zap.L().Warn("NATS_URL is not set, capture events will not be published.")
	}

	paypalProvider := paypal.NewProvider(
		db,
		paypal.Config{
			ClientID:      clientID,
			Secret:        secret,
			Mode:          mode,
			EntrypointURL: os.Getenv("PAYPAL_ENTRYPOINT_URL"),
		},
		nc,
	)

	if nc != nil {
		sub, err := notifier.NewServer(db, nc).Subscribe()
		if err != nil {
			zap.L().Panic("Failed subscribe to capture events.", zap.Error(err))
		}
		defer sub.Unsubscribe()
	}

	// Debug mux (prometheus metrics)
	portDebug := os.Getenv("DEBUG_PORT")
	if portDebug == "" {
		portDebug = "8082"
	}
	debugSrv := &http.Server{
		Addr:    ":" + portDebug,
		Handler: httputils.RunDebugMux(),
	}
	go func() {
		zap.L().Info("start debug mux", zap.String("address", debugSrv.Addr))
		if err := debugSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zap.L().Error("failed run debug mux", zap.Error(err))
		}
	}()

	// Web server
	portWeb := os.Getenv("PORT")
	if portWeb == "" {
		portWeb = os.Getenv("WEB_PORT")
		if portWeb == "" {
			portWeb = "8081"
		}
	}
	zap.L().Debug("WEB - get port to listen", zap.String("got_port", portWeb))

	e := echo.New()

	e.Use(echo_middleware.CORSWithConfig(echo_middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{
			echo.GET,
			echo.PUT,
			echo.POST,
			echo.DELETE,
			echo.OPTIONS,
			echo.CONNECT,
			echo.HEAD,
			echo.TRACE,
		},
	}))

	e.Use(echo_middleware.Recover())

	e.Use(echo_middleware.Logger())
	e.Use(echo_middleware.BodyLimit("64K"))

	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx, ri := httputils.SetRequestInfo(c.Request().Context(), c.Request(), VERSION)
			c.SetRequest(c.Request().WithContext(ctx))
			c.Response().Header().Set("X-Request-Id", ri.RequestID)
			return next(c)
		}
	})

	checkoutSrv := checkout.NewServer(paypalProvider)
	e.POST("/payments/order", checkoutSrv.CreateOrderHandler())
	e.POST("/payments/order/:orderId/capture", checkoutSrv.CaptureOrderHandler())
	e.GET("/payments/order/:orderId", checkoutSrv.GetOrderHandler())
	e.GET("/payments/client-token", checkoutSrv.ClientTokenHandler())

	wg.Add(1)
	go func() {
		zap.L().Info("start server payments",
			zap.String("address", ":"+portWeb),
			zap.Strings("paths", []string{
				"/payments/order",
				"/payments/order/:orderId/capture",
				"/payments/order/:orderId",
				"/payments/client-token",
			}),
		)
		if err := e.Start(":" + portWeb); err != nil {
			zap.L().Error("failed run server payments", zap.Error(err))
		}
		wg.Done()
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		Ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := debugSrv.Shutdown(Ctx); err != nil {
			zap.L().Error("failed shutdown debug mux", zap.Error(err))
		}
		err := e.Shutdown(Ctx)
		if err != nil {
			zap.L().Error("failed shutdown server payments", zap.Error(err))
		}
		err = e.Close()
		if err != nil {
			zap.L().Error("failed close server payments", zap.Error(err))
		}
		zap.L().Debug("success shutdown server payments")
	}()
	wg.Wait()

}

// Configure configure zap logger.
//
// Available values of level:
// - DEBUG
// - INFO
// - WARN
// - ERROR
// - DPANIC
// - PANIC
// - FATAL
func defaultLogger(levelSet string) {
	level := zapcore.InfoLevel
	if err := level.Set(levelSet); err != nil {
		panic(err)
	}
	config := zap.NewDevelopmentConfig()
	config.Level.SetLevel(level)
	l, err := config.Build(zap.AddStacktrace(zap.ErrorLevel))
	if err != nil {
		panic(err)
	}
	zap.ReplaceGlobals(l)
	zap.RedirectStdLog(l.Named("stdlog"))
}

func setupPostgres(conn string, maxLifetime time.Duration, maxOpen, maxIdle int) *sql.DB {
	sqlDB, err := sql.Open("postgres", conn)
	if err != nil {
		zap.L().Panic("Failed to connect to PostgreSQL.", zap.Error(err))
	}
	sqlDB.SetConnMaxLifetime(maxLifetime)
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	if err = sqlDB.Ping(); err != nil {
		zap.L().Panic("Failed to connect ping PostgreSQL.", zap.Error(err))
	}
	zap.L().Info("Postgres - Connected!")

	return sqlDB
}
