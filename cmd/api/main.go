package main

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/dcawallet/dca-wallet/internal/database"
	"github.com/dcawallet/dca-wallet/internal/dca"
	"github.com/dcawallet/dca-wallet/internal/middleware"
	"github.com/dcawallet/dca-wallet/internal/repository"
	routes "github.com/dcawallet/dca-wallet/internal/server"
	"github.com/dcawallet/dca-wallet/internal/services"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Cargar variables de entorno
	if err := godotenv.Load(); err != nil {
		log.Printf("No se pudo cargar el archivo .env: %v", err)
	}

	// Crear el router de Gin
	router := gin.Default()

	// Configurar CORS
	config := cors.DefaultConfig()
	config.AllowOrigins = []string{"http://localhost:3000"}
	config.AllowMethods = []string{"GET", "POST", "PUT", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	config.AllowCredentials = true
	router.Use(cors.New(config))

	// Inicializar base de datos
	if err := database.InitDB(); err != nil {
		log.Fatalf("Error al inicializar la base de datos: %v", err)
	}
	defer database.DB.Close()

	// Repositorios
	walletRepo := repository.NewWalletRepository(database.DB)
	txRepo := repository.NewTransactionRepository(database.DB)
	priceRepo := repository.NewPriceRepository(database.DB)

	// Motor DCA y servicio de billeteras
	engine := dca.NewEngine()
	walletService := services.NewWalletService(txRepo, walletRepo, priceRepo, engine)

	// Monitor de precios: el feed se consulta afuera del motor; el motor
	// solo consume snapshots ya obtenidos
	feed := services.NewCoinGeckoFeed()
	monitor := services.NewPriceMonitor(pollInterval(), feed, walletRepo, walletService, priceRepo)
	walletService.SetMonitor(monitor)
	monitor.Start()
	defer monitor.Stop()

	// Scheduler de evaluación DCA
	scheduler := services.NewDcaScheduler(os.Getenv("DCA_CRON"), walletService)
	if err := scheduler.Start(); err != nil {
		log.Fatalf("Error al iniciar el scheduler DCA: %v", err)
	}
	defer scheduler.Stop()

	// Configurar las rutas
	middleware.InitHandlers(walletRepo, txRepo, walletService, monitor)
	routes.RegisterRoutes(router)

	// Iniciar el servidor
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Error al iniciar el servidor: %v", err)
	}
}

// pollInterval lee el intervalo de consulta del feed en segundos
// (PRICE_POLL_INTERVAL, por defecto 60)
func pollInterval() time.Duration {
	if raw := os.Getenv("PRICE_POLL_INTERVAL"); raw != "" {
		if seconds, err := strconv.Atoi(raw); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
		log.Printf("PRICE_POLL_INTERVAL inválido, se usa el valor por defecto")
	}
	return 60 * time.Second
}
