package config

import (
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Config agrupa la configuración del motor de inventario (lectura vía Viper
// desde env y opcionalmente archivo). Los componentes reciben la sección que
// necesitan en su constructor; no hay estado global mutable.
type Config struct {
	App        AppConfig
	Engine     EngineConfig
	Validation ValidationConfig
	Excel      ExcelConfig
	Backup     BackupConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env      string // development, staging, production
	Name     string
	LogLevel string
}

// ProductSeed definición estática de una variante de producto (peso, bolsa, FNSKU).
// El catálogo se siembra con estas variantes al arrancar.
type ProductSeed struct {
	WeightKg  float64
	PouchSize string
	FNSKU     string
}

// EngineConfig umbrales y constantes de negocio del motor de stock.
type EngineConfig struct {
	ProductName            string  // nombre base de la línea de producto
	Category               string
	BasePricePerKg         float64 // precio base por kg para sembrar el catálogo
	Seeds                  []ProductSeed
	SalesChannels          []string
	MinStockThreshold      int // stock mínimo por defecto
	CriticalStockThreshold int // por debajo de esto el estado es CRITICAL
	MaxStockLimit          int // tope absoluto de stock por producto
	DefaultStock           int // stock inicial al sembrar el inventario
	DefaultReorderLevel    int
	LeadTimeDays           int // lead time asumido para safety stock
}

// ValidationConfig cotas para el validador de datos de entrada.
type ValidationConfig struct {
	MaxQuantity   float64 // cantidad máxima por transacción
	MaxPrice      float64 // precio unitario máximo
	MaxWeightKg   float64 // kg máximos de materia prima por compra
	MaxStock      float64 // tope de stock aceptado en filas importadas
	MaxFileSizeMB int
}

// ExcelConfig ubicación del workbook y nombres de hojas.
type ExcelConfig struct {
	FilePath        string
	StockSheet      string
	SalesLogSheet   string
	PurchaseSheet   string
	ProductionSheet string
	ReturnSheet     string
	AdjustmentSheet string
}

// BackupConfig política de respaldos del workbook.
type BackupConfig struct {
	Dir        string
	Prefix     string
	MaxBackups int
}

// Weights devuelve los pesos de las variantes configuradas, en el orden de siembra.
func (c EngineConfig) Weights() []float64 {
	ws := make([]float64, 0, len(c.Seeds))
	for _, s := range c.Seeds {
		ws = append(ws, s.WeightKg)
	}
	return ws
}

// defaultSeeds variantes de la línea de chana tostado que maneja el negocio.
func defaultSeeds() []ProductSeed {
	return []ProductSeed{
		{WeightKg: 0.2, PouchSize: "6*9", FNSKU: "X00289LA0X"},
		{WeightKg: 0.5, PouchSize: "7*10", FNSKU: "X00289J14Z"},
		{WeightKg: 1.0, PouchSize: "9*12", FNSKU: "X00289HWX7"},
		{WeightKg: 1.5, PouchSize: "11*16", FNSKU: "X00289LA0N"},
		{WeightKg: 2.0, PouchSize: "11*16", FNSKU: "X00289L9ZT"},
	}
}

func defaultChannels() []string {
	return []string{
		"Amazon FBA",
		"Amazon Easyship",
		"Flipkart",
		"Direct Sales",
		"Retail",
		"Wholesale",
		"Others",
	}
}

// Default devuelve la configuración por defecto sin tocar el entorno.
// Los tests construyen sus variantes a partir de aquí.
func Default() *Config {
	return &Config{
		App: AppConfig{
			Env:      "development",
			Name:     "inventory-engine",
			LogLevel: "info",
		},
		Engine: EngineConfig{
			ProductName:            "Roasted Chana",
			Category:               "Roasted Chana",
			BasePricePerKg:         100,
			Seeds:                  defaultSeeds(),
			SalesChannels:          defaultChannels(),
			MinStockThreshold:      10,
			CriticalStockThreshold: 5,
			MaxStockLimit:          10000,
			DefaultStock:           100,
			DefaultReorderLevel:    50,
			LeadTimeDays:           7,
		},
		Validation: ValidationConfig{
			MaxQuantity:   10000,
			MaxPrice:      10000,
			MaxWeightKg:   1000,
			MaxStock:      10000,
			MaxFileSizeMB: 10,
		},
		Excel: ExcelConfig{
			FilePath:        "data/stock_report.xlsx",
			StockSheet:      "stock sheet",
			SalesLogSheet:   "Sales_Log",
			PurchaseSheet:   "Purchase_Log",
			ProductionSheet: "Production_Log",
			ReturnSheet:     "Return_Log",
			AdjustmentSheet: "Adjustment_Log",
		},
		Backup: BackupConfig{
			Dir:        "data/backups",
			Prefix:     "backup_",
			MaxBackups: 10,
		},
	}
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde
// archivo .env / config.env). Las env vars tienen prioridad sobre los defaults.
func Load() (*Config, error) {
	v := viper.New()

	// Opcional: archivo de configuración (.env o config.env)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := Default()

	cfg.App.Env = getString(v, "APP_ENV", cfg.App.Env)
	cfg.App.Name = getString(v, "APP_NAME", cfg.App.Name)
	cfg.App.LogLevel = getString(v, "LOG_LEVEL", cfg.App.LogLevel)

	cfg.Engine.MinStockThreshold = getInt(v, "MIN_STOCK_THRESHOLD", cfg.Engine.MinStockThreshold)
	cfg.Engine.CriticalStockThreshold = getInt(v, "CRITICAL_STOCK_THRESHOLD", cfg.Engine.CriticalStockThreshold)
	cfg.Engine.MaxStockLimit = getInt(v, "MAX_STOCK_LIMIT", cfg.Engine.MaxStockLimit)
	cfg.Engine.DefaultStock = getInt(v, "DEFAULT_STOCK", cfg.Engine.DefaultStock)
	cfg.Engine.DefaultReorderLevel = getInt(v, "DEFAULT_REORDER_LEVEL", cfg.Engine.DefaultReorderLevel)
	cfg.Engine.LeadTimeDays = getInt(v, "LEAD_TIME_DAYS", cfg.Engine.LeadTimeDays)

	cfg.Excel.FilePath = getString(v, "EXCEL_FILE_PATH", cfg.Excel.FilePath)
	cfg.Excel.StockSheet = getString(v, "EXCEL_STOCK_SHEET", cfg.Excel.StockSheet)

	cfg.Backup.Dir = getString(v, "BACKUP_DIR", cfg.Backup.Dir)
	cfg.Backup.MaxBackups = getInt(v, "BACKUP_MAX_FILES", cfg.Backup.MaxBackups)

	return cfg, nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, _ := strconv.Atoi(v.GetString(key))
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}
