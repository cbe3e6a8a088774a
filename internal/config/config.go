package config

import (
	"log"
	"time"

	"github.com/spf13/viper"

	"github.com/grillwerk/printgate/pkg/fetch"
	"github.com/grillwerk/printgate/pkg/printer"
	"github.com/grillwerk/printgate/pkg/raster"
)

type Config struct {
	App       AppConfig
	Printer   PrinterConfig
	Logo      LogoConfig
	Raster    RasterConfig
	Barcode   BarcodeConfig
	Fetch     FetchConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	Store     StoreConfig
}

type AppConfig struct {
	Name  string
	Env   string
	Port  string
	Debug bool
}

type PrinterConfig struct {
	Type        string // "network", "usb" or "none"
	Address     string // host:port, conventionally port 9100
	USBPath     string
	DialTimeout time.Duration
	DrainDelay  time.Duration
	Width       int // line width in characters
}

type LogoConfig struct {
	Enabled bool
	URL     string
}

type RasterConfig struct {
	Threshold   int
	MaxWidth    int
	Brightness  float64
	Gamma       float64
	Dither      bool
	BlackBoost  float64
	AutoCrop    bool
	CropPadding int
}

type BarcodeConfig struct {
	Height      int
	ModuleWidth int
}

type FetchConfig struct {
	Timeout      time.Duration
	MaxRedirects int
	InsecureTLS  bool
}

type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

type RateLimitConfig struct {
	Requests int
	Duration int
}

type StoreConfig struct {
	Name        string
	HeaderLines []string
}

func Load() *Config {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables: %v", err)
	}

	// Set defaults
	viper.SetDefault("APP_NAME", "printgate")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("APP_DEBUG", true)
	viper.SetDefault("PRINTER_TYPE", "network")
	viper.SetDefault("PRINTER_ADDRESS", "192.168.1.50:9100")
	viper.SetDefault("PRINTER_USB_PATH", "")
	viper.SetDefault("PRINTER_DIAL_TIMEOUT_MS", 5000)
	viper.SetDefault("PRINTER_DRAIN_DELAY_MS", 120)
	viper.SetDefault("PRINTER_WIDTH", 42)
	viper.SetDefault("LOGO_ENABLED", true)
	viper.SetDefault("LOGO_URL", "")
	viper.SetDefault("RASTER_THRESHOLD", 110)
	viper.SetDefault("RASTER_MAX_WIDTH", 320)
	viper.SetDefault("RASTER_BRIGHTNESS", 1.0)
	viper.SetDefault("RASTER_GAMMA", 1.0)
	viper.SetDefault("RASTER_DITHER", true)
	viper.SetDefault("RASTER_BLACK_BOOST", 0.0)
	viper.SetDefault("RASTER_AUTO_CROP", true)
	viper.SetDefault("RASTER_CROP_PADDING", 8)
	viper.SetDefault("BARCODE_HEIGHT", 80)
	viper.SetDefault("BARCODE_MODULE_WIDTH", 2)
	viper.SetDefault("FETCH_TIMEOUT_MS", 10000)
	viper.SetDefault("FETCH_MAX_REDIRECTS", 5)
	viper.SetDefault("FETCH_INSECURE_TLS", false)
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	viper.SetDefault("CORS_ALLOWED_METHODS", []string{})
	viper.SetDefault("CORS_ALLOWED_HEADERS", []string{})
	viper.SetDefault("RATE_LIMIT_REQUESTS", 30)
	viper.SetDefault("RATE_LIMIT_DURATION", 60)
	viper.SetDefault("STORE_NAME", "GRILLWERK")
	viper.SetDefault("STORE_HEADER_LINES", []string{})

	return &Config{
		App: AppConfig{
			Name:  viper.GetString("APP_NAME"),
			Env:   viper.GetString("APP_ENV"),
			Port:  viper.GetString("APP_PORT"),
			Debug: viper.GetBool("APP_DEBUG"),
		},
		Printer: PrinterConfig{
			Type:        viper.GetString("PRINTER_TYPE"),
			Address:     viper.GetString("PRINTER_ADDRESS"),
			USBPath:     viper.GetString("PRINTER_USB_PATH"),
			DialTimeout: time.Duration(viper.GetInt("PRINTER_DIAL_TIMEOUT_MS")) * time.Millisecond,
			DrainDelay:  time.Duration(viper.GetInt("PRINTER_DRAIN_DELAY_MS")) * time.Millisecond,
			Width:       viper.GetInt("PRINTER_WIDTH"),
		},
		Logo: LogoConfig{
			Enabled: viper.GetBool("LOGO_ENABLED"),
			URL:     viper.GetString("LOGO_URL"),
		},
		Raster: RasterConfig{
			Threshold:   viper.GetInt("RASTER_THRESHOLD"),
			MaxWidth:    viper.GetInt("RASTER_MAX_WIDTH"),
			Brightness:  viper.GetFloat64("RASTER_BRIGHTNESS"),
			Gamma:       viper.GetFloat64("RASTER_GAMMA"),
			Dither:      viper.GetBool("RASTER_DITHER"),
			BlackBoost:  viper.GetFloat64("RASTER_BLACK_BOOST"),
			AutoCrop:    viper.GetBool("RASTER_AUTO_CROP"),
			CropPadding: viper.GetInt("RASTER_CROP_PADDING"),
		},
		Barcode: BarcodeConfig{
			Height:      viper.GetInt("BARCODE_HEIGHT"),
			ModuleWidth: viper.GetInt("BARCODE_MODULE_WIDTH"),
		},
		Fetch: FetchConfig{
			Timeout:      time.Duration(viper.GetInt("FETCH_TIMEOUT_MS")) * time.Millisecond,
			MaxRedirects: viper.GetInt("FETCH_MAX_REDIRECTS"),
			InsecureTLS:  viper.GetBool("FETCH_INSECURE_TLS"),
		},
		CORS: CORSConfig{
			AllowedOrigins: viper.GetStringSlice("CORS_ALLOWED_ORIGINS"),
			AllowedMethods: viper.GetStringSlice("CORS_ALLOWED_METHODS"),
			AllowedHeaders: viper.GetStringSlice("CORS_ALLOWED_HEADERS"),
		},
		RateLimit: RateLimitConfig{
			Requests: viper.GetInt("RATE_LIMIT_REQUESTS"),
			Duration: viper.GetInt("RATE_LIMIT_DURATION"),
		},
		Store: StoreConfig{
			Name:        viper.GetString("STORE_NAME"),
			HeaderLines: viper.GetStringSlice("STORE_HEADER_LINES"),
		},
	}
}

// Transport maps the section onto the transport package config.
func (c *PrinterConfig) Transport() printer.Config {
	return printer.Config{
		Type:        c.Type,
		Address:     c.Address,
		USBPath:     c.USBPath,
		DialTimeout: c.DialTimeout,
		DrainDelay:  c.DrainDelay,
	}
}

// Options maps the section onto the image pipeline options.
func (c *RasterConfig) Options() raster.Options {
	return raster.Options{
		MaxWidth:    c.MaxWidth,
		Threshold:   c.Threshold,
		Brightness:  c.Brightness,
		Gamma:       c.Gamma,
		Dither:      c.Dither,
		BlackBoost:  c.BlackBoost,
		AutoCrop:    c.AutoCrop,
		CropPadding: c.CropPadding,
	}
}

// Client maps the section onto the fetch package config.
func (c *FetchConfig) Client() fetch.Config {
	return fetch.Config{
		Timeout:      c.Timeout,
		MaxRedirects: c.MaxRedirects,
		InsecureTLS:  c.InsecureTLS,
	}
}
