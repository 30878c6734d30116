package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
)

const (
	ImageHostImgbb = "imgbb"
	ImageHostS3    = "s3"
	ImageHostMinio = "minio"
)

type Config struct {
	Debug                    bool          `envconfig:"debug"`
	Port                     int           `envconfig:"port" default:"3000"`
	Env                      string        `envconfig:"env" default:"development"`
	LogLevel                 string        `envconfig:"log_level" default:"info"`
	APIBaseURL               string        `envconfig:"api_base_url" default:"http://localhost:8080/api"`
	HTTPTimeout              time.Duration `envconfig:"http_timeout"`
	GoogleMapsApiKey         string        `envconfig:"google_maps_api_key"`
	GeocodeURL               string        `envconfig:"geocode_url" default:"https://maps.googleapis.com/maps/api/geocode/json"`
	GeocodeCacheSize         int           `envconfig:"geocode_cache_size" default:"256"`
	ImageHost                string        `envconfig:"image_host" default:"imgbb"`
	ImgbbApiKey              string        `envconfig:"imgbb_api_key"`
	ImgbbUploadURL           string        `envconfig:"imgbb_upload_url" default:"https://api.imgbb.com/1/upload"`
	AWSRegion                string        `envconfig:"aws_region"`
	AWSBucket                string        `envconfig:"aws_bucket"`
	AWSAccessKeyID           string        `envconfig:"aws_access_key_id"`
	AWSSecretAccessKey       string        `envconfig:"aws_secret_access_key"`
	MinioEndpoint            string        `envconfig:"minio_endpoint"`
	MinioUseSSL              bool          `envconfig:"minio_use_ssl"`
	RedirectDelay            time.Duration `envconfig:"redirect_delay" default:"2s"`
	UploadRateLimit          uint          `envconfig:"upload_rate_limit" default:"5"`
	AccessControlAllowOrigin string        `envconfig:"access_control_allow_origin"`
}

func Load() (*Config, error) {
	env := os.Getenv("GIN_MODE")
	if env != "release" {
		if err := godotenv.Load("./.env"); err != nil {
			logrus.Debugf("couldn't load env vars: %v", err)
		}
	}

	c := &Config{}
	err := envconfig.Process("ecodenuncia", c)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Validate fails when a key the configured providers need is missing.
func (c *Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.APIBaseURL) == "" {
		missing = append(missing, "ECODENUNCIA_API_BASE_URL")
	}
	if strings.TrimSpace(c.GoogleMapsApiKey) == "" {
		missing = append(missing, "ECODENUNCIA_GOOGLE_MAPS_API_KEY")
	}

	switch c.ImageHost {
	case ImageHostImgbb:
		if strings.TrimSpace(c.ImgbbApiKey) == "" {
			missing = append(missing, "ECODENUNCIA_IMGBB_API_KEY")
		}
	case ImageHostS3, ImageHostMinio:
		if c.AWSBucket == "" {
			missing = append(missing, "ECODENUNCIA_AWS_BUCKET")
		}
		if c.AWSAccessKeyID == "" {
			missing = append(missing, "ECODENUNCIA_AWS_ACCESS_KEY_ID")
		}
		if c.AWSSecretAccessKey == "" {
			missing = append(missing, "ECODENUNCIA_AWS_SECRET_ACCESS_KEY")
		}
		if c.ImageHost == ImageHostS3 && c.AWSRegion == "" {
			missing = append(missing, "ECODENUNCIA_AWS_REGION")
		}
		if c.ImageHost == ImageHostMinio && c.MinioEndpoint == "" {
			missing = append(missing, "ECODENUNCIA_MINIO_ENDPOINT")
		}
	default:
		return fmt.Errorf("config: unknown image host %q (want %s, %s or %s)", c.ImageHost, ImageHostImgbb, ImageHostS3, ImageHostMinio)
	}

	if len(missing) > 0 {
		return fmt.Errorf("config: missing required settings: %s", strings.Join(missing, ", "))
	}
	return nil
}

// AllowedOrigins lists the browser origins that may use the session: the
// comma-separated ACCESS_CONTROL_ALLOW_ORIGIN, or this server on localhost.
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.AccessControlAllowOrigin, ",") {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) > 0 {
		return origins
	}
	return []string{
		fmt.Sprintf("http://localhost:%d", c.Port),
		fmt.Sprintf("http://127.0.0.1:%d", c.Port),
	}
}

// NewLogger builds the process logger from LogLevel and Env.
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	if c.Debug {
		level = logrus.DebugLevel
	}
	logger.SetLevel(level)
	if c.Env == "production" || os.Getenv("GIN_MODE") == "release" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return logger
}
