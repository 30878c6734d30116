package config

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		APIBaseURL:       "http://localhost:8080/api",
		GoogleMapsApiKey: "maps-key",
		ImageHost:        ImageHostImgbb,
		ImgbbApiKey:      "imgbb-key",
		LogLevel:         "info",
	}
}

func TestLoad_ReadsPrefixedEnv(t *testing.T) {
	t.Setenv("GIN_MODE", "release")
	t.Setenv("ECODENUNCIA_PORT", "4000")
	t.Setenv("ECODENUNCIA_IMAGE_HOST", "minio")
	t.Setenv("ECODENUNCIA_REDIRECT_DELAY", "500ms")

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 4000, c.Port)
	assert.Equal(t, ImageHostMinio, c.ImageHost)
	assert.Equal(t, "500ms", c.RedirectDelay.String())
	assert.Equal(t, uint(5), c.UploadRateLimit)
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	c := validConfig()
	c.GoogleMapsApiKey = " "
	c.ImgbbApiKey = ""
	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ECODENUNCIA_GOOGLE_MAPS_API_KEY")
	assert.Contains(t, err.Error(), "ECODENUNCIA_IMGBB_API_KEY")

	c = validConfig()
	c.ImageHost = ImageHostS3
	c.AWSBucket = "fotos"
	c.AWSAccessKeyID = "id"
	c.AWSSecretAccessKey = "secret"
	err = c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ECODENUNCIA_AWS_REGION")

	c = validConfig()
	c.ImageHost = "dropbox"
	assert.Error(t, c.Validate())
}

func TestNewLogger(t *testing.T) {
	c := validConfig()
	c.LogLevel = "warn"
	assert.Equal(t, logrus.WarnLevel, c.NewLogger().Level)

	c.LogLevel = "nonsense"
	assert.Equal(t, logrus.InfoLevel, c.NewLogger().Level)

	c.Debug = true
	assert.Equal(t, logrus.DebugLevel, c.NewLogger().Level)
}

func TestAllowedOrigins(t *testing.T) {
	c := validConfig()
	c.Port = 3000
	assert.Equal(t, []string{"http://localhost:3000", "http://127.0.0.1:3000"}, c.AllowedOrigins())

	c.AccessControlAllowOrigin = "https://app.ecodenuncia.com.br/, http://localhost:5173"
	assert.Equal(t, []string{"https://app.ecodenuncia.com.br", "http://localhost:5173"}, c.AllowedOrigins())
}
