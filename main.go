package main

import (
	"context"
	"log"
	"net/http"

	"github.com/techagentng/ecodenuncia/client"
	"github.com/techagentng/ecodenuncia/config"
	"github.com/techagentng/ecodenuncia/db"
	"github.com/techagentng/ecodenuncia/models"
	"github.com/techagentng/ecodenuncia/server"
	"github.com/techagentng/ecodenuncia/services"
	"github.com/techagentng/ecodenuncia/session"
)

func main() {
	conf, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if err := conf.Validate(); err != nil {
		log.Fatal(err)
	}
	logger := conf.NewLogger()

	sess := session.New()
	navigation := server.NewNavigationHub(logger, conf.AllowedOrigins())
	redirector := services.NewRedirector(navigation, conf.RedirectDelay)

	backend := client.New(conf.APIBaseURL, sess, navigation, logger,
		client.WithHTTPClient(&http.Client{Timeout: conf.HTTPTimeout}))

	imageStore, err := db.NewImageStore(context.Background(), conf)
	if err != nil {
		logger.Fatalf("image host: %v", err)
	}

	geocoder, err := services.NewGeocodingService(conf.GoogleMapsApiKey, conf.GeocodeURL, conf.GeocodeCacheSize, conf.HTTPTimeout, logger)
	if err != nil {
		logger.Fatalf("geocoder: %v", err)
	}

	authService := services.NewAuthService(backend, sess, redirector, logger)
	denunciaService := services.NewDenunciaService(backend, sess, logger)
	mediaService := services.NewMediaService(imageStore, logger)
	uploader := services.NewUploader(mediaService, logger)
	submission := services.NewSubmissionWorkflow(denunciaService, uploader, redirector, logger)

	historico := services.NewListingEngine(denunciaService.ListMine, logger)
	painel := services.NewListingEngine(func(ctx context.Context, filter models.Filter, page, size int) (*services.DenunciaPage, error) {
		return denunciaService.ListAll(ctx, page, size, filter.Status, filter.Localizacao)
	}, logger)

	s := &server.Server{
		Config:          conf,
		Logger:          logger,
		Session:         sess,
		Navigation:      navigation,
		AuthService:     authService,
		DenunciaService: denunciaService,
		Geocoder:        geocoder,
		Locations:       services.NewLocationSelector(geocoder),
		Submission:      submission,
		Historico:       historico,
		Painel:          painel,
	}
	s.Start()
}
