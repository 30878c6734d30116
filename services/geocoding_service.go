package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"
	"github.com/techagentng/ecodenuncia/models"
)

const (
	msgMapaIndisponivel      = "O serviço de mapas ainda não está disponível"
	msgEnderecoNaoEncontrado = "Endereço não encontrado"
	msgErroGeocoding         = "Erro ao consultar o serviço de mapas"

	initAttempts = 3
)

type GeocoderState int

const (
	GeocoderUninitialized GeocoderState = iota
	GeocoderInitializing
	GeocoderReady
	GeocoderFailed
)

func (s GeocoderState) String() string {
	switch s {
	case GeocoderUninitialized:
		return "uninitialized"
	case GeocoderInitializing:
		return "initializing"
	case GeocoderReady:
		return "ready"
	case GeocoderFailed:
		return "failed"
	default:
		return fmt.Sprintf("GeocoderState(%d)", int(s))
	}
}

// GeocodingService converts between free-text addresses and coordinates.
// Lookups made before Init has succeeded return GeocodeNotReady.
type GeocodingService interface {
	Init(ctx context.Context) error
	State() GeocoderState
	ResolveAddress(ctx context.Context, text string) models.GeocodeResult
	ResolveCoordinates(ctx context.Context, lat, lng float64) models.GeocodeResult
}

type GeocodingResponse struct {
	Results []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
}

type geocodingService struct {
	apiKey    string
	endpoint  string
	http      *http.Client
	cache     *lru.Cache[string, models.GeocodeResult]
	logger    *logrus.Logger
	initDelay time.Duration

	mu      sync.Mutex
	state   GeocoderState
	done    chan struct{}
	initErr error
}

// NewGeocodingService instantiates a GeocodingService. Nothing is contacted until Init.
func NewGeocodingService(apiKey, endpoint string, cacheSize int, timeout time.Duration, logger *logrus.Logger) (GeocodingService, error) {
	if cacheSize <= 0 {
		cacheSize = 256
	}
	cache, err := lru.New[string, models.GeocodeResult](cacheSize)
	if err != nil {
		return nil, err
	}
	return &geocodingService{
		apiKey:    apiKey,
		endpoint:  endpoint,
		http:      &http.Client{Timeout: timeout},
		cache:     cache,
		logger:    logger,
		initDelay: 500 * time.Millisecond,
	}, nil
}

func (g *geocodingService) State() GeocoderState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Init pings the provider once. Concurrent callers wait for the same attempt;
// a failed attempt may be retried by a later call.
func (g *geocodingService) Init(ctx context.Context) error {
	g.mu.Lock()
	switch g.state {
	case GeocoderReady:
		g.mu.Unlock()
		return nil
	case GeocoderInitializing:
		done := g.done
		g.mu.Unlock()
		select {
		case <-done:
			g.mu.Lock()
			defer g.mu.Unlock()
			return g.initErr
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	g.state = GeocoderInitializing
	g.done = make(chan struct{})
	g.mu.Unlock()

	err := retry.Do(
		func() error {
			return g.ping(ctx)
		},
		retry.Context(ctx),
		retry.Attempts(initAttempts),
		retry.Delay(g.initDelay),
		retry.MaxDelay(5*time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			g.logger.WithError(err).Warnf("geocoder ping: retry %d", n+1)
		}),
	)

	g.mu.Lock()
	defer g.mu.Unlock()
	if err != nil {
		g.state = GeocoderFailed
		g.initErr = err
		g.logger.WithError(err).Error("geocoder unavailable")
	} else {
		g.state = GeocoderReady
		g.initErr = nil
		g.logger.Info("geocoder ready")
	}
	close(g.done)
	return err
}

// ping checks that the provider answers and accepts the key.
func (g *geocodingService) ping(ctx context.Context) error {
	resp, err := g.fetch(ctx, url.Values{"latlng": {"0,0"}})
	if err != nil {
		return err
	}
	switch resp.Status {
	case "OK", "ZERO_RESULTS", "INVALID_REQUEST":
		return nil
	case "REQUEST_DENIED":
		return retry.Unrecoverable(fmt.Errorf("geocoding request denied: %s", resp.ErrorMessage))
	default:
		return fmt.Errorf("geocoding provider status %s", resp.Status)
	}
}

func (g *geocodingService) ready() bool {
	return g.State() == GeocoderReady
}

func (g *geocodingService) ResolveAddress(ctx context.Context, text string) models.GeocodeResult {
	if !g.ready() {
		return models.GeocodeResult{Status: models.GeocodeNotReady, Message: msgMapaIndisponivel}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return models.GeocodeResult{Status: models.GeocodeNotFound, Message: msgEnderecoNaoEncontrado}
	}
	return g.lookup(ctx, "address:"+strings.ToLower(text), url.Values{"address": {text}})
}

func (g *geocodingService) ResolveCoordinates(ctx context.Context, lat, lng float64) models.GeocodeResult {
	if !g.ready() {
		return models.GeocodeResult{Status: models.GeocodeNotReady, Message: msgMapaIndisponivel}
	}
	latlng := fmt.Sprintf("%f,%f", lat, lng)
	result := g.lookup(ctx, "latlng:"+latlng, url.Values{"latlng": {latlng}})
	if result.Found() {
		// the clicked point stays authoritative, only the address comes from the provider
		result.Latitude, result.Longitude = lat, lng
	}
	return result
}

func (g *geocodingService) lookup(ctx context.Context, key string, query url.Values) models.GeocodeResult {
	if cached, ok := g.cache.Get(key); ok {
		return cached
	}

	resp, err := g.fetch(ctx, query)
	if err != nil {
		g.logger.WithError(err).WithField("query", key).Warn("geocoding failed")
		return models.GeocodeResult{Status: models.GeocodeProviderError, Message: msgErroGeocoding}
	}

	switch {
	case resp.Status == "OK" && len(resp.Results) > 0:
		first := resp.Results[0]
		result := models.GeocodeResult{
			Status:           models.GeocodeFound,
			Latitude:         first.Geometry.Location.Lat,
			Longitude:        first.Geometry.Location.Lng,
			FormattedAddress: first.FormattedAddress,
		}
		g.cache.Add(key, result)
		return result
	case resp.Status == "OK" || resp.Status == "ZERO_RESULTS":
		return models.GeocodeResult{Status: models.GeocodeNotFound, Message: msgEnderecoNaoEncontrado}
	default:
		g.logger.WithFields(logrus.Fields{
			"query":  key,
			"status": resp.Status,
			"detail": resp.ErrorMessage,
		}).Warn("geocoding provider error")
		return models.GeocodeResult{Status: models.GeocodeProviderError, Message: msgErroGeocoding}
	}
}

func (g *geocodingService) fetch(ctx context.Context, query url.Values) (*GeocodingResponse, error) {
	query.Set("key", g.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := g.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error fetching geocoding data: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %v", resp.StatusCode)
	}

	var geocodingResponse GeocodingResponse
	if err := json.NewDecoder(resp.Body).Decode(&geocodingResponse); err != nil {
		return nil, fmt.Errorf("error decoding JSON response: %v", err)
	}
	return &geocodingResponse, nil
}

// LocationSelector is the map widget: a map click and an address search both end
// in one selected location.
type LocationSelector struct {
	geocoder GeocodingService

	mu       sync.Mutex
	selected models.Location
}

func NewLocationSelector(geocoder GeocodingService) *LocationSelector {
	return &LocationSelector{geocoder: geocoder, selected: models.DefaultLocation}
}

// SelectCoordinates moves the marker at once and fills in the address when the
// reverse lookup finds one.
func (s *LocationSelector) SelectCoordinates(ctx context.Context, lat, lng float64) (models.Location, models.GeocodeResult) {
	s.mu.Lock()
	s.selected.Lat, s.selected.Lng = lat, lng
	s.mu.Unlock()

	result := s.geocoder.ResolveCoordinates(ctx, lat, lng)

	s.mu.Lock()
	defer s.mu.Unlock()
	if result.Found() && s.selected.Lat == lat && s.selected.Lng == lng {
		s.selected.Address = result.FormattedAddress
	}
	return s.selected, result
}

// SearchAddress moves the selection only when the address resolves. Blank text does nothing.
func (s *LocationSelector) SearchAddress(ctx context.Context, text string) (models.Location, models.GeocodeResult, bool) {
	if strings.TrimSpace(text) == "" {
		return s.Selected(), models.GeocodeResult{}, false
	}
	result := s.geocoder.ResolveAddress(ctx, text)

	s.mu.Lock()
	defer s.mu.Unlock()
	if result.Found() {
		s.selected = result.Location()
	}
	return s.selected, result, true
}

func (s *LocationSelector) Selected() models.Location {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}
