package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/inhahackathon/foodmarket/config"
)

const (
	defaultKakaoURL     = "https://dapi.kakao.com"
	defaultKakaoTimeout = 5 * time.Second
	coord2AddressPath   = "/v2/local/geo/coord2address.json"
)

// KakaoClient calls the Kakao Local coord2address API.
type KakaoClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewKakaoClient(cfg config.GeocoderConfig) *KakaoClient {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultKakaoURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultKakaoTimeout
	}
	return &KakaoClient{
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
	}
}

type coord2AddressResponse struct {
	Documents []struct {
		Address *struct {
			AddressName string `json:"address_name"`
		} `json:"address"`
		RoadAddress *struct {
			AddressName string `json:"address_name"`
		} `json:"road_address"`
	} `json:"documents"`
}

// Address returns the lot-number address for the coordinates, falling back to
// the road address.
func (c *KakaoClient) Address(ctx context.Context, latitude, longitude float64) (string, error) {
	query := url.Values{}
	query.Set("x", strconv.FormatFloat(longitude, 'f', -1, 64))
	query.Set("y", strconv.FormatFloat(latitude, 'f', -1, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+coord2AddressPath+"?"+query.Encode(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "KakaoAK "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("kakao coord2address: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("kakao coord2address: unexpected status %d", resp.StatusCode)
	}

	var body coord2AddressResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode kakao response: %w", err)
	}

	for _, doc := range body.Documents {
		if doc.Address != nil && doc.Address.AddressName != "" {
			return doc.Address.AddressName, nil
		}
		if doc.RoadAddress != nil && doc.RoadAddress.AddressName != "" {
			return doc.RoadAddress.AddressName, nil
		}
	}
	return "", ErrAddressNotFound
}

var _ Geocoder = (*KakaoClient)(nil)
