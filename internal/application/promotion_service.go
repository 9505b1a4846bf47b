package application

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/alorle/iptv-guide/cache"
	"github.com/alorle/iptv-guide/internal/port/driven"
)

// Promotion kinds and the remote-config keys that point at their lists
const (
	PromotionBanner  = "banner"
	PromotionVideo   = "video"
	PromotionOpenApp = "open_app"
)

var promotionKeys = map[string]string{
	PromotionBanner:  "ads_url",
	PromotionVideo:   "ads_video",
	PromotionOpenApp: "ads_open_app",
}

// Promotion is one entry of a promotional list.
type Promotion struct {
	ID           string   `json:"_id,omitempty"`
	ProductID    string   `json:"productId,omitempty"`
	Title        string   `json:"title,omitempty"`
	Description  string   `json:"description,omitempty"`
	Price        int64    `json:"price,omitempty"`
	SalePrice    int64    `json:"salePrice,omitempty"`
	Sale         int      `json:"sale,omitempty"`
	ProductLink  string   `json:"productLink,omitempty"`
	CTAAction    string   `json:"ctaAction,omitempty"`
	CTAURL       string   `json:"ctaUrl,omitempty"`
	ImageURL     string   `json:"imageUrl,omitempty"`
	VideoURL     string   `json:"videoUrl,omitempty"`
	BannerImage  string   `json:"bannerImage,omitempty"`
	AdsType      string   `json:"adsType,omitempty"`
	Images       []string `json:"productImages,omitempty"`
	CategoryID   string   `json:"categoryId,omitempty"`
	CategoryName string   `json:"categoryName,omitempty"`
}

type promotionResponse struct {
	Total int         `json:"total"`
	Data  []Promotion `json:"data"`
}

// PromotionService serves promotional lists whose location is published
// through remote config. Lists are cached for the cache TTL; when a list
// cannot be refreshed the previous copy, or an empty list, is served.
type PromotionService struct {
	remoteConfig driven.RemoteConfig
	fetcher      driven.Fetcher
	cache        *cache.Remote[[]Promotion]
	logger       *slog.Logger
}

// NewPromotionService creates a new PromotionService.
func NewPromotionService(
	remoteConfig driven.RemoteConfig,
	fetcher driven.Fetcher,
	remote *cache.Remote[[]Promotion],
	logger *slog.Logger,
) *PromotionService {
	return &PromotionService{
		remoteConfig: remoteConfig,
		fetcher:      fetcher,
		cache:        remote,
		logger:       logger,
	}
}

// Kinds returns the supported promotion kinds.
func Kinds() []string {
	return []string{PromotionBanner, PromotionVideo, PromotionOpenApp}
}

// List returns the promotions of a kind. Unavailability of the list never
// fails the call; only an unknown kind does. The second return value is the
// cache outcome.
func (s *PromotionService) List(ctx context.Context, kind string) ([]Promotion, string, error) {
	key, ok := promotionKeys[kind]
	if !ok {
		return nil, "", fmt.Errorf("%w: %q", ErrUnknownPromotion, kind)
	}

	listURL, set, err := s.remoteConfig.GetString(ctx, key)
	if err != nil {
		s.logger.Warn("Remote config unavailable", "key", key, "error", err)
		return []Promotion{}, cache.OutcomeEmpty, nil
	}
	if !set {
		return []Promotion{}, cache.OutcomeEmpty, nil
	}

	promotions, outcome := s.cache.Get(ctx, "promotions:"+kind, func(ctx context.Context) ([]Promotion, error) {
		content, err := s.fetcher.Fetch(ctx, listURL)
		if err != nil {
			return nil, err
		}
		var resp promotionResponse
		if err := json.Unmarshal([]byte(content), &resp); err != nil {
			return nil, fmt.Errorf("decode promotions: %w", err)
		}
		if resp.Data == nil {
			return []Promotion{}, nil
		}
		return resp.Data, nil
	})
	if promotions == nil {
		promotions = []Promotion{}
	}
	return promotions, outcome, nil
}
