package competitor

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/romangod6/store-insights/internal/models"
)

// Weights of the similarity components. They sum to 1.
const (
	catalogWeight = 0.5
	socialWeight  = 0.2
	priceWeight   = 0.3
)

// Similarity scores how close other is to origin, from 0 (nothing in common)
// to 1. It compares catalog tags and categories, the social platforms used
// and the median product price.
func Similarity(origin, other *models.StoreInsights) float64 {
	if origin == nil || other == nil {
		return 0
	}
	score := catalogWeight*jaccard(catalogTerms(origin), catalogTerms(other)) +
		socialWeight*jaccard(socialPlatforms(origin), socialPlatforms(other)) +
		priceWeight*priceCloseness(medianPrice(origin.Products), medianPrice(other.Products))
	return math.Round(score*1000) / 1000
}

func catalogTerms(in *models.StoreInsights) map[string]struct{} {
	terms := make(map[string]struct{})
	add := func(s string) {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			terms[s] = struct{}{}
		}
	}
	for _, p := range in.Products {
		add(p.Category)
		for _, tag := range p.Tags {
			add(tag)
		}
	}
	return terms
}

func socialPlatforms(in *models.StoreInsights) map[string]struct{} {
	platforms := make(map[string]struct{}, len(in.SocialHandles))
	for platform := range in.SocialHandles {
		platforms[platform] = struct{}{}
	}
	return platforms
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	shared := 0
	for k := range a {
		if _, ok := b[k]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(a)+len(b)-shared)
}

// medianPrice ignores products whose price is missing or zero.
func medianPrice(products []models.Product) float64 {
	prices := make([]float64, 0, len(products))
	for _, p := range products {
		v, err := strconv.ParseFloat(strings.TrimSpace(p.Price), 64)
		if err != nil || v <= 0 {
			continue
		}
		prices = append(prices, v)
	}
	if len(prices) == 0 {
		return 0
	}
	sort.Float64s(prices)
	mid := len(prices) / 2
	if len(prices)%2 == 0 {
		return (prices[mid-1] + prices[mid]) / 2
	}
	return prices[mid]
}

func priceCloseness(a, b float64) float64 {
	if a <= 0 || b <= 0 {
		return 0
	}
	return math.Min(a, b) / math.Max(a, b)
}
