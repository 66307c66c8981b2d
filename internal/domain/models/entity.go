package models

import (
	"strings"
	"time"
)

// EntitySpec identifies the team (or player) a profile is aggregated for.
type EntitySpec struct {
	Sport      string `json:"sport" query:"sport" validate:"required"`
	EntityName string `json:"entity_name" query:"entity" validate:"required,max=128"`
	League     string `json:"league,omitempty" query:"league" validate:"max=128"`
}

// Key is the cache key of the entity: "<sport>:<entityName>".
func (s EntitySpec) Key() string {
	return NormalizeSport(s.Sport) + ":" + s.EntityName
}

// NormalizeSport lowercases and trims a sport identifier.
func NormalizeSport(sport string) string {
	return strings.ToLower(strings.TrimSpace(sport))
}

// SourceQuality is assigned per adapter call and never recomputed.
type SourceQuality string

const (
	QualityHigh   SourceQuality = "High"
	QualityMedium SourceQuality = "Medium"
	QualityLow    SourceQuality = "Low"
)

// ParseSourceQuality maps a config string onto a quality, defaulting to Low.
func ParseSourceQuality(s string) SourceQuality {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return QualityHigh
	case "medium":
		return QualityMedium
	default:
		return QualityLow
	}
}

// Weight is the contribution of one source of this quality to the data quality score.
func (q SourceQuality) Weight() float64 {
	switch q {
	case QualityHigh:
		return 100
	case QualityMedium:
		return 50
	default:
		return 0
	}
}

// SourceKind is a category of data an adapter can supply.
type SourceKind string

const (
	KindStats     SourceKind = "stats"
	KindNews      SourceKind = "news"
	KindSentiment SourceKind = "sentiment"
	KindStandings SourceKind = "standings"
)

// SourcePayload is the tagged union returned by adapters. Only the categories
// the adapter supplies are non-nil.
type SourcePayload struct {
	Stats     *TeamStats `json:"stats,omitempty"`
	News      []NewsItem `json:"news,omitempty"`
	Sentiment *Sentiment `json:"sentiment,omitempty"`
	Standing  *Standing  `json:"standing,omitempty"`
}

// Empty reports whether no category is populated.
func (p SourcePayload) Empty() bool {
	return p.Stats == nil && len(p.News) == 0 && p.Sentiment == nil && p.Standing == nil
}

// RawRecord is one successful adapter result. It is not mutated after creation.
type RawRecord struct {
	Source    string        `json:"source"`
	Quality   SourceQuality `json:"quality"`
	FetchedAt time.Time     `json:"fetched_at"`
	Payload   SourcePayload `json:"payload"`
}
