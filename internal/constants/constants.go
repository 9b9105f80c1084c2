package constants

import "time"

const (
	// RecentFormCap bounds per-surface form history; oldest entries are
	// evicted first.
	RecentFormCap     = 50
	DefaultFormWindow = 10
)

const (
	UpsetRiskLimit         = 3
	UpsetFavoriteThreshold = 0.65
)

const (
	DatabaseTimeout   = 5 * time.Second
	RequestTimeout    = 30 * time.Second
	SimulationTimeout = 60 * time.Second
	ArchiveTimeout    = 2 * time.Minute
)

const (
	DBMaxOpenConns    = 100
	DBMaxIdleConns    = 10
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
	DBBatchSize       = 100
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	SearchSuggestionLimit = 10
	DefaultRankingLimit   = 20
	MaxRankingLimit       = 200
)
