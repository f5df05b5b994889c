package constants

import "time"

const (
	HotStoreTTL     = 1 * time.Hour
	RankingCacheTTL = 5 * time.Minute
	SweepInterval   = 5 * time.Second
)

const (
	DatabaseTimeout = 5 * time.Second
	RedisTimeout    = 2 * time.Second
	RequestTimeout  = 30 * time.Second
	ClientTimeout   = 10 * time.Second
)

const (
	DBMaxOpenConns    = 100
	DBMaxIdleConns    = 10
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

const (
	RedisPoolSize     = 20
	RedisMinIdleConns = 2
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	// SweepConcurrency bounds how many matches one sweeper tick checks at once.
	SweepConcurrency    = 8
	DefaultRankingLimit = 10
	MaxRankingLimit     = 100
)

const (
	WinBasePoints = 100
	PointsPerHit  = 10
)
