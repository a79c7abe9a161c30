package state

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/xenn00/chat-service/config"
	"github.com/xenn00/chat-service/internal/upstream"
	"github.com/xenn00/chat-service/internal/utils"
	"gorm.io/gorm"
)

type AppState struct {
	Ctx      context.Context
	Cancel   context.CancelFunc
	DB       *gorm.DB
	Redis    *redis.Client
	Verifier *utils.TokenVerifier
	Roster   upstream.MembershipRoster
	Profiles upstream.ProfileLookup
}

func InitAppState(ctx context.Context, cancel context.CancelFunc) (*AppState, error) {
	conf := config.Conf

	db, _, err := InitPostgres(conf.DATABASE.Postgres.DSN)
	if err != nil {
		return nil, err
	}

	if conf.DATABASE.AutoMigrate {
		if err := Migrate(db); err != nil {
			return nil, err
		}
	}

	var rdb *redis.Client
	if conf.DATABASE.Redis.Addr != "" {
		rdb, err = InitRedis(conf.DATABASE.Redis.Addr, conf.DATABASE.Redis.Password, conf.DATABASE.Redis.DB)
		if err != nil {
			return nil, err
		}
	} else {
		log.Warn().Msg("Redis address empty, profile cache and cross-instance broadcast disabled")
	}

	verifier, err := InitVerifier(conf.JWT.Secret, conf.JWT.PublicKeyPath)
	if err != nil {
		return nil, err
	}

	up := conf.UPSTREAM
	roster := upstream.NewRosterClient(up.ExpenseTrackerURL, up.ServiceToken, up.Timeout)
	var profiles upstream.ProfileLookup = upstream.NewProfileClient(up.UserServiceURL, up.ServiceToken, up.Timeout)
	if rdb != nil {
		profiles = upstream.NewCachedProfileLookup(profiles, rdb, up.ProfileCacheTTL)
	}

	return &AppState{
		Ctx:      ctx,
		Cancel:   cancel,
		DB:       db,
		Redis:    rdb,
		Verifier: verifier,
		Roster:   roster,
		Profiles: profiles,
	}, nil
}

func (a *AppState) Close() {
	if a.DB != nil {
		sqlDB, err := a.DB.DB()
		if err == nil {
			log.Info().Msg("Closing PostgreSQL database connection...")
			sqlDB.Close()
		}
	}

	if a.Redis != nil {
		log.Info().Msg("Closing Redis client...")
		if err := a.Redis.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close Redis client")
		}
	}
}
