package nakama

import (
	"context"
	"database/sql"

	"tiledraft/internal/config"

	"github.com/heroiclabs/nakama-common/runtime"
)

// InitModule wires RPCs and match handlers for Nakama runtime.
func InitModule(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, initializer runtime.Initializer) error {
	path := defaultConfigPath
	if env, ok := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string); ok && env[EnvConfigPath] != "" {
		path = env[EnvConfigPath]
	}
	if err := config.LoadGameConfig(path); err != nil {
		logger.Warn("InitModule: Could not load game config %s, using defaults: %v", path, err)
	}

	if err := RegisterRPCs(initializer); err != nil {
		return err
	}

	if err := initializer.RegisterMatch(MatchNameTileDraft, func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule) (runtime.Match, error) {
		return newMatchHandler(), nil
	}); err != nil {
		return err
	}

	logger.Info("TileDraft Go module loaded.")
	return nil
}
