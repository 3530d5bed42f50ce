package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"calora/backend/internal/ai"
	"calora/backend/internal/analytics"
	"calora/backend/internal/config"
	"calora/backend/internal/db"
	"calora/backend/internal/store"
)

type runtime struct {
	svc      *analytics.Service
	insights *analytics.InsightGenerator
}

// openRuntime is swapped out by tests.
var openRuntime = openPostgresRuntime

func loadConfig() (config.Config, error) {
	cfg := config.Load()
	if v := strings.TrimSpace(databaseURL); v != "" {
		cfg.DatabaseURL = v
	}
	if v := strings.TrimSpace(timezone); v != "" {
		cfg.Timezone = v
	}
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return cfg, errors.New("DATABASE_URL is required (or pass --database-url)")
	}
	return cfg, nil
}

func openPostgresRuntime(ctx context.Context, cfg config.Config) (*runtime, func(), error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, nil, fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}
	pool, err := db.Connect(ctx, cfg.DatabaseURL, db.Options{MaxConns: 2})
	if err != nil {
		return nil, nil, err
	}
	if err := store.ValidateRuntimeSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, err
	}

	var client ai.Client = ai.NewOpenAIResponsesClient(cfg)
	if cfg.AIMock {
		client = ai.MockClient{}
	}
	svc := analytics.NewService(store.New(pool), analytics.WithLocation(loc))
	insights := analytics.NewInsightGenerator(svc, analytics.NewInsightCache(cfg.InsightCacheTTL(), nil), client, analytics.GeneratorConfig{
		Model:           cfg.OpenAIModel,
		MaxOutputTokens: cfg.AIMaxOutputTokens,
		Timeout:         cfg.AITimeout(),
	})
	return &runtime{svc: svc, insights: insights}, pool.Close, nil
}

func withRuntime(cmd *cobra.Command, run func(context.Context, *runtime) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	rt, closeFn, err := openRuntime(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFn()
	return run(ctx, rt)
}

func userArg(args []string) (string, error) {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		return "", errors.New("exactly one user id is required")
	}
	return strings.TrimSpace(args[0]), nil
}

func printJSON(out io.Writer, label string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s json: %w", label, err)
	}
	fmt.Fprintln(out, string(b))
	return nil
}

func describeError(ownerID string, err error) error {
	if errors.Is(err, analytics.ErrUserNotFound) {
		return fmt.Errorf("user %s not found", ownerID)
	}
	return err
}
