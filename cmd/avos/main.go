// Package main is the Lambda entry point for the voice ordering webhook.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/goccy/go-yaml"

	"avos/handler"
	"avos/internal/catalog"
	"avos/internal/domain"
	"avos/internal/intent"
	"avos/internal/integrations/openai"
	"avos/internal/integrations/paramstore"
	"avos/internal/integrations/payments"
	"avos/internal/repository"
	"avos/internal/session"
)

// restaurantsFile is the boot-time YAML listing every served restaurant and
// where its catalog lives.
type restaurantsFile struct {
	Restaurants []struct {
		Config  domain.RestaurantConfig `yaml:"config"`
		Catalog string                  `yaml:"catalog"`
	} `yaml:"restaurants"`
}

// configMap resolves restaurant configs for the handler.
type configMap map[string]domain.RestaurantConfig

func (m configMap) ConfigFor(restaurantID string) (domain.RestaurantConfig, bool) {
	cfg, ok := m[restaurantID]
	return cfg, ok
}

func main() {
	ctx := context.Background()

	// ---- Configuration (read only here) ----
	stateTable := mustEnv("STATE_TABLE")
	paramPrefix := mustEnv("PARAM_PREFIX")
	restaurantsPath := mustEnv("RESTAURANTS_FILE")
	paymentsURL := mustEnv("PAYMENTS_URL")
	openaiModel := envStr("OPENAI_MODEL", "gpt-4o-mini")

	// ---- AWS SDK config ----
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		slog.Error("failed to load AWS config", "err", err)
		os.Exit(1)
	}

	// ---- Clients ----
	ssmClient, err := paramstore.New(awsssm.NewFromConfig(cfg))
	if err != nil {
		slog.Error("failed to create SSM client", "err", err)
		os.Exit(1)
	}
	archive, err := repository.New(awsdynamodb.NewFromConfig(cfg), stateTable)
	if err != nil {
		slog.Error("failed to create repository client", "err", err)
		os.Exit(1)
	}
	openaiClient, err := openai.NewClient(ssmClient, paramPrefix)
	if err != nil {
		slog.Error("failed to create OpenAI client", "err", err)
		os.Exit(1)
	}
	paymentsClient, err := payments.NewClient(ssmClient, paramPrefix, paymentsURL)
	if err != nil {
		slog.Error("failed to create payments client", "err", err)
		os.Exit(1)
	}

	// ---- Restaurants and catalogs ----
	configs, store, err := loadRestaurants(restaurantsPath)
	if err != nil {
		slog.Error("failed to load restaurants", "err", err)
		os.Exit(1)
	}

	// ---- Session manager ----
	mgr, err := session.NewManager(session.Deps{
		Payments: paymentsClient,
		Archive:  archive,
		NewRecognizer: func(engine domain.AIEngine) (session.Recognizer, error) {
			return intent.New(engine, intent.Deps{Chat: openaiClient, Model: openaiModel})
		},
	})
	if err != nil {
		slog.Error("failed to create session manager", "err", err)
		os.Exit(1)
	}

	h, err := handler.NewHandler(mgr, configs, store)
	if err != nil {
		slog.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	lambda.Start(h.Handle)
}

// loadRestaurants reads the restaurants file and builds every catalog
// snapshot up front. A restaurant with a broken catalog is skipped with a
// log line; its calls get the apology path.
func loadRestaurants(path string) (configMap, *catalog.Store, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	var rf restaurantsFile
	if err := yaml.Unmarshal(raw, &rf); err != nil {
		return nil, nil, err
	}

	configs := make(configMap, len(rf.Restaurants))
	store := catalog.NewStore()
	for _, r := range rf.Restaurants {
		configs[r.Config.RestaurantID] = r.Config
		f, err := catalog.Load(r.Catalog)
		if err != nil {
			slog.Error("failed to load catalog", "restaurantId", r.Config.RestaurantID, "err", err)
			continue
		}
		store.Put(catalog.BuildSnapshot(f))
	}
	return configs, store, nil
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		slog.Error("required environment variable is not set", "key", key)
		os.Exit(1)
	}
	return v
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
