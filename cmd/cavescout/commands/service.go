package commands

import (
	"fmt"
	"time"

	"cavescout/lib/configutil"
	"cavescout/lib/restyutil"
	"cavescout/lib/scrapers/leclerc"
	"cavescout/lib/scrapers/vivino"
	"cavescout/lib/scrapers/websearch"
	"cavescout/lib/serviceutil"
	"cavescout/lib/sqliteutil"
	"cavescout/services/cellar"
	cellardb "cavescout/services/cellar/db"
	"cavescout/services/enrich"

	_ "modernc.org/sqlite"
)

type Config struct {
	Port      int    `json:"port"`
	StoreCode string `json:"store_code"`
	MaxPages  int    `json:"max_pages"`
	// rating lookup strategy: "api" (default) or "websearch"
	Provider        string `json:"provider"`
	CacheTTLMinutes int    `json:"cache_ttl_minutes"`
	Database        string `json:"database"`
}

func readConfig() Config {
	cfg, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.Database == "" {
		cfg.Database = "cavescout.db"
	}
	return cfg
}

func instrumentOutput(name string) restyutil.InstrumentOutput {
	if !*verbose {
		return nil
	}
	return restyutil.NewFilesystemOutput(fmt.Sprintf(".dev/resty/%s", name))
}

func newProvider(cfg Config) enrich.RatingProvider {
	switch cfg.Provider {
	case "", "api":
		return enrich.NewAPIProvider(vivino.NewClient(vivino.ClientOptions{
			InstrumentOutput: instrumentOutput("vivino"),
		}))
	case "websearch":
		return enrich.NewSnippetProvider(websearch.NewClient(websearch.ClientOptions{
			InstrumentOutput: instrumentOutput("websearch"),
		}))
	}
	serviceutil.Fatal(
		"invalid config",
		fmt.Errorf("unknown provider %q, expected api or websearch", cfg.Provider),
	)
	return nil
}

func newService(cfg Config) *cellar.Service {
	client, err := leclerc.NewClient(leclerc.ClientOptions{
		StoreCode:        cfg.StoreCode,
		MaxPages:         cfg.MaxPages,
		InstrumentOutput: instrumentOutput("leclerc"),
	})
	if err != nil {
		serviceutil.Fatal("failed to initialize catalog client", err)
	}

	db, err := sqliteutil.OpenDB(cellardb.Schema, cfg.Database)
	if err != nil {
		serviceutil.Fatal("failed to open database", err)
	}

	return cellar.NewService(
		cellar.NewCatalogSource(client),
		enrich.New(newProvider(cfg), enrich.Options{}),
		db,
		cellar.ServiceOptions{
			CacheTTL: time.Duration(cfg.CacheTTLMinutes) * time.Minute,
		},
	)
}
