// Command agroshield-i18n manages the AgroShield offline localization cache
// and looks up localized disease descriptions from the terminal.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"

	"github.com/agroshield/agroi18n"
	"github.com/agroshield/agroi18n/edge"
	"github.com/agroshield/agroi18n/predict"
	"github.com/agroshield/agroi18n/render"
	"github.com/agroshield/agroi18n/store"
	"github.com/caarlos0/env/v11"
	"github.com/lmittmann/tint"
)

// Build-time variables (can be overridden with ldflags)
var (
	version   = agroi18n.Version
	commit    = agroi18n.GitCommit
	buildDate = agroi18n.BuildDate
)

// envConfig holds environment-variable defaults; flags override them.
type envConfig struct {
	BaseURL  string `env:"AGROSHIELD_BASE_URL" envDefault:"http://127.0.0.1:5000"`
	DataDir  string `env:"AGROSHIELD_DATA_DIR"`
	Lang     string `env:"AGROSHIELD_LANG"`
	LogLevel string `env:"AGROSHIELD_LOG_LEVEL" envDefault:"warn"`
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	var cfg envConfig
	if err := env.Parse(&cfg); err != nil {
		return fmt.Errorf("reading environment: %w", err)
	}

	fs := flag.NewFlagSet("agroshield-i18n", flag.ContinueOnError)
	fs.SetOutput(stderr)

	// Flags
	lang := fs.String("lang", cfg.Lang, "Language code (e.g., hi, kn; default: saved preference)")
	disease := fs.String("disease", "", "Disease identifier to describe")
	imagePath := fs.String("image", "", "Leaf photo to classify; the result's disease is described")
	warm := fs.Bool("warm", false, "Install the edge cache and prefetch every locale for offline use")
	exportPath := fs.String("export", "", "Write a store snapshot to this file")
	importPath := fs.String("import", "", "Seed the store from a snapshot file")
	baseURL := fs.String("base-url", cfg.BaseURL, "AgroShield origin URL")
	dataDir := fs.String("data-dir", cfg.DataDir, "Cache data directory (default: user cache dir)")
	jsonOutput := fs.Bool("json", false, "Output the description as JSON instead of HTML")
	quiet := fs.Bool("quiet", false, "Suppress progress output")
	showVersion := fs.Bool("version", false, "Show version")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *showVersion {
		fmt.Fprintf(stdout, "%s %s\n", agroi18n.Name, version)
		if commit != "unknown" && commit != "" {
			fmt.Fprintf(stdout, "  commit:  %s\n", commit)
		}
		if buildDate != "unknown" && buildDate != "" {
			fmt.Fprintf(stdout, "  built:   %s\n", buildDate)
		}
		return nil
	}

	if *disease == "" && *imagePath == "" && !*warm && *exportPath == "" && *importPath == "" {
		fs.Usage()
		return fmt.Errorf("--disease, --image, --warm, --export or --import is required")
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelWarn
	}
	logger := slog.New(tint.NewHandler(stderr, &tint.Options{Level: level}))

	if *dataDir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			return fmt.Errorf("no data directory: %w", err)
		}
		*dataDir = filepath.Join(base, "agroshield")
	}

	ctx := context.Background()

	// The structured store degrades to an in-process store rather than
	// failing the whole command.
	var s agroi18n.Store
	sqlStore, err := store.OpenSQLite(filepath.Join(*dataDir, "i18n.db"))
	if err != nil {
		logger.Warn("on-disk store unavailable, caching for this run only", "error", err)
		s = store.NewMemoryStore()
	} else {
		defer sqlStore.Close()
		s = sqlStore
	}

	edgeCache := edge.New(filepath.Join(*dataDir, "edge"), *baseURL, edge.WithLogger(logger))
	defer edgeCache.Close()

	if *warm {
		if err := edgeCache.Install(ctx); err != nil {
			return fmt.Errorf("installing edge cache: %w", err)
		}
	}
	// Interception stays off until a seeded generation is activated.
	if err := edgeCache.Activate(); err != nil && *warm {
		return fmt.Errorf("activating edge cache: %w", err)
	}

	client := &http.Client{Transport: edgeCache}
	loader := agroi18n.NewLoader(
		agroi18n.WithStore(s),
		agroi18n.WithBaseURL(*baseURL),
		agroi18n.WithHTTPClient(client),
		agroi18n.WithLogger(logger),
	)

	sqlOnly, _ := s.(*store.SQLiteStore)
	if *importPath != "" {
		if err := store.ImportFromFile(*importPath, s); err != nil {
			return fmt.Errorf("importing snapshot: %w", err)
		}
		if !*quiet {
			fmt.Fprintf(stdout, "Imported snapshot from %s\n", *importPath)
		}
	}

	if *warm {
		result, err := loader.WarmLocales(ctx, nil)
		if err != nil {
			return fmt.Errorf("warming locales: %w", err)
		}
		if !*quiet {
			sort.Strings(result.Warmed)
			fmt.Fprintf(stdout, "Warmed %d locale(s): %v\n", len(result.Warmed), result.Warmed)
			for lang, err := range result.Failed {
				fmt.Fprintf(stdout, "  %s failed: %v\n", lang, err)
			}
		}
	}

	if *lang != "" {
		loader.Load(ctx, *lang)
		loader.SavePreference()
	} else {
		loader.RestorePreference(ctx)
	}

	diseaseID := *disease
	if *imagePath != "" {
		id, err := classify(ctx, *baseURL, *imagePath, stdout, *quiet)
		if err != nil {
			return err
		}
		diseaseID = id
	}

	if diseaseID != "" {
		if err := describe(ctx, loader, s, client, *baseURL, diseaseID, stdout, *jsonOutput); err != nil {
			return err
		}
	}

	if *exportPath != "" {
		if sqlOnly == nil {
			return fmt.Errorf("--export requires the on-disk store")
		}
		if err := store.ExportToFile(*exportPath, sqlOnly, map[string]string{
			"origin": *baseURL,
		}); err != nil {
			return fmt.Errorf("exporting snapshot: %w", err)
		}
		if !*quiet {
			fmt.Fprintf(stdout, "Exported snapshot to %s\n", *exportPath)
		}
	}

	return nil
}

// classify uploads the image and returns the predicted disease identifier.
func classify(ctx context.Context, baseURL, imagePath string, stdout io.Writer, quiet bool) (string, error) {
	f, err := os.Open(imagePath) // #nosec G304 - CLI tool reads user-specified files
	if err != nil {
		return "", fmt.Errorf("reading image: %w", err)
	}
	defer f.Close()

	client := predict.NewRetryableClient(predict.NewHTTPClient(baseURL), predict.DefaultRetryConfig())
	result, err := client.Predict(ctx, f, filepath.Base(imagePath))
	if err != nil {
		return "", err
	}

	if !quiet {
		fmt.Fprintf(stdout, "Prediction: %s\n", result.Prediction)
	}
	return result.DiseaseID, nil
}

// describe resolves and prints the localized description for diseaseID.
func describe(ctx context.Context, loader *agroi18n.Loader, s agroi18n.Store, client *http.Client, baseURL, diseaseID string, stdout io.Writer, asJSON bool) error {
	resolver := agroi18n.NewResolver(
		agroi18n.WithResolverStore(s),
		agroi18n.WithResolverBaseURL(baseURL),
		agroi18n.WithResolverHTTPClient(client),
	)

	desc, err := resolver.Resolve(ctx, diseaseID, loader.Active())
	if err != nil {
		fmt.Fprintf(stdout, "No description available: %v\n", err)
		return nil
	}

	if asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(desc)
	}

	html, err := render.Description(desc, loader.Active(), loader.T)
	if err != nil {
		return fmt.Errorf("rendering description: %w", err)
	}
	fmt.Fprintln(stdout, html)
	return nil
}
