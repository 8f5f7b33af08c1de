package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jask/budgeteer/internal/config"
	"github.com/jask/budgeteer/internal/database"
	"github.com/jask/budgeteer/internal/database/repository"
	"github.com/jask/budgeteer/internal/logger"
	"github.com/jask/budgeteer/internal/lookup"
	"github.com/jask/budgeteer/internal/service"
)

func usage() {
	fmt.Fprintf(os.Stderr, `usage: budgeteer <command> [flags]

commands:
  import       import a bank CSV export
  apply-rule   re-apply one rule over existing transactions
  sync         recompute budget aggregates for a month
  set-budget   set the planned amount for a category and month
  resolve      resolve a merchant name and sweep matching transactions
  detect-dups  queue near-duplicate transactions for review
  reset        wipe all user data
`)
	os.Exit(2)
}

func main() {
	log := logger.New()

	if len(os.Args) < 2 {
		usage()
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		log.Fatal().Err(err).Msg("create db dir")
	}
	if err := database.RunMigrations(cfg.Database.Path, cfg.Database.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("migrate")
	}
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("open db")
	}
	defer db.Close()

	ctx := context.Background()
	if err := database.SeedDefaults(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("seed defaults")
	}

	txRepo := repository.NewTransactionRepo(db)
	splitRepo := repository.NewSplitRepo(db)
	merchantRepo := repository.NewMerchantRepo(db)
	ruleRepo := repository.NewRuleRepo(db)
	budgetRepo := repository.NewBudgetRepo(db)
	batchRepo := repository.NewImportBatchRepo(db)
	dupRepo := repository.NewDuplicateRepo(db)

	defaultCategoryID := database.CategoryID(cfg.Import.DefaultCategory)

	budgets := &service.BudgetService{Budgets: budgetRepo, Splits: splitRepo}
	resolver := &service.ResolverService{Merchants: merchantRepo, Transactions: txRepo}
	rules := &service.RuleService{
		DB:                db,
		Rules:             ruleRepo,
		Transactions:      txRepo,
		Splits:            splitRepo,
		Budgets:           budgets,
		DefaultCategoryID: defaultCategoryID,
	}
	ingester := &service.IngestService{
		DB:                db,
		Transactions:      txRepo,
		Splits:            splitRepo,
		Batches:           batchRepo,
		Resolver:          resolver,
		Rules:             rules,
		Budgets:           budgets,
		DefaultCategoryID: defaultCategoryID,
		Log:               log,
	}
	duplicates := &service.DuplicateService{Transactions: txRepo, Pending: dupRepo, Budgets: budgets}
	maintenance := &service.MaintenanceService{DB: db}
	yelp := lookup.NewYelpClient(cfg.ResolveYelpKey())

	switch os.Args[1] {
	case "import":
		fs := flag.NewFlagSet("import", flag.ExitOnError)
		source := fs.String("source", "bank", "source label for the batch")
		_ = fs.Parse(os.Args[2:])
		if fs.NArg() != 1 {
			log.Fatal().Msg("import: exactly one CSV file expected")
		}
		path := fs.Arg(0)
		f, err := os.Open(path)
		if err != nil {
			log.Fatal().Err(err).Msg("open csv")
		}
		defer f.Close()
		res, err := ingester.ImportCSV(ctx, f, *source, filepath.Base(path))
		if err != nil {
			log.Fatal().Err(err).Msg("import")
		}
		for _, re := range res.Errors {
			log.Warn().Int("row", re.Row).Str("message", re.Message).Msg("row failed")
		}

	case "apply-rule":
		fs := flag.NewFlagSet("apply-rule", flag.ExitOnError)
		mode := fs.String("mode", "assign", "assign or clear")
		_ = fs.Parse(os.Args[2:])
		if fs.NArg() != 1 {
			log.Fatal().Msg("apply-rule: rule id expected")
		}
		res, err := rules.Apply(ctx, fs.Arg(0), *mode)
		if err != nil {
			log.Fatal().Err(err).Msg("apply rule")
		}
		log.Info().Int("updated", res.Updated).Msg("rule applied")

	case "sync":
		fs := flag.NewFlagSet("sync", flag.ExitOnError)
		_ = fs.Parse(os.Args[2:])
		month := time.Now().UTC().Format("2006-01")
		if fs.NArg() == 1 {
			month = fs.Arg(0)
		}
		if err := budgets.SyncMonth(ctx, month); err != nil {
			log.Fatal().Err(err).Msg("sync month")
		}
		log.Info().Str("month", month).Msg("budget synced")

	case "set-budget":
		fs := flag.NewFlagSet("set-budget", flag.ExitOnError)
		category := fs.String("category", "", "category name")
		month := fs.String("month", time.Now().UTC().Format("2006-01"), "month key YYYY-MM")
		amount := fs.Int64("cents", 0, "planned amount in cents")
		_ = fs.Parse(os.Args[2:])
		if *category == "" {
			log.Fatal().Msg("set-budget: -category required")
		}
		if err := budgets.SetPlanned(ctx, database.CategoryID(*category), *month, *amount); err != nil {
			log.Fatal().Err(err).Msg("set budget")
		}
		log.Info().Str("category", *category).Str("month", *month).Msg("budget set")

	case "resolve":
		fs := flag.NewFlagSet("resolve", flag.ExitOnError)
		canonical := fs.String("name", "", "explicit canonical name")
		_ = fs.Parse(os.Args[2:])
		if fs.NArg() != 1 {
			log.Fatal().Msg("resolve: raw merchant text expected")
		}
		raw := fs.Arg(0)
		opts := service.ResolveOptions{CanonicalName: *canonical}
		if yelp.Enabled() {
			lookupCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			suggestions, err := yelp.Autocomplete(lookupCtx, raw)
			cancel()
			if err != nil {
				log.Warn().Err(err).Msg("yelp lookup failed, continuing without enrichment")
			} else if len(suggestions) > 0 {
				opts.YelpID = &suggestions[0].ID
			}
		}
		res, reassigned, err := resolver.ResolveAndReassign(ctx, raw, opts)
		if err != nil {
			log.Fatal().Err(err).Msg("resolve merchant")
		}
		if res == nil {
			log.Warn().Str("raw", raw).Msg("nothing resolvable")
			return
		}
		log.Info().
			Str("merchant", res.CanonicalName).
			Str("key", res.NormalizedKey).
			Int("reassigned", reassigned).
			Msg("merchant resolved")

	case "detect-dups":
		queued, err := duplicates.Detect(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("detect duplicates")
		}
		log.Info().Int("queued", queued).Msg("near-duplicate scan complete")

	case "reset":
		if err := maintenance.Reset(ctx); err != nil {
			log.Fatal().Err(err).Msg("reset")
		}
		log.Info().Msg("all data wiped")

	default:
		usage()
	}
}
