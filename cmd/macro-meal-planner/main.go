package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"macro-meal-planner/internal/config"
	"macro-meal-planner/internal/database"
	"macro-meal-planner/internal/favorites"
	"macro-meal-planner/internal/llm"
	"macro-meal-planner/internal/mealplan"
	"macro-meal-planner/internal/metrics"
	"macro-meal-planner/internal/notify"
	"macro-meal-planner/internal/nutrition"
	"macro-meal-planner/internal/planner"
	"macro-meal-planner/internal/shared"
	"macro-meal-planner/internal/storage"
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	chat, err := newChatClient(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize LLM client: %v", err)
	}
	if closer, ok := chat.(llm.Closer); ok {
		defer closer.Close()
	}

	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	repo := storage.NewRepository(db.SQL)
	metricsStore := metrics.NewStore(db.SQL)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "plan":
		runPlan(ctx, cfg, chat, repo, metricsStore, logger, os.Args[2:])
	case "revise":
		runRevise(ctx, chat, repo, metricsStore, logger, os.Args[2:])
	case "import":
		runImport(ctx, chat, os.Args[2:])
	case "metrics":
		runMetrics(ctx, metricsStore, os.Args[2:])
	case "metrics-cleanup":
		runMetricsCleanup(ctx, metricsStore, os.Args[2:])
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func newChatClient(ctx context.Context, cfg *config.Config) (llm.ChatGenerator, error) {
	if cfg.LLMProvider == "groq" {
		return llm.NewGroqClient(cfg), nil
	}
	return llm.NewGeminiClient(ctx, cfg)
}

func runPlan(
	ctx context.Context,
	cfg *config.Config,
	chat llm.ChatGenerator,
	repo *storage.Repository,
	metricsStore *metrics.Store,
	logger *slog.Logger,
	args []string,
) {
	fs := flag.NewFlagSet("plan", flag.ExitOnError)
	user := fs.String("user", "", "User identifier")
	conversation := fs.String("conversation", "default", "Conversation identifier")
	goal := fs.String("goal", "maintenance", "Nutrition goal")
	calories := fs.Float64("calories", 2000, "Daily calorie target (weekdays)")
	weekendCalories := fs.Float64("weekend-calories", 0, "Daily calorie target (weekends, defaults to weekday value)")
	split := fs.String("split", "", "Macro split as protein/carbs/fat, e.g. 40/30/30")
	restrictions := fs.String("restrictions", "", "Comma-separated dietary restrictions")
	preferences := fs.String("preferences", "", "Comma-separated preferences")
	portions := fs.Int("portions", 1, "Portions per meal")
	asJSON := fs.Bool("json", false, "Print the plan as JSON")
	fs.Parse(args)

	if *user == "" {
		log.Fatalf("plan: -user is required")
	}

	profile := nutrition.Profile{
		UserID:          *user,
		Goal:            *goal,
		Portions:        *portions,
		WeekdayCalories: *calories,
		WeekendCalories: *weekendCalories,
		MacroSplit:      *split,
		Restrictions:    splitList(*restrictions),
		Preferences:     splitList(*preferences),
	}

	var progress planner.ProgressFunc
	if cfg.ProgressWebhookURL != "" {
		progress = notify.NewWebhookNotifier(cfg.ProgressWebhookURL, cfg.ProgressWebhookKey, logger).ProgressFunc()
	}

	p := planner.NewPlanner(chat, progress, logger)
	plan, metas, err := p.GeneratePlan(ctx, profile)
	recordMetas(ctx, metricsStore, metas, logger)
	if err != nil {
		log.Fatalf("Plan generation failed: %v", err)
	}

	if err := repo.StoreMealPlan(ctx, *user, *conversation, plan); err != nil {
		log.Fatalf("Failed to store plan: %v", err)
	}

	printPlan(plan, *asJSON)
}

func runRevise(
	ctx context.Context,
	chat llm.ChatGenerator,
	repo *storage.Repository,
	metricsStore *metrics.Store,
	logger *slog.Logger,
	args []string,
) {
	fs := flag.NewFlagSet("revise", flag.ExitOnError)
	user := fs.String("user", "", "User identifier")
	conversation := fs.String("conversation", "default", "Conversation identifier")
	day := fs.Int("day", 0, "Day to revise (1-5)")
	meal := fs.String("meal", "", "Meal slot: breakfast, lunch, or dinner")
	change := fs.String("change", "", "What to change")
	goal := fs.String("goal", "maintenance", "Nutrition goal")
	calories := fs.Float64("calories", 2000, "Daily calorie target")
	restrictions := fs.String("restrictions", "", "Comma-separated dietary restrictions")
	asJSON := fs.Bool("json", false, "Print the plan as JSON")
	fs.Parse(args)

	if *user == "" || *day == 0 || *meal == "" || *change == "" {
		log.Fatalf("revise: -user, -day, -meal, and -change are required")
	}

	plan, err := repo.GetMealPlan(ctx, *user, *conversation)
	if err != nil {
		log.Fatalf("No stored plan for user %s: %v", *user, err)
	}

	profile := nutrition.Profile{
		UserID:          *user,
		Goal:            *goal,
		WeekdayCalories: *calories,
		Restrictions:    splitList(*restrictions),
	}
	reqs := []planner.RevisionRequest{{
		Day:      *day,
		MealType: mealplan.MealType(*meal),
		Change:   *change,
	}}

	p := planner.NewPlanner(chat, nil, logger)
	revised, metas, err := p.RevisePlan(ctx, plan, reqs, profile)
	recordMetas(ctx, metricsStore, metas, logger)
	if err != nil {
		log.Fatalf("Plan revision failed: %v", err)
	}

	if err := repo.StoreMealPlan(ctx, *user, *conversation, revised); err != nil {
		log.Fatalf("Failed to store revised plan: %v", err)
	}

	printPlan(revised, *asJSON)
}

func runImport(ctx context.Context, chat llm.ChatGenerator, args []string) {
	if len(args) < 1 {
		log.Fatalf("import: a recipe URL is required")
	}

	meal, err := favorites.NewImporter(chat).ImportURL(ctx, args[0])
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}

	fmt.Printf("%s\n%s\n", meal.Name, meal.Description)
	fmt.Printf("Macros per serving: %.0fg protein / %.0fg carbs / %.0fg fat (%.0f kcal)\n",
		meal.ProteinG, meal.CarbsG, meal.FatG, meal.Calories())
}

func runMetrics(ctx context.Context, metricsStore *metrics.Store, args []string) {
	fs := flag.NewFlagSet("metrics", flag.ExitOnError)
	days := fs.Int("days", 7, "Show usage for the last N days")
	fs.Parse(args)

	usage, err := metricsStore.GetDailyUsage(ctx, *days)
	if err != nil {
		log.Fatalf("Failed to fetch metrics: %v", err)
	}

	if len(usage) == 0 {
		fmt.Println("No usage recorded.")
		return
	}
	for _, d := range usage {
		fmt.Printf("%s  prompt=%d completion=%d executions=%d\n",
			d.Date, d.TotalPrompt, d.TotalCompletion, d.TotalExecution)
	}
}

func runMetricsCleanup(ctx context.Context, metricsStore *metrics.Store, args []string) {
	fs := flag.NewFlagSet("metrics-cleanup", flag.ExitOnError)
	days := fs.Int("days", 30, "Keep records for the last N days")
	fs.Parse(args)

	removed, err := metricsStore.Cleanup(ctx, *days)
	if err != nil {
		log.Fatalf("Cleanup failed: %v", err)
	}
	fmt.Printf("Removed %d old metric records.\n", removed)
}

func recordMetas(ctx context.Context, store *metrics.Store, metas []shared.AgentMeta, logger *slog.Logger) {
	for _, m := range metas {
		if err := store.RecordMeta(ctx, m); err != nil {
			logger.Warn("failed to record metric", "agent", m.AgentName, "error", err)
		}
	}
}

func printPlan(plan *mealplan.MealPlan, asJSON bool) {
	if asJSON {
		out, err := json.MarshalIndent(plan, "", "  ")
		if err != nil {
			log.Fatalf("Failed to encode plan: %v", err)
		}
		fmt.Println(string(out))
		return
	}

	fmt.Printf("Plan %s\n", plan.ID)
	for day := 1; day <= mealplan.PlanDays; day++ {
		fmt.Printf("\nDay %d\n", day)
		for _, m := range plan.MealsForDay(day) {
			fmt.Printf("  %-9s %s (%.0f kcal, %.0fp/%.0fc/%.0ff)\n",
				m.Type, m.Name, m.Calories(), m.ProteinG, m.CarbsG, m.FatG)
		}
	}
	if len(plan.Snacks) > 0 {
		fmt.Printf("\nSnacks: %s\n", strings.Join(plan.Snacks, ", "))
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func printUsage() {
	fmt.Println("Usage: macro-meal-planner <command> [arguments]")
	fmt.Println("Commands:")
	fmt.Println("  plan             Generate and store a 5-day meal plan")
	fmt.Println("  revise           Revise a slot of the stored plan")
	fmt.Println("  import           Import a favorite meal from a recipe URL")
	fmt.Println("  metrics          Show recent LLM token usage")
	fmt.Println("  metrics-cleanup  Remove old metric records")
}
