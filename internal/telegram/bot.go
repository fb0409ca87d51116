package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"macro-meal-planner/internal/config"
	"macro-meal-planner/internal/favorites"
	"macro-meal-planner/internal/llm"
	"macro-meal-planner/internal/mealplan"
	"macro-meal-planner/internal/metrics"
	"macro-meal-planner/internal/nutrition"
	"macro-meal-planner/internal/planner"
	"macro-meal-planner/internal/shared"
	"macro-meal-planner/internal/storage"
)

// Bot wraps the Telegram API around the plan generator, the plan store, and
// the favorites importer. A Planner is built per request so its progress
// hook can edit that request's status message.
type Bot struct {
	api          *tgbotapi.BotAPI
	chat         llm.ChatGenerator
	repo         *storage.Repository
	metricsStore *metrics.Store
	importer     *favorites.Importer
	cfg          *config.Config
	logger       *slog.Logger
}

// NewBot initializes the Telegram bot and registers the webhook.
func NewBot(
	cfg *config.Config,
	chat llm.ChatGenerator,
	repo *storage.Repository,
	metricsStore *metrics.Store,
	importer *favorites.Importer,
	logger *slog.Logger,
) (*Bot, error) {
	if logger == nil {
		logger = slog.Default()
	}

	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}
	logger.Info("telegram bot authorized", "account", api.Self.UserName)

	wh, err := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
	if err != nil {
		return nil, fmt.Errorf("failed to build webhook config: %w", err)
	}
	resp, err := api.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
	}
	logger.Info("telegram webhook set", "response", resp.Description)

	return &Bot{
		api:          api,
		chat:         chat,
		repo:         repo,
		metricsStore: metricsStore,
		importer:     importer,
		cfg:          cfg,
		logger:       logger,
	}, nil
}

// RegisterHandlers registers the webhook handler with the default HTTP mux.
func (b *Bot) RegisterHandlers() {
	http.HandleFunc("/webhook", b.handleWebhook)
	http.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	update, err := b.api.HandleUpdate(r)
	if err != nil {
		b.logger.Error("failed to parse telegram update", "error", err)
		return
	}
	if update.Message == nil {
		return
	}

	allowed := false
	for _, id := range b.cfg.AllowedUserIDs() {
		if update.Message.From.ID == id {
			allowed = true
			break
		}
	}
	if !allowed {
		b.logger.Warn("unauthorized telegram message",
			"user_id", update.Message.From.ID,
			"username", update.Message.From.UserName)
		return
	}

	go b.processMessage(update.Message)
}

func (b *Bot) processMessage(msg *tgbotapi.Message) {
	text := strings.TrimSpace(msg.Text)

	switch {
	case text == "/metrics":
		b.handleMetricsRequest(msg)
	case strings.HasPrefix(text, "/revise"):
		b.handleRevisionRequest(msg)
	case strings.HasPrefix(text, "http://") || strings.HasPrefix(text, "https://"):
		b.handleImportRequest(msg)
	default:
		b.handlePlanRequest(msg)
	}
}

func (b *Bot) handlePlanRequest(msg *tgbotapi.Message) {
	sent, err := b.sendMarkdown(msg.Chat.ID, "🧑‍🍳 *Thinking...* \n(Generating your 5-day plan)")
	if err != nil {
		b.logger.Error("failed to send initial reply", "error", err)
		return
	}

	ctx := context.Background()
	userID := strconv.FormatInt(msg.From.ID, 10)
	conversationID := strconv.FormatInt(msg.Chat.ID, 10)
	profile := profileFromRequest(userID, msg.Text)

	progress := func(ev planner.ProgressEvent) {
		if ev.Progress >= 100 {
			return
		}
		b.editMarkdown(msg.Chat.ID, sent.MessageID,
			fmt.Sprintf("🧑‍🍳 *Working...* %d%%\n%s", ev.Progress, ev.Message))
	}
	run := planner.NewPlanner(b.chat, progress, b.logger)

	plan, metas, err := run.GeneratePlan(ctx, profile)
	b.recordMetas(ctx, metas)

	if err != nil {
		b.logger.Error("plan generation failed", "user_id", userID, "error", err)
		b.editMarkdown(msg.Chat.ID, sent.MessageID, errorText("Error generating plan", err))
		return
	}

	if err := b.repo.StoreMealPlan(ctx, userID, conversationID, plan); err != nil {
		b.logger.Warn("failed to store plan", "user_id", userID, "error", err)
	}

	b.editMarkdown(msg.Chat.ID, sent.MessageID, formatPlanMarkdown(plan))
}

var reviseRe = regexp.MustCompile(`^/revise\s+(\d+)\s+(breakfast|lunch|dinner)\s+(.+)$`)

func (b *Bot) handleRevisionRequest(msg *tgbotapi.Message) {
	m := reviseRe.FindStringSubmatch(strings.TrimSpace(msg.Text))
	if m == nil {
		b.sendMarkdown(msg.Chat.ID, "Usage: `/revise <day> <breakfast|lunch|dinner> <what to change>`")
		return
	}
	day, _ := strconv.Atoi(m[1])

	ctx := context.Background()
	userID := strconv.FormatInt(msg.From.ID, 10)
	conversationID := strconv.FormatInt(msg.Chat.ID, 10)

	plan, err := b.repo.GetMealPlan(ctx, userID, conversationID)
	if err != nil {
		b.sendMarkdown(msg.Chat.ID, "No stored plan to revise. Send a plan request first.")
		return
	}

	sent, err := b.sendMarkdown(msg.Chat.ID, "🔁 *Revising...*")
	if err != nil {
		b.logger.Error("failed to send initial reply", "error", err)
		return
	}

	reqs := []planner.RevisionRequest{{Day: day, MealType: mealplan.MealType(m[2]), Change: m[3]}}
	run := planner.NewPlanner(b.chat, nil, b.logger)
	revised, metas, err := run.RevisePlan(ctx, plan, reqs, profileFromRequest(userID, ""))
	b.recordMetas(ctx, metas)

	if err != nil {
		b.logger.Error("plan revision failed", "user_id", userID, "error", err)
		b.editMarkdown(msg.Chat.ID, sent.MessageID, errorText("Error revising plan", err))
		return
	}

	if err := b.repo.StoreMealPlan(ctx, userID, conversationID, revised); err != nil {
		b.logger.Warn("failed to store revised plan", "user_id", userID, "error", err)
	}

	b.editMarkdown(msg.Chat.ID, sent.MessageID, formatPlanMarkdown(revised))
}

func (b *Bot) handleImportRequest(msg *tgbotapi.Message) {
	sent, err := b.sendMarkdown(msg.Chat.ID, "✂️ *Importing recipe...*")
	if err != nil {
		b.logger.Error("failed to send initial reply", "error", err)
		return
	}

	meal, err := b.importer.ImportURL(context.Background(), msg.Text)
	if err != nil {
		b.logger.Error("favorite import failed", "error", err)
		b.editMarkdown(msg.Chat.ID, sent.MessageID, errorText("Error importing recipe", err))
		return
	}

	b.editMarkdown(msg.Chat.ID, sent.MessageID, fmt.Sprintf(
		"✅ *Imported: %s*\n%s\nMacros per serving: %.0fg protein / %.0fg carbs / %.0fg fat (%.0f kcal)\n\nMention it in your next plan request to include it.",
		meal.Name, meal.Description, meal.ProteinG, meal.CarbsG, meal.FatG, meal.Calories()))
}

func (b *Bot) handleMetricsRequest(msg *tgbotapi.Message) {
	if msg.From.ID != b.cfg.AdminTelegramID {
		b.sendMarkdown(msg.Chat.ID, "⛔ *Access Denied*: Admin only.")
		return
	}

	usage, err := b.metricsStore.GetDailyUsage(context.Background(), 7)
	if err != nil {
		b.sendMarkdown(msg.Chat.ID, "❌ Error fetching metrics.")
		return
	}

	health := metrics.GetSysHealth("data")

	var sb strings.Builder
	sb.WriteString("📊 *Usage & Health Report*\n\n")
	sb.WriteString("🗓 *Recent LLM Activity*\n")
	if len(usage) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range usage {
		sb.WriteString(fmt.Sprintf("• *%s*: %d tokens (%d execs)\n",
			d.Date, d.TotalPrompt+d.TotalCompletion, d.TotalExecution))
	}
	sb.WriteString("\n🧠 *System Health*\n")
	sb.WriteString(fmt.Sprintf("• RAM: %dMB (Alloc) / %dMB (Sys)\n", health.AllocMB, health.SysMB))
	sb.WriteString(fmt.Sprintf("• Goroutines: %d\n", health.Goroutines))
	sb.WriteString(fmt.Sprintf("• Uptime: %s\n", health.Uptime))
	sb.WriteString(fmt.Sprintf("• Disk Data: %s\n", health.DataDiskSize))

	b.sendMarkdown(msg.Chat.ID, sb.String())
}

func (b *Bot) recordMetas(ctx context.Context, metas []shared.AgentMeta) {
	var total shared.TokenUsage
	for _, m := range metas {
		total = total.Add(m.Usage)
		if err := b.metricsStore.RecordMeta(ctx, m); err != nil {
			b.logger.Warn("failed to record metric", "agent", m.AgentName, "error", err)
		}
	}
	b.logger.Info("recorded model usage", "calls", len(metas), "total_tokens", total.TotalTokens)
}

func (b *Bot) sendMarkdown(chatID int64, text string) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"
	return b.api.Send(msg)
}

func (b *Bot) editMarkdown(chatID int64, messageID int, text string) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = "Markdown"
	if _, err := b.api.Send(edit); err != nil {
		b.logger.Warn("failed to edit telegram message", "error", err)
	}
}

func errorText(prefix string, err error) string {
	safe := strings.ReplaceAll(err.Error(), "`", "'")
	return fmt.Sprintf("❌ *%s:*\n```\n%s\n```", prefix, safe)
}

var (
	calorieRe = regexp.MustCompile(`(\d{3,5})\s*(?:k?cal|calories)`)
	splitRe   = regexp.MustCompile(`\b(\d{2})/(\d{2})/(\d{2})\b`)
)

// profileFromRequest derives a nutrition profile from a free-text request
// with light keyword heuristics. Anything unspecified falls back to
// defaults.
func profileFromRequest(userID, text string) nutrition.Profile {
	lower := strings.ToLower(text)

	profile := nutrition.Profile{
		UserID:          userID,
		Goal:            "maintenance",
		Portions:        1,
		WeekdayCalories: 2000,
	}

	if m := calorieRe.FindStringSubmatch(lower); m != nil {
		if kcal, err := strconv.ParseFloat(m[1], 64); err == nil && kcal >= 1000 {
			profile.WeekdayCalories = kcal
		}
	}
	if m := splitRe.FindString(lower); m != "" {
		profile.MacroSplit = m
	}

	switch {
	case strings.Contains(lower, "lose") || strings.Contains(lower, "cut") || strings.Contains(lower, "deficit"):
		profile.Goal = "weight loss"
	case strings.Contains(lower, "gain") || strings.Contains(lower, "bulk") || strings.Contains(lower, "muscle"):
		profile.Goal = "muscle gain"
	}

	for _, r := range []string{"vegan", "vegetarian", "gluten-free", "gluten free", "dairy-free", "dairy free", "lactose"} {
		if strings.Contains(lower, r) {
			profile.Restrictions = append(profile.Restrictions, r)
		}
	}

	return profile
}

// formatPlanMarkdown renders a plan as a Telegram Markdown message.
func formatPlanMarkdown(plan *mealplan.MealPlan) string {
	var sb strings.Builder
	sb.WriteString("📅 *Your 5-Day Meal Plan*\n")

	for day := 1; day <= mealplan.PlanDays; day++ {
		meals := plan.MealsForDay(day)
		if len(meals) == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("\n*Day %d*\n", day))
		for _, m := range meals {
			sb.WriteString(fmt.Sprintf("• _%s_: %s (%.0f kcal, %.0fp/%.0fc/%.0ff)\n",
				m.Type, m.Name, m.Calories(), m.ProteinG, m.CarbsG, m.FatG))
		}
	}

	if len(plan.Snacks) > 0 {
		sb.WriteString("\n🍎 *Snacks*: " + strings.Join(plan.Snacks, ", ") + "\n")
	}

	sb.WriteString("\nRevise a slot with `/revise <day> <meal> <change>`.")
	return sb.String()
}
