package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"calora/backend/internal/ai"
)

const (
	SourceAI       = "ai"
	SourceFallback = "fallback"

	defaultInsightTitle = "AI Insight"
	unavailableMessage  = "AI insights are unavailable right now."
	degradedMessage     = "AI insights are temporarily unavailable."

	insightInstructions = "You are a friendly wellness coach. Provide concise, non-medical guidance. " +
		"Return JSON only with keys: title (string), message (string), bullets (array of strings)."

	defaultInsightTokens  = 250
	defaultInsightTimeout = 20 * time.Second
)

type Insight struct {
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	Bullets     []string  `json:"bullets"`
	GeneratedAt time.Time `json:"generatedAt"`
	Source      string    `json:"source"`
}

// FallbackReason says why a degraded insight was returned. Empty means the
// insight came from the cache or the model.
type FallbackReason string

const (
	FallbackNone          FallbackReason = ""
	FallbackMissingAPIKey FallbackReason = "missing_api_key"
	FallbackStats         FallbackReason = "stats"
	FallbackTransport     FallbackReason = "transport"
	FallbackStatus        FallbackReason = "status"
	FallbackParse         FallbackReason = "parse"
)

type InsightResult struct {
	Insight  Insight
	CacheHit bool
	Fallback FallbackReason
	Err      error
}

type GeneratorConfig struct {
	Model           string
	MaxOutputTokens int
	Timeout         time.Duration
}

type InsightGenerator struct {
	svc    *Service
	cache  *InsightCache
	client ai.Client
	cfg    GeneratorConfig
}

func NewInsightGenerator(svc *Service, cache *InsightCache, client ai.Client, cfg GeneratorConfig) *InsightGenerator {
	if cfg.MaxOutputTokens <= 0 {
		cfg.MaxOutputTokens = defaultInsightTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultInsightTimeout
	}
	if cache == nil {
		cache = NewInsightCache(DefaultInsightTTL, svc.now)
	}
	return &InsightGenerator{svc: svc, cache: cache, client: client, cfg: cfg}
}

// GetInsight returns a displayable insight for the owner. The only error is
// ErrUserNotFound; every other failure is reported through Fallback.
func (g *InsightGenerator) GetInsight(ctx context.Context, ownerID string) (InsightResult, error) {
	profile, err := g.svc.profile(ctx, ownerID)
	if errors.Is(err, ErrUserNotFound) {
		return InsightResult{}, err
	}
	if err != nil {
		return g.fallback(FallbackStats, degradedMessage, err), nil
	}

	if cached, ok := g.cache.Get(ownerID); ok {
		return InsightResult{Insight: cached, CacheHit: true}, nil
	}
	if g.client == nil || !g.client.Available() {
		return g.fallback(FallbackMissingAPIKey, unavailableMessage, ai.ErrNotConfigured), nil
	}

	stats, err := g.svc.weeklyStats(ctx, ownerID, profile)
	if err != nil {
		return g.fallback(FallbackStats, degradedMessage, err), nil
	}

	// The call outlives a disconnected client so its answer still lands in the cache.
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.cfg.Timeout)
	defer cancel()
	resp, err := g.client.Complete(callCtx, ai.Request{
		Model:           g.cfg.Model,
		Instructions:    insightInstructions,
		Input:           BuildInsightPrompt(stats),
		MaxOutputTokens: g.cfg.MaxOutputTokens,
	})
	if err != nil {
		var statusErr *ai.StatusError
		if errors.As(err, &statusErr) {
			return g.fallback(FallbackStatus, degradedMessage, err), nil
		}
		return g.fallback(FallbackTransport, degradedMessage, err), nil
	}

	insight, err := ParseInsight(resp.Text)
	if err != nil {
		return g.fallback(FallbackParse, degradedMessage, err), nil
	}
	insight.GeneratedAt = g.svc.Now()
	insight.Source = SourceAI
	g.cache.Put(ownerID, insight)
	return InsightResult{Insight: insight}, nil
}

func (g *InsightGenerator) fallback(reason FallbackReason, message string, err error) InsightResult {
	return InsightResult{
		Insight: Insight{
			Title:       defaultInsightTitle,
			Message:     message,
			Bullets:     []string{},
			GeneratedAt: g.svc.Now(),
			Source:      SourceFallback,
		},
		Fallback: reason,
		Err:      err,
	}
}

// BuildInsightPrompt renders the weekly stats into the model input. The same
// stats always give the same prompt.
func BuildInsightPrompt(stats WeeklyStats) string {
	goal := "Not set"
	if stats.Profile.Goal != nil {
		goal = *stats.Profile.Goal
	}
	weight := "Unknown"
	if stats.Profile.WeightKg != nil {
		weight = fmt.Sprintf("%.1f", *stats.Profile.WeightKg)
	}
	avg := stats.Average

	var b strings.Builder
	fmt.Fprintf(&b, "User goal: %s. ", goal)
	fmt.Fprintf(&b, "Current weight (kg): %s. ", weight)
	fmt.Fprintf(&b, "Daily calorie target: %d kcal. ", stats.DailyTarget)
	fmt.Fprintf(&b, "Last 7 days averages: %d kcal consumed/day, %d kcal burned/day, %dg protein/day, %dg carbs/day, %dg fats/day. ",
		avg.Consumed, avg.Burned, avg.Protein, avg.Carbs, avg.Fats)
	fmt.Fprintf(&b, "Days over target: %d. ", stats.DaysOverTarget)
	fmt.Fprintf(&b, "Days with meals logged: %d. ", stats.DaysLoggedMeals)
	fmt.Fprintf(&b, "Days with activity logged: %d. ", stats.DaysLoggedActivity)
	fmt.Fprintf(&b, "Most frequent activity: %s. ", stats.TopActivity)
	b.WriteString("Provide a concise insight with 1 short message and 2-3 bullet tips.")
	return b.String()
}

var errInsightShape = errors.New("insight response is not a {title, message, bullets} object")

// ParseInsight reads the model text as a JSON insight, tolerating a markdown
// code fence around it. A missing title becomes "AI Insight"; a missing
// message is an error.
func ParseInsight(text string) (Insight, error) {
	raw := stripCodeFence(text)
	if raw == "" {
		return Insight{}, errInsightShape
	}
	var payload struct {
		Title   any `json:"title"`
		Message any `json:"message"`
		Bullets any `json:"bullets"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return Insight{}, fmt.Errorf("%w: %v", errInsightShape, err)
	}
	message, _ := payload.Message.(string)
	message = strings.TrimSpace(message)
	if message == "" {
		return Insight{}, errInsightShape
	}
	title, _ := payload.Title.(string)
	title = strings.TrimSpace(title)
	if title == "" {
		title = defaultInsightTitle
	}
	bullets := []string{}
	if items, ok := payload.Bullets.([]any); ok {
		for _, item := range items {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				bullets = append(bullets, strings.TrimSpace(s))
			}
		}
	}
	return Insight{Title: title, Message: message, Bullets: bullets}, nil
}

func stripCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if newline := strings.IndexByte(trimmed, '\n'); newline >= 0 {
		trimmed = trimmed[newline+1:]
	} else {
		trimmed = strings.TrimPrefix(trimmed, "json")
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
