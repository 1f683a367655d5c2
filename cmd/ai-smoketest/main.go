package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	aicore "github.com/stake-plus/mmr-scorecard/src/ai/core"
	_ "github.com/stake-plus/mmr-scorecard/src/ai/providers"
	"github.com/stake-plus/mmr-scorecard/src/config"
	"github.com/stake-plus/mmr-scorecard/src/dataset"
	"github.com/stake-plus/mmr-scorecard/src/mmr"
)

var (
	providersFlag = flag.String("providers", "canned", "Comma-separated provider list or 'all'")
	modeFlag      = flag.String("mode", "respond", "respond|qa|both")
	systemFlag    = flag.String("system", "", "Override system prompt")
	modelFlag     = flag.String("model", "", "Override model name")
	promptFlag    = flag.String("prompt", defaultPrompt, "User prompt for respond mode")
	profileFlag   = flag.String("profile", "Yair Golan", "Profile used as reference material in qa mode")
	questionFlag  = flag.String("question", defaultQuestion, "Question for qa mode")
	timeoutFlag   = flag.Duration("timeout", 45*time.Second, "Per-provider timeout")
	tempFlag      = flag.Float64("temp", 0.2, "Completion temperature")
	maxLenFlag    = flag.Int("max-bytes", 1200, "Maximum bytes of output to print per response (0=unlimited)")
)

var allProviders = []string{"canned", "anthropic", "openai"}

func main() {
	log.SetFlags(0)
	flag.Parse()
	if err := config.LoadEnv(); err != nil {
		log.Fatalf("load .env: %v", err)
	}

	providers := resolveProviders(*providersFlag)
	if len(providers) == 0 {
		log.Fatal("no providers specified")
	}
	mode, err := parseMode(*modeFlag)
	if err != nil {
		log.Fatalf("invalid mode: %v", err)
	}

	catalog := dataset.NewCatalog(mmr.DefaultEngine(), dataset.Default().Profiles)
	aiEnv := config.LoadAIConfig()
	for _, provider := range providers {
		if err := runProvider(provider, mode, aiEnv, catalog); err != nil {
			log.Printf("[%s] ERROR: %v", provider, err)
		}
	}
}

func runProvider(provider string, mode runMode, aiEnv config.AIConfig, catalog *dataset.Catalog) error {
	client, err := aicore.NewClient(aicore.FactoryConfig{
		Provider:     provider,
		SystemPrompt: pickFirst(*systemFlag, aiEnv.SystemPrompt),
		Model:        pickFirst(*modelFlag, aiEnv.Model),
		Temperature:  *tempFlag,
		OpenAIKey:    aiEnv.OpenAIKey,
		ClaudeKey:    aiEnv.ClaudeKey,
		Catalog:      catalog,
	})
	if err != nil {
		return fmt.Errorf("client init: %w", err)
	}

	fmt.Printf("=== %s (%s) ===\n", provider, client.Model())
	if mode == modeRespond || mode == modeBoth {
		if err := executeRespondTest(client); err != nil {
			fmt.Printf("respond ❌ %v\n", err)
		}
	}
	if mode == modeQA || mode == modeBoth {
		if err := executeQATest(client, catalog); err != nil {
			fmt.Printf("qa ❌ %v\n", err)
		}
	}
	return nil
}

func executeRespondTest(client aicore.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), *timeoutFlag)
	defer cancel()

	start := time.Now()
	reply, err := client.Respond(ctx, *promptFlag, nil, aicore.Options{})
	if err != nil {
		return err
	}
	fmt.Printf("respond ✅ (%.1fs)\n%s\n", time.Since(start).Seconds(), truncate(reply, *maxLenFlag))
	return nil
}

func executeQATest(client aicore.Client, catalog *dataset.Catalog) error {
	entry, err := catalog.Find(*profileFlag)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), *timeoutFlag)
	defer cancel()

	start := time.Now()
	reply, err := client.AnswerQuestion(ctx, aicore.Grounding(entry), *questionFlag, aicore.Options{})
	if err != nil {
		return err
	}
	fmt.Printf("qa ✅ (%.1fs)\n%s\n", time.Since(start).Seconds(), truncate(reply, *maxLenFlag))
	return nil
}

func resolveProviders(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if strings.EqualFold(raw, "all") {
		return append([]string{}, allProviders...)
	}
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == ';'
	})
	var out []string
	seen := map[string]struct{}{}
	for _, p := range parts {
		key := strings.ToLower(strings.TrimSpace(p))
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	return out
}

func pickFirst(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func parseMode(input string) (runMode, error) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "respond":
		return modeRespond, nil
	case "qa":
		return modeQA, nil
	case "both":
		return modeBoth, nil
	default:
		return modeRespond, errors.New("expected respond, qa, or both")
	}
}

func truncate(text string, limit int) string {
	if limit <= 0 || len(text) <= limit {
		return strings.TrimSpace(text)
	}
	return strings.TrimSpace(text[:limit]) + "...(truncated)"
}

type runMode int

const (
	modeRespond runMode = iota
	modeQA
	modeBoth
)

const (
	defaultPrompt   = "How should solidarity with Palestinians and Israelis be practised together?"
	defaultQuestion = "Which pillars does this profile pass, and which keep it from a higher outcome?"
)
