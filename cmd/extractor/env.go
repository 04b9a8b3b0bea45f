package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/shpitdev/eventbrite-extractor/pkg/pipeline/backoff"
)

const defaultGeminiModel = "gemini-2.5-flash"

// config is everything the commands read from the environment.
type config struct {
	EventbriteAPIKey  string
	EventbriteBaseURL string

	RequestTimeout time.Duration
	MaxAttempts    int
	Backoff        backoff.Policy
	RateLimitRPS   float64
	Workers        int
	FailFast       bool

	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string
}

func loadEnv() (config, error) {
	requestTimeout, err := envDuration("REQUEST_TIMEOUT", 30*time.Second)
	if err != nil {
		return config{}, err
	}
	maxAttempts, err := envInt("MAX_ATTEMPTS", 3)
	if err != nil {
		return config{}, err
	}
	if maxAttempts < 1 {
		return config{}, fmt.Errorf("invalid MAX_ATTEMPTS=%d: must be at least 1", maxAttempts)
	}
	backoffBase, err := envDuration("BACKOFF_BASE", 2*time.Second)
	if err != nil {
		return config{}, err
	}
	backoffMax, err := envDuration("BACKOFF_MAX", 30*time.Second)
	if err != nil {
		return config{}, err
	}
	rateLimitRPS, err := envFloat("RATE_LIMIT_RPS", 0)
	if err != nil {
		return config{}, err
	}
	workers, err := envInt("WORKERS", 4)
	if err != nil {
		return config{}, err
	}
	failFast, err := envBool("FAIL_FAST")
	if err != nil {
		return config{}, err
	}

	return config{
		EventbriteAPIKey:  strings.TrimSpace(os.Getenv("EVENTBRITE_API_KEY")),
		EventbriteBaseURL: strings.TrimSpace(os.Getenv("EVENTBRITE_BASE_URL")),
		RequestTimeout:    requestTimeout,
		MaxAttempts:       maxAttempts,
		Backoff:           backoff.Policy{Initial: backoffBase, Max: backoffMax},
		RateLimitRPS:      rateLimitRPS,
		Workers:           workers,
		FailFast:          failFast,
		GeminiAPIKey:      strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiModel:       defaultString("GEMINI_MODEL", defaultGeminiModel),
		GeminiBaseURL:     strings.TrimSpace(os.Getenv("GEMINI_BASE_URL")),
	}, nil
}

// blurbBackoff spreads concurrent blurb retries; page retries stay unjittered.
func (c config) blurbBackoff() backoff.Policy {
	p := c.Backoff
	p.JitterFrac = 0.2
	return p
}

// apiKey returns the configured token, prompting without echo when it is
// unset and stdin is a terminal.
func apiKey(fromEnv string) (string, error) {
	if fromEnv != "" {
		return fromEnv, nil
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("EVENTBRITE_API_KEY is required")
	}
	_, _ = fmt.Fprint(os.Stderr, "Eventbrite API key: ")
	b, err := term.ReadPassword(fd)
	_, _ = fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read api key: %w", err)
	}
	key := strings.TrimSpace(string(b))
	if key == "" {
		return "", errors.New("EVENTBRITE_API_KEY is required")
	}
	return key, nil
}

func defaultString(varName string, fallback string) string {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return fallback
	}
	return v
}

func envInt(varName string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return fallback, nil
	}
	out, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", varName, v, err)
	}
	return out, nil
}

func envFloat(varName string, fallback float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return fallback, nil
	}
	out, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", varName, v, err)
	}
	return out, nil
}

func envDuration(varName string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return fallback, nil
	}
	out, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", varName, v, err)
	}
	return out, nil
}

func envBool(varName string) (bool, error) {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return false, nil
	}
	out, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s=%q: %w", varName, v, err)
	}
	return out, nil
}
