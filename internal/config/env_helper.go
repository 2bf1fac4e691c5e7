package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

// Helper to get int env with default
func getEnvAsInt(key string, fallback int) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists || valueStr == "" {
		return fallback
	}
	val, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Warn().Str("key", key).Str("value", valueStr).Int("default", fallback).Msg("Invalid int in config, using default")
		return fallback
	}
	return val
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr, exists := os.LookupEnv(key)
	if !exists || valueStr == "" {
		return fallback
	}
	val, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Warn().Str("key", key).Str("value", valueStr).Bool("default", fallback).Msg("Invalid bool in config, using default")
		return fallback
	}
	return val
}

// getEnvAsDecimal returns nil when key is unset. Prices are never parsed
// through float64.
func getEnvAsDecimal(key string) (*decimal.Decimal, error) {
	valueStr, exists := os.LookupEnv(key)
	if !exists || valueStr == "" {
		return nil, nil
	}
	val, err := decimal.NewFromString(valueStr)
	if err != nil {
		return nil, fmt.Errorf("invalid decimal for %s: %w", key, err)
	}
	return &val, nil
}
