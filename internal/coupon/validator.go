package coupon

import (
	"context"
	"fmt"
	"sync"

	"cartsync/internal/model"

	"github.com/rs/zerolog"
)

// validator implements Validator with concurrent coupon file lookups.
// Coupon sets are read-only after initialization, so no locking is needed.
type validator struct {
	couponSets []CouponSet
	minMatch   int
	logger     zerolog.Logger
}

// ValidatorConfig holds configuration for the coupon validator.
type ValidatorConfig struct {
	// FilePaths is the list of coupon file paths to load.
	FilePaths []string

	// MinMatchCount is the minimum number of files a code must appear in.
	// Default: 2
	MinMatchCount int
}

// DefaultValidatorConfig returns the default validator configuration.
func DefaultValidatorConfig() *ValidatorConfig {
	return &ValidatorConfig{
		FilePaths: []string{
			"data/coupons/couponbase1.gz",
			"data/coupons/couponbase2.gz",
			"data/coupons/couponbase3.gz",
		},
		MinMatchCount: 2,
	}
}

// NewValidator creates a new coupon validator. All coupon files are loaded
// concurrently at initialization time; a single failed file fails the whole
// validator.
func NewValidator(ctx context.Context, config *ValidatorConfig, loader Loader, logger zerolog.Logger) (Validator, error) {
	if config == nil {
		config = DefaultValidatorConfig()
	}
	minMatch := config.MinMatchCount
	if minMatch < 1 {
		minMatch = 2
	}

	logger = logger.With().Str("component", "coupon-validator").Logger()

	logger.Info().
		Int("file_count", len(config.FilePaths)).
		Int("min_match_count", minMatch).
		Msg("initialising coupon validator")

	v := &validator{
		couponSets: make([]CouponSet, 0, len(config.FilePaths)),
		minMatch:   minMatch,
		logger:     logger,
	}

	type loadResult struct {
		index int
		set   CouponSet
		err   error
	}

	resultChan := make(chan loadResult, len(config.FilePaths))
	var wg sync.WaitGroup

	for i, filePath := range config.FilePaths {
		wg.Add(1)
		go func(index int, path string) {
			defer wg.Done()

			set, err := loader.Load(ctx, path)
			resultChan <- loadResult{
				index: index,
				set:   set,
				err:   err,
			}
		}(i, filePath)
	}

	wg.Wait()
	close(resultChan)

	// Collect results in file order, not completion order.
	results := make([]loadResult, len(config.FilePaths))
	for result := range resultChan {
		results[result.index] = result
	}

	for i, result := range results {
		if result.err != nil {
			logger.Error().
				Err(result.err).
				Str("file", config.FilePaths[i]).
				Msg("failed to load coupon file")
			return nil, fmt.Errorf("failed to load coupon file %s: %w", config.FilePaths[i], result.err)
		}
		v.couponSets = append(v.couponSets, result.set)
		logger.Info().
			Str("file", config.FilePaths[i]).
			Int("size", result.set.Size()).
			Msg("coupon file loaded")
	}

	totalCoupons := 0
	for _, set := range v.couponSets {
		totalCoupons += set.Size()
	}

	logger.Info().
		Int("total_coupons", totalCoupons).
		Msg("coupon validator initialised successfully")

	return v, nil
}

// Validate checks if a promo code is valid: 8 to 10 characters long and
// present in at least minMatch coupon files.
func (v *validator) Validate(ctx context.Context, promoCode string) error {
	if len(promoCode) < 8 || len(promoCode) > 10 {
		v.logger.Debug().
			Str("promo_code", promoCode).
			Int("length", len(promoCode)).
			Msg("promo code length invalid")
		return model.ErrInvalidPromoLength
	}

	matchCount := v.countMatches(ctx, promoCode)

	if matchCount < v.minMatch {
		v.logger.Debug().
			Str("promo_code", promoCode).
			Int("match_count", matchCount).
			Msg("promo code not found in sufficient files")
		return model.ErrInvalidPromoCode
	}

	v.logger.Debug().
		Str("promo_code", promoCode).
		Int("match_count", matchCount).
		Msg("promo code validated successfully")

	return nil
}

// countMatches counts how many coupon files contain the given promo code,
// checking files concurrently and terminating early once the threshold is
// reached or can no longer be reached.
func (v *validator) countMatches(ctx context.Context, promoCode string) int {
	// Buffered so workers never block after an early return.
	resultChan := make(chan bool, len(v.couponSets))
	doneChan := make(chan struct{})
	defer close(doneChan)

	for _, set := range v.couponSets {
		go func(s CouponSet) {
			select {
			case <-doneChan:
				return
			case <-ctx.Done():
				return
			default:
			}

			found := s.Contains(promoCode)

			select {
			case resultChan <- found:
			case <-doneChan:
				return
			case <-ctx.Done():
				return
			}
		}(set)
	}

	matches := 0
	checked := 0

	for checked < len(v.couponSets) {
		select {
		case found := <-resultChan:
			checked++
			if found {
				matches++
				if matches >= v.minMatch {
					return matches
				}
			}
			remaining := len(v.couponSets) - checked
			if matches+remaining < v.minMatch {
				return matches
			}
		case <-ctx.Done():
			return matches
		}
	}

	return matches
}

// Close releases resources held by the validator.
func (v *validator) Close() error {
	v.couponSets = nil

	v.logger.Info().Msg("coupon validator closed")

	return nil
}
