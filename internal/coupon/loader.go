package coupon

import (
	"bufio"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// initialSetCapacity pre-sizes the coupon set to reduce map growth while
// streaming large files.
const initialSetCapacity = 1 << 20

// fileLoader implements Loader for reading gzipped coupon files.
type fileLoader struct {
	logger zerolog.Logger
}

// NewFileLoader creates a new file-based coupon loader.
func NewFileLoader(logger zerolog.Logger) Loader {
	return &fileLoader{
		logger: logger.With().Str("component", "coupon-loader").Logger(),
	}
}

// Load reads a gzipped coupon file, one code per line, and returns a CouponSet.
func (l *fileLoader) Load(ctx context.Context, filePath string) (CouponSet, error) {
	l.logger.Info().Str("file", filePath).Msg("loading coupon file")

	file, err := os.Open(filePath)
	if err != nil {
		l.logger.Error().Err(err).Str("file", filePath).Msg("failed to open coupon file")
		return nil, fmt.Errorf("failed to open coupon file %s: %w", filePath, err)
	}
	defer file.Close()

	gzipReader, err := gzip.NewReader(file)
	if err != nil {
		l.logger.Error().Err(err).Str("file", filePath).Msg("failed to create gzip reader")
		return nil, fmt.Errorf("failed to create gzip reader for %s: %w", filePath, err)
	}
	defer gzipReader.Close()

	set, err := readCouponLines(ctx, gzipReader, func() {
		l.logger.Warn().Str("file", filePath).Msg("coupon loading cancelled")
	})
	if err != nil {
		if err == ctx.Err() {
			return nil, err
		}
		l.logger.Error().Err(err).Str("file", filePath).Msg("error reading coupon file")
		return nil, fmt.Errorf("error reading coupon file %s: %w", filePath, err)
	}

	l.logger.Info().
		Str("file", filePath).
		Int("coupons_loaded", set.Size()).
		Msg("coupon file loaded successfully")

	return set, nil
}

// readCouponLines streams codes line by line into a set, checking context
// cancellation periodically so a huge file cannot pin the loader.
func readCouponLines(ctx context.Context, r io.Reader, onCancel func()) (*mapCouponSet, error) {
	set := NewMapCouponSet(initialSetCapacity).(*mapCouponSet)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	lineCount := 0
	for scanner.Scan() {
		if lineCount%1_000_000 == 0 {
			select {
			case <-ctx.Done():
				onCancel()
				return nil, ctx.Err()
			default:
			}
		}

		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			set.Add(line)
			lineCount++
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return set, nil
}
