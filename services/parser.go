package services

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dev-jujucollins/ebay-tracker/utils"
)

var (
	// priceValueRegexp captures the first numeric value in a token
	priceValueRegexp = regexp.MustCompile(`[\d,]+(?:\.\d+)?`)
	// rangeSeparatorRegexp splits "low to high" price ranges
	rangeSeparatorRegexp = regexp.MustCompile(`\s+to\s+`)
)

// Reject reasons. A rejected token is dropped from the batch, never coerced
// and never fatal to the page.
var (
	ErrNotNumeric   = errors.New("no numeric value in token")
	ErrNonPositive  = errors.New("zero or negative price")
	ErrAboveCeiling = errors.New("price above configured ceiling")
)

// PriceParser converts raw listing tokens ("$1,299.00", "£45 to £60") into
// price samples.
type PriceParser struct {
	ceiling float64 // 0 disables the unit-error guard
	logger  *utils.Logger
}

// NewPriceParser creates a PriceParser. A positive ceiling discards values
// above it, guarding against unit errors like a price scraped in cents.
func NewPriceParser(ceiling float64, logger *utils.Logger) *PriceParser {
	return &PriceParser{ceiling: ceiling, logger: logger}
}

// Parse converts one raw listing token into a price sample. Currency symbols
// and thousands separators are stripped; a "low to high" range yields the
// midpoint of its bounds. The returned error is the reject reason.
func (p *PriceParser) Parse(token string) (float64, error) {
	t := strings.ToLower(strings.TrimSpace(token))
	if t == "" {
		return 0, ErrNotNumeric
	}

	if parts := rangeSeparatorRegexp.Split(t, 2); len(parts) == 2 {
		low, err := parseValue(parts[0])
		if err != nil {
			return 0, fmt.Errorf("range low bound: %w", err)
		}
		high, err := parseValue(parts[1])
		if err != nil {
			return 0, fmt.Errorf("range high bound: %w", err)
		}
		return p.validate((low + high) / 2)
	}

	v, err := parseValue(t)
	if err != nil {
		return 0, err
	}
	return p.validate(v)
}

// ParseAll parses a batch of tokens, dropping rejects. One bad token never
// aborts the batch.
func (p *PriceParser) ParseAll(tokens []string) []float64 {
	samples := make([]float64, 0, len(tokens))
	for _, token := range tokens {
		v, err := p.Parse(token)
		if err != nil {
			p.logger.Debug("[parser] dropped token %q: %v", token, err)
			continue
		}
		samples = append(samples, v)
	}
	return samples
}

func parseValue(s string) (float64, error) {
	cleaned := strings.ReplaceAll(s, ",", "")
	match := priceValueRegexp.FindString(cleaned)
	if match == "" {
		return 0, ErrNotNumeric
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, ErrNotNumeric
	}
	return v, nil
}

func (p *PriceParser) validate(v float64) (float64, error) {
	if v <= 0 {
		return 0, ErrNonPositive
	}
	if p.ceiling > 0 && v > p.ceiling {
		return 0, ErrAboveCeiling
	}
	return v, nil
}
