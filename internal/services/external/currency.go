package external

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	currencyNamespace = "currency"
	baseCurrency      = "RUB"
	DefaultCurrency   = "USD"
)

type rateRange struct{ lo, hi float64 }

// synthetic RUB prices per unit
var syntheticRates = map[string]rateRange{
	"USD": {70, 85},
	"EUR": {75, 90},
}

var defaultSyntheticRate = rateRange{10, 100}

// Rate is the price of one unit of Code in roubles
type Rate struct {
	Code      string
	InRUB     float64
	PerRUB    float64
	Synthetic bool
}

type exchangeResponse struct {
	Result          string             `json:"result"`
	ConversionRates map[string]float64 `json:"conversion_rates"`
}

// Currency returns the rate for code, USD when empty
func (c *Client) Currency(ctx context.Context, code string) Rate {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		code = DefaultCurrency
	}

	rates, err := c.conversionRates(ctx)
	if err != nil {
		if !errors.Is(err, ErrNotConfigured) {
			c.logger.WithError(err).WithField("currency", code).Error("Failed to get exchange rate")
		}
		return c.syntheticRate(code)
	}

	perRUB, ok := rates[code]
	if !ok || perRUB <= 0 {
		return c.syntheticRate(code)
	}
	return Rate{Code: code, InRUB: 1 / perRUB, PerRUB: perRUB}
}

// conversionRates returns how much of each currency one rouble buys
func (c *Client) conversionRates(ctx context.Context) (map[string]float64, error) {
	if v, ok := c.cache.Get(currencyNamespace, baseCurrency); ok {
		return v.(map[string]float64), nil
	}
	if c.cfg.Exchange.APIKey == "" {
		return nil, ErrNotConfigured
	}

	url := fmt.Sprintf("%s/%s/latest/%s", strings.TrimSuffix(c.cfg.Exchange.BaseURL, "/"), c.cfg.Exchange.APIKey, baseCurrency)
	var resp exchangeResponse
	if err := c.getJSON(ctx, currencyNamespace, url, &resp); err != nil {
		return nil, err
	}
	if resp.Result != "" && resp.Result != "success" {
		return nil, fmt.Errorf("exchange api result %q", resp.Result)
	}
	if len(resp.ConversionRates) == 0 {
		return nil, fmt.Errorf("exchange response has no rates")
	}

	c.cache.Set(currencyNamespace, baseCurrency, resp.ConversionRates)
	return resp.ConversionRates, nil
}

func (c *Client) syntheticRate(code string) Rate {
	r, ok := syntheticRates[code]
	if !ok {
		r = defaultSyntheticRate
	}
	inRUB := c.uniform(r.lo, r.hi)
	return Rate{Code: code, InRUB: inRUB, PerRUB: 1 / inRUB, Synthetic: true}
}
