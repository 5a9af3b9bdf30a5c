package external

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

const weatherNamespace = "weather"

// SyntheticConditions are used when the weather API is unavailable
var SyntheticConditions = []string{"солнечно ☀️", "дождливо 🌧️", "облачно ☁️", "снег ❄️", "туман 🌫️"}

// Synthetic temperature range, inclusive
const (
	MinSyntheticTemp = -20
	MaxSyntheticTemp = 35
)

// Weather is the current weather in a city
type Weather struct {
	City        string
	Temp        float64
	Description string
	Humidity    int
	Synthetic   bool
}

type weatherResponse struct {
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity int     `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
}

// Weather returns the weather for city, or for the default city when empty
func (c *Client) Weather(ctx context.Context, city string) Weather {
	city = strings.TrimSpace(city)
	if city == "" {
		city = c.cfg.Weather.DefaultCity
	}

	if v, ok := c.cache.Get(weatherNamespace, city); ok {
		return v.(Weather)
	}

	w, err := c.fetchWeather(ctx, city)
	if err != nil {
		if !errors.Is(err, ErrNotConfigured) {
			c.logger.WithError(err).WithField("city", city).Error("Failed to get weather")
		}
		return c.syntheticWeather(city)
	}

	c.cache.Set(weatherNamespace, city, w)
	return w
}

func (c *Client) fetchWeather(ctx context.Context, city string) (Weather, error) {
	if c.cfg.Weather.APIKey == "" {
		return Weather{}, ErrNotConfigured
	}

	params := url.Values{}
	params.Set("q", city)
	params.Set("appid", c.cfg.Weather.APIKey)
	params.Set("units", "metric")
	params.Set("lang", "ru")

	var resp weatherResponse
	if err := c.getJSON(ctx, weatherNamespace, c.cfg.Weather.BaseURL+"?"+params.Encode(), &resp); err != nil {
		return Weather{}, err
	}
	if len(resp.Weather) == 0 {
		return Weather{}, fmt.Errorf("weather response has no conditions")
	}

	return Weather{
		City:        city,
		Temp:        resp.Main.Temp,
		Description: resp.Weather[0].Description,
		Humidity:    resp.Main.Humidity,
	}, nil
}

func (c *Client) syntheticWeather(city string) Weather {
	return Weather{
		City:        city,
		Temp:        float64(MinSyntheticTemp + c.intn(MaxSyntheticTemp-MinSyntheticTemp+1)),
		Description: SyntheticConditions[c.intn(len(SyntheticConditions))],
		Synthetic:   true,
	}
}
