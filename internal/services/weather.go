package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"time"

	"memphis-weekend-events/internal/dates"
	"memphis-weekend-events/internal/models"
)

const oneCallBaseURL = "https://api.openweathermap.org/data/3.0/onecall"

// oneCallResponse is the subset of the One Call 3.0 payload we consume.
type oneCallResponse struct {
	Timezone string `json:"timezone"`
	Hourly   []struct {
		Dt        int64   `json:"dt"`
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Pop       float64 `json:"pop"` // probability 0..1
		Humidity  int     `json:"humidity"`
		UVI       float64 `json:"uvi"`
		WindSpeed float64 `json:"wind_speed"`
		Weather   []struct {
			Main        string `json:"main"`
			Description string `json:"description"`
		} `json:"weather"`
	} `json:"hourly"`
	Daily []struct {
		Dt   int64 `json:"dt"`
		Temp struct {
			Min float64 `json:"min"`
			Max float64 `json:"max"`
		} `json:"temp"`
		Pop       float64 `json:"pop"`
		Humidity  int     `json:"humidity"`
		WindSpeed float64 `json:"wind_speed"`
		Weather   []struct {
			Main        string `json:"main"`
			Description string `json:"description"`
		} `json:"weather"`
	} `json:"daily"`
}

// OpenWeatherClient fetches and normalizes forecasts from the One Call API.
type OpenWeatherClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	latitude   float64
	longitude  float64
	location   *time.Location
}

// NewOpenWeatherClient creates a weather client for fixed coordinates.
func NewOpenWeatherClient(apiKey string, lat, lon float64) *OpenWeatherClient {
	loc, err := time.LoadLocation(dates.Timezone)
	if err != nil {
		loc = time.UTC
	}
	return &OpenWeatherClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    oneCallBaseURL,
		apiKey:     apiKey,
		latitude:   lat,
		longitude:  lon,
		location:   loc,
	}
}

// FetchForecasts pulls the forecast and builds one DailyForecast per target
// date that the API covers. Dates beyond the hourly horizon still get a
// daily row with empty hourly data.
func (w *OpenWeatherClient) FetchForecasts(ctx context.Context, weekend dates.WeekendDates) ([]models.DailyForecast, error) {
	url := fmt.Sprintf("%s?lat=%.4f&lon=%.4f&appid=%s&units=imperial&exclude=current,minutely,alerts",
		w.baseURL, w.latitude, w.longitude, w.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &WeatherFetchError{Message: "failed to create request", Cause: err}
	}

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return nil, &WeatherFetchError{Message: "request failed", Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &WeatherFetchError{Message: "failed to read response", Cause: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &WeatherFetchError{
			StatusCode: resp.StatusCode,
			Message:    truncate(string(body), 200),
		}
	}

	var payload oneCallResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &WeatherFetchError{Message: "malformed forecast payload", Cause: err}
	}

	fetchedAt := time.Now()
	var forecasts []models.DailyForecast
	for _, date := range weekend.Dates() {
		daily, found := w.buildDaily(&payload, date, fetchedAt)
		if !found {
			log.Printf("[WEATHER] no daily entry for %s, skipping", date)
			continue
		}
		forecasts = append(forecasts, daily)
	}

	log.Printf("[WEATHER] fetched %d daily forecasts", len(forecasts))
	return forecasts, nil
}

// buildDaily locates the daily entry matching the target date and collects
// the hourly entries falling on that local calendar date.
func (w *OpenWeatherClient) buildDaily(payload *oneCallResponse, date string, fetchedAt time.Time) (models.DailyForecast, bool) {
	for _, d := range payload.Daily {
		localDate := time.Unix(d.Dt, 0).In(w.location).Format(dates.DateFormat)
		if localDate != date {
			continue
		}

		conditions := ""
		if len(d.Weather) > 0 {
			conditions = d.Weather[0].Description
		}

		forecast := models.DailyForecast{
			ForecastDate:        date,
			DayName:             dates.DayNameFor(date),
			TempHigh:            roundF(d.Temp.Max),
			TempLow:             roundF(d.Temp.Min),
			Conditions:          conditions,
			PrecipitationChance: roundF(d.Pop * 100),
			WindSpeed:           roundF(d.WindSpeed),
			Humidity:            d.Humidity,
			FetchedAt:           fetchedAt,
		}

		for _, h := range payload.Hourly {
			local := time.Unix(h.Dt, 0).In(w.location)
			if local.Format(dates.DateFormat) != date {
				continue
			}
			hConditions := ""
			if len(h.Weather) > 0 {
				hConditions = h.Weather[0].Description
			}
			forecast.HourlyData = append(forecast.HourlyData, models.HourlyForecast{
				Time:                local.Format(dates.TimeFormat),
				Temp:                roundF(h.Temp),
				FeelsLike:           roundF(h.FeelsLike),
				PrecipitationChance: roundF(h.Pop * 100),
				Conditions:          hConditions,
				WindSpeed:           roundF(h.WindSpeed),
				Humidity:            h.Humidity,
				UVIndex:             h.UVI,
			})
		}

		return forecast, true
	}
	return models.DailyForecast{}, false
}

// Period bounds, in local hours
const (
	morningStart   = 6
	afternoonStart = 12
	eveningStart   = 18
	eveningEnd     = 24
)

// BuildPeriodSummaries derives morning/afternoon/evening summaries from a
// day's hourly data. A period with no hours returns nil.
func BuildPeriodSummaries(forecast *models.DailyForecast) (morning, afternoon, evening *models.PeriodForecast) {
	morning = summarizePeriod(forecast.HourlyData, morningStart, afternoonStart)
	afternoon = summarizePeriod(forecast.HourlyData, afternoonStart, eveningStart)
	evening = summarizePeriod(forecast.HourlyData, eveningStart, eveningEnd)
	return
}

func summarizePeriod(hours []models.HourlyForecast, startHour, endHour int) *models.PeriodForecast {
	var selected []models.HourlyForecast
	for _, h := range hours {
		hr := dates.ParseTimeToHour(h.Time)
		if hr >= startHour && hr < endHour {
			selected = append(selected, h)
		}
	}
	if len(selected) == 0 {
		return nil
	}

	tempSum, feelsSum := 0, 0
	high, low := selected[0].Temp, selected[0].Temp
	maxPrecip := 0
	counts := make(map[string]int)
	for _, h := range selected {
		tempSum += h.Temp
		feelsSum += h.FeelsLike
		if h.Temp > high {
			high = h.Temp
		}
		if h.Temp < low {
			low = h.Temp
		}
		if h.PrecipitationChance > maxPrecip {
			maxPrecip = h.PrecipitationChance
		}
		counts[h.Conditions]++
	}

	conditions := selected[0].Conditions
	best := 0
	for _, h := range selected {
		if counts[h.Conditions] > best {
			best = counts[h.Conditions]
			conditions = h.Conditions
		}
	}

	return &models.PeriodForecast{
		TempAvg:             tempSum / len(selected),
		TempHigh:            high,
		TempLow:             low,
		FeelsLikeAvg:        feelsSum / len(selected),
		PrecipitationChance: maxPrecip,
		Conditions:          conditions,
		HourCount:           len(selected),
	}
}

func roundF(f float64) int {
	return int(math.Round(f))
}
