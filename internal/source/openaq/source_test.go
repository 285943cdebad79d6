package openaq

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airsense/internal/domain"
	"airsense/internal/source/fetch"
)

var runTime = time.Date(2024, 11, 5, 10, 0, 0, 0, time.UTC)

func newTestSource(t *testing.T, contentType, body string) (*Source, *http.Request) {
	t.Helper()

	var captured http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = *r
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	client := fetch.NewClientWithHTTP(srv.Client(), fetch.Config{MaxAttempts: 1}, logger)

	src := New(Config{BaseURL: srv.URL + "/", Country: "IN", Limit: 1000, APIKey: "key"}, client, logger)
	src.now = func() time.Time { return runTime }
	return src, &captured
}

const latestJSON = `{
  "results": [
    {
      "location": "Anand Vihar, Delhi",
      "city": "Delhi",
      "coordinates": {"latitude": 28.6469, "longitude": 77.3164},
      "measurements": [
        {"parameter": "pm25", "value": 30.0, "lastUpdated": "2024-11-05T08:00:00Z"},
        {"parameter": "pm10", "value": "113", "lastUpdated": "2024-11-05T09:00:00+00:00"},
        {"parameter": "no2", "value": 41.2}
      ]
    },
    {
      "location": "No Coords",
      "city": "Pune",
      "measurements": [{"parameter": "pm25", "value": 80}]
    },
    {
      "location": "Clean Air",
      "city": "Shimla",
      "coordinates": {"latitude": 31.1, "longitude": 77.1},
      "measurements": [{"parameter": "pm25", "value": 0.5}]
    },
    {
      "location": "Ozone Only",
      "city": "",
      "coordinates": {"latitude": 19.0, "longitude": 72.8},
      "measurements": [{"parameter": "o3", "value": 12}]
    },
    {
      "location": "",
      "city": null,
      "coordinates": {"latitude": "12.97", "longitude": "77.59"},
      "measurements": [{"parameter": "PM2.5", "value": 55.4}]
    },
    "garbage"
  ]
}`

func TestFetchReadings_JSON(t *testing.T) {
	src, req := newTestSource(t, "application/json", latestJSON)

	records, dropped, err := src.FetchReadings(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	// No Coords, Clean Air, Ozone Only and the non-object entry.
	assert.Equal(t, 4, dropped)

	assert.Equal(t, "/v3/latest", req.URL.Path)
	assert.Equal(t, "IN", req.URL.Query().Get("country"))
	assert.Equal(t, "1000", req.URL.Query().Get("limit"))
	assert.Equal(t, "key", req.Header.Get("X-API-Key"))

	first := records[0]
	assert.Equal(t, SourceID, first.Source)
	assert.Equal(t, "Delhi", first.CityName)
	assert.Equal(t, "Anand_Vihar,_Delhi", first.StationCode)
	assert.Equal(t, "Anand Vihar, Delhi", first.StationName)
	require.NotNil(t, first.AQI)
	assert.Equal(t, 89, *first.AQI)
	assert.Equal(t, time.Date(2024, 11, 5, 9, 0, 0, 0, time.UTC), first.ObservedAt)
	assert.InDelta(t, 41.2, first.Measurements[domain.NO2], 1e-9)
	assert.InDelta(t, 28.6469, *first.Latitude, 1e-9)
	assert.Contains(t, string(first.Raw), "Anand Vihar")

	second := records[1]
	assert.Equal(t, unknownPlace, second.CityName)
	assert.Equal(t, unknownPlace, second.StationCode)
	assert.Equal(t, 150, *second.AQI)
	assert.Equal(t, runTime, second.ObservedAt)
}

func TestFetchReadings_CSV(t *testing.T) {
	body := "location,city,latitude,longitude,parameter,value,lastUpdated\n" +
		"ITO,Delhi,28.62,77.24,pm25,30.0,2024-11-05T08:00:00Z\n" +
		"ITO,Delhi,28.62,77.24,pm10,300,2024-11-05T08:30:00Z\n" +
		"Bandra,Mumbai,19.05,72.84,pm25,n/a,\n"

	src, _ := newTestSource(t, "text/csv", body)

	records, dropped, err := src.FetchReadings(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 1, dropped)

	rec := records[0]
	assert.Equal(t, "ITO", rec.StationCode)
	assert.Equal(t, 173, *rec.AQI)
	assert.Equal(t, time.Date(2024, 11, 5, 8, 30, 0, 0, time.UTC), rec.ObservedAt)
	assert.JSONEq(t, `[
		{"location":"ITO","city":"Delhi","latitude":"28.62","longitude":"77.24","parameter":"pm25","value":"30.0","lastupdated":"2024-11-05T08:00:00Z"},
		{"location":"ITO","city":"Delhi","latitude":"28.62","longitude":"77.24","parameter":"pm10","value":"300","lastupdated":"2024-11-05T08:30:00Z"}
	]`, string(rec.Raw))
}

func TestFetchReadings_UnsupportedEncoding(t *testing.T) {
	src, _ := newTestSource(t, "text/html", "<html><title>Maintenance</title></html>")

	records, dropped, err := src.FetchReadings(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, records)
	assert.Zero(t, dropped)
}

func TestFetchReadings_CSVWithGenericContentType(t *testing.T) {
	body := "location,city,latitude,longitude,parameter,value,lastUpdated\n" +
		"Anand Vihar,Delhi,28.6,77.3,pm25,80,2024-11-05T08:00:00Z\n"

	for _, contentType := range []string{"text/plain", "application/octet-stream", ""} {
		t.Run(contentType, func(t *testing.T) {
			src, _ := newTestSource(t, contentType, body)

			records, _, err := src.FetchReadings(context.Background())
			require.NoError(t, err)
			require.Len(t, records, 1)
			assert.Equal(t, "Delhi", records[0].CityName)
			assert.Equal(t, "Anand_Vihar", records[0].StationCode)
			assert.Equal(t, 164, *records[0].AQI)
		})
	}
}

func TestFetchReadings_ObjectShapedNames(t *testing.T) {
	body := `{"results": [
	  {
	    "location": "Anand Vihar",
	    "city": {"name": "Delhi"},
	    "coordinates": {"latitude": 28.6, "longitude": 77.3},
	    "measurements": [{"parameter": "pm25", "value": 80}]
	  },
	  {
	    "location": {"name": "ITO"},
	    "city": "Delhi",
	    "coordinates": {"latitude": 28.62, "longitude": 77.24},
	    "measurements": [{"parameter": {"id": 2, "name": "pm25", "units": "µg/m³"}, "value": 80}]
	  },
	  {
	    "location": {"id": 17},
	    "city": {"code": "DL"},
	    "coordinates": {"latitude": 28.5, "longitude": 77.1},
	    "measurements": [{"parameter": "pm25", "value": 80}]
	  }
	]}`
	src, _ := newTestSource(t, "application/json", body)

	records, dropped, err := src.FetchReadings(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Zero(t, dropped)

	assert.Equal(t, "Delhi", records[0].CityName)
	assert.Equal(t, "Anand_Vihar", records[0].StationCode)
	assert.Equal(t, 164, *records[0].AQI)

	assert.Equal(t, "ITO", records[1].StationName)
	assert.Equal(t, 164, *records[1].AQI)

	assert.Equal(t, unknownPlace, records[2].CityName)
	assert.Equal(t, unknownPlace, records[2].StationCode)
}

func TestFetchReadings_MalformedBody(t *testing.T) {
	src, _ := newTestSource(t, "application/json", `{"results": {}}`)

	_, _, err := src.FetchReadings(context.Background())
	assert.Error(t, err)
}

func TestFetchReadings_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	client := fetch.NewClientWithHTTP(srv.Client(), fetch.Config{MaxAttempts: 1}, logger)
	src := New(Config{BaseURL: srv.URL}, client, logger)

	_, _, err := src.FetchReadings(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}
