package openweather

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "London", r.URL.Query().Get("q"))
		assert.Equal(t, "key", r.URL.Query().Get("appid"))
		assert.Equal(t, "metric", r.URL.Query().Get("units"))
		w.Write([]byte(`{"name":"London","main":{"temp":11.5,"humidity":80},"weather":[{"id":500,"description":"light rain"}],"dt":1700000000}`))
	}))
	defer srv.Close()

	got, err := NewClient(srv.URL, "key", time.Second).Current(context.Background(), "London")
	require.NoError(t, err)
	assert.Equal(t, "London", got.Name)
	assert.Equal(t, 11.5, got.Temp)
	assert.Equal(t, 80, got.Humidity)
	assert.Equal(t, "light rain", got.Description)
	assert.Equal(t, int64(1700000000), got.Time.Unix())
}

func TestCurrentMissingKey(t *testing.T) {
	_, err := NewClient("http://unused", "", time.Second).Current(context.Background(), "London")
	assert.True(t, errors.Is(err, ErrMissingAPIKey))
}

func TestCurrentSurfacesAPIMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"cod":"404","message":"city not found"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "key", time.Second).Current(context.Background(), "Atlantis")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "city not found")
}
