package ddragon

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roundTripFunc func(*http.Request) *http.Response

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req), nil
}

func stubResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

func TestLatestVersion(t *testing.T) {
	client := NewClient("http://fake/")
	client.client = &http.Client{
		Transport: roundTripFunc(func(req *http.Request) *http.Response {
			assert.Equal(t, "/api/versions.json", req.URL.Path)
			return stubResponse(200, `["15.1.1","14.24.1","14.23.1"]`)
		}),
	}

	version, err := client.LatestVersion(context.Background())
	require.NoError(t, err)
	require.Equal(t, "15.1.1", version)
}

func TestLatestVersionEmpty(t *testing.T) {
	client := NewClient("http://fake")
	client.client = &http.Client{
		Transport: roundTripFunc(func(req *http.Request) *http.Response {
			return stubResponse(200, `[]`)
		}),
	}
	_, err := client.LatestVersion(context.Background())
	require.ErrorIs(t, err, ErrNoVersions)
}

func TestVersionsErrorStatus(t *testing.T) {
	client := NewClient("http://fake")
	client.client = &http.Client{
		Transport: roundTripFunc(func(req *http.Request) *http.Response {
			return stubResponse(503, "maintenance")
		}),
	}
	_, err := client.Versions(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "maintenance")
}

func TestChampionsSortedByName(t *testing.T) {
	client := NewClient("http://fake")
	client.client = &http.Client{
		Transport: roundTripFunc(func(req *http.Request) *http.Response {
			assert.Equal(t, "/cdn/15.1.1/data/en_US/champion.json", req.URL.Path)
			return stubResponse(200, `{"data":{
				"Zed":{"id":"Zed","key":"238","name":"Zed"},
				"Ahri":{"id":"Ahri","key":"103","name":"Ahri"},
				"MonkeyKing":{"id":"MonkeyKing","key":"62","name":"Wukong"}
			}}`)
		}),
	}
	champs, err := client.Champions(context.Background(), "15.1.1")
	require.NoError(t, err)
	require.Len(t, champs, 3)
	require.Equal(t, []string{"Ahri", "Wukong", "Zed"}, []string{champs[0].Name, champs[1].Name, champs[2].Name})
	require.Equal(t, "62", champs[1].Key)

	_, err = client.Champions(context.Background(), "")
	require.Error(t, err)
}

// Data Dragon calls keep ordinary chain verification.
func TestClientVerifiesCertificates(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `["1.0.0"]`)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).LatestVersion(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "certificate")
}
