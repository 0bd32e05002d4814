package app

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/familysync/internal/config"
	"github.com/mmynk/familysync/internal/models"
	"github.com/mmynk/familysync/internal/service"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Storage.Path = filepath.Join(t.TempDir(), "app.db")
	return cfg
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Driver = "mongo"
	_, err := New(context.Background(), cfg)
	assert.Error(t, err)
}

func TestHandler_ServesAPIAndMetrics(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, testConfig(t))
	require.NoError(t, err)
	defer a.Close()

	server := httptest.NewServer(a.Handler())
	defer server.Close()

	signIn, err := service.NewClient(http.DefaultClient, server.URL, "").SignIn(ctx, "")
	require.NoError(t, err)
	client := service.NewClient(http.DefaultClient, server.URL, signIn.Token)

	family, err := client.CreateFamily(ctx, "Silva")
	require.NoError(t, err)
	_, err = client.AddItem(ctx, &service.AddItemRequest{Type: models.ItemShopping, Title: "Milk"})
	require.NoError(t, err)

	resp, err := http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(body), `familysync_operations_total{operation="create_family",result="ok"}`)

	resp, err = http.Get(server.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	items, err := a.Store.ListItemsByFamily(ctx, family.ID)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}
