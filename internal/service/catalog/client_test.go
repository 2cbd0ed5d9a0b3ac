package catalog_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	model "github.com/zhouzirui/shopbot/backend/internal/model/catalog"
	"github.com/zhouzirui/shopbot/backend/internal/service/catalog"
	"github.com/zhouzirui/shopbot/backend/internal/service/catalog/catalogtest"
)

func fixture() *catalogtest.Server {
	return catalogtest.New(
		model.Product{ID: 1, Name: "Pantalon Rojo - Talla M", Price: 25, Stock: 4, Type: "pantalon", Color: "rojo", Category: "casual"},
		model.Product{ID: 2, Name: "Camiseta Azul - Talla S", Price: 10, Stock: 10, Type: "camiseta", Color: "azul", Category: "deportivo"},
	)
}

func TestSearchProducts(t *testing.T) {
	srv := fixture()
	defer srv.Close()
	client := catalog.NewClient(srv.URL, time.Second, nil)
	ctx := context.Background()

	all, err := client.SearchProducts(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	hits, err := client.SearchProducts(ctx, "pantalon rojo")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, 1, hits[0].ID)
	assert.Equal(t, "rojo", hits[0].Color)

	none, err := client.SearchProducts(ctx, "falda")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGetProductNotFound(t *testing.T) {
	srv := fixture()
	defer srv.Close()
	client := catalog.NewClient(srv.URL, time.Second, nil)

	_, err := client.GetProduct(context.Background(), 99)
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestCartLifecycle(t *testing.T) {
	srv := fixture()
	defer srv.Close()
	client := catalog.NewClient(srv.URL, time.Second, nil)
	ctx := context.Background()

	cart, err := client.CreateCart(ctx, []model.LineItem{{ProductID: 1, Qty: 2}})
	require.NoError(t, err)
	assert.InDelta(t, 50.0, cart.TotalPrice, 0.001)

	cart, err = client.UpdateCart(ctx, cart.ID, []model.LineItem{{ProductID: 2, Qty: 1}})
	require.NoError(t, err)
	assert.Len(t, cart.Items, 2)
	assert.InDelta(t, 60.0, cart.TotalPrice, 0.001)

	cart, err = client.UpdateCart(ctx, cart.ID, []model.LineItem{{ProductID: 1, Qty: 0}})
	require.NoError(t, err)

	got, err := client.GetCart(ctx, cart.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	line, ok := got.Line(2)
	require.True(t, ok)
	assert.Equal(t, "Camiseta Azul - Talla S", line.Name())
	assert.InDelta(t, 10.0, line.Subtotal(), 0.001)
}

func TestAPIErrorCarriesServiceMessage(t *testing.T) {
	srv := fixture()
	defer srv.Close()
	client := catalog.NewClient(srv.URL, time.Second, nil)

	_, err := client.CreateCart(context.Background(), []model.LineItem{{ProductID: 1, Qty: 40}})
	var apiErr *catalog.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Stock insuficiente para Pantalon Rojo - Talla M", catalog.UserMessage(err))
}

func TestServerErrorWithoutEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := catalog.NewClient(srv.URL, time.Second, nil).SearchProducts(context.Background(), "")
	var apiErr *catalog.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Empty(t, apiErr.Message)
}

func TestTimeoutSurfacesAsDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err := catalog.NewClient(srv.URL, 0, nil).GetProduct(ctx, 1)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, "el servicio tardó demasiado en responder", catalog.UserMessage(err))
}
