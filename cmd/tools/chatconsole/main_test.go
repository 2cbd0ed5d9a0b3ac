package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/shopbot/backend/internal/model/catalog"
	"github.com/zhouzirui/shopbot/backend/internal/service/catalog/catalogtest"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSendPrintsReplies(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/messages", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"senderId":"ana","intent":"view_cart","replies":["🛒 Tu carrito está vacío."]}`))
	}))
	defer srv.Close()

	out, err := execute(t, "", "send", "--server", srv.URL, "--sender", "ana", "ver", "carrito")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"senderId": "ana", "text": "ver carrito"}, got)
	assert.Contains(t, out, "🛒 Tu carrito está vacío.")
	assert.Contains(t, out, "[view_cart]")
}

func TestSendReportsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"text is required"}`))
	}))
	defer srv.Close()

	_, err := execute(t, "", "send", "--server", srv.URL, "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "text is required")
}

func TestREPLRunsInProcess(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("ORACLE_PROVIDER", "none")
	t.Setenv("SESSION_BACKEND", "")

	catalogSrv := catalogtest.New(catalog.Product{ID: 1, Name: "Medias Rayadas", Price: 4.5, Stock: 10})
	defer catalogSrv.Close()

	out, err := execute(t, "agregar ID 1\n\nver carrito\nsalir\nver carrito\n",
		"repl", "--catalog", catalogSrv.URL, "--oracle=false")
	require.NoError(t, err)

	assert.Contains(t, out, "Bienvenido")
	assert.Contains(t, out, "Agregué 1x Medias Rayadas")
	assert.Contains(t, out, "*Total: $4.50*")
	assert.Equal(t, 2, catalogSrv.Calls("GET /carts/{id}")+catalogSrv.Calls("POST /carts"))
}
