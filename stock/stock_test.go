package stock_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/salihate/backoffice/session/storage/storefake"
	"github.com/salihate/backoffice/stock"
	"github.com/salihate/backoffice/transport"
)

func newClient(t *testing.T, router chi.Router) *stock.Client {
	t.Helper()

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	api, err := transport.New(server.URL, storefake.NewFakeStore())
	require.NoError(t, err)
	return stock.New(api)
}

const productJSON = `{"id":"p1","nom":"Javel","unite":"L","quantite_actuelle":40,"seuil_alerte":10,"statut":"OK"}`

func TestListProducts(t *testing.T) {
	fixtures := []struct {
		name string
		body string
	}{
		{name: "bare array", body: `{"success":true,"data":[` + productJSON + `]}`},
		{name: "nested under products", body: `{"success":true,"data":{"products":[` + productJSON + `]}}`},
	}

	for _, fixture := range fixtures {
		t.Run(fixture.name, func(t *testing.T) {
			router := chi.NewRouter()
			router.Get("/products", func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, "100", r.URL.Query().Get("limit"))
				w.Write([]byte(fixture.body))
			})

			products, err := newClient(t, router).ListProducts(context.Background())
			require.NoError(t, err)
			require.Len(t, products, 1)
			require.Equal(t, "Javel", products[0].Nom)
			require.Equal(t, stock.ProductOK, products[0].Statut)
		})
	}
}

func TestCategories(t *testing.T) {
	router := chi.NewRouter()
	router.Get("/categories", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"data":{"categories":[{"id":"cat1","nom":"Produits d'entretien","productCount":12}]}}`))
	})

	categories, err := newClient(t, router).Categories(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, 1)
	require.Equal(t, 12, categories[0].ProductCount)
}

func TestRecordEntry(t *testing.T) {
	router := chi.NewRouter()
	router.Post("/stock/entry", func(w http.ResponseWriter, r *http.Request) {
		var input stock.EntryInput
		require.NoError(t, json.NewDecoder(r.Body).Decode(&input))
		require.Equal(t, "p1", input.ProductID)
		require.Equal(t, 25.0, input.Quantite)
		require.Equal(t, "Fournisseur Diallo", input.Source)

		w.Write([]byte(`{"success":true,"data":{"movement":{"id":"m1","product_id":"p1","type":"ENTREE","quantite":25,"quantite_avant":40,"quantite_apres":65,"created_at":"2025-03-10T09:00:00Z"}}}`))
	})

	movement, err := newClient(t, router).RecordEntry(context.Background(), stock.EntryInput{
		ProductID: "p1",
		Quantite:  25,
		Source:    "Fournisseur Diallo",
	})
	require.NoError(t, err)
	require.Equal(t, stock.MovementEntry, movement.Type)
	require.Equal(t, 65.0, movement.QuantiteApres)
}

func TestRecordExit(t *testing.T) {
	router := chi.NewRouter()
	router.Post("/stock/exit", func(w http.ResponseWriter, r *http.Request) {
		var input stock.ExitInput
		require.NoError(t, json.NewDecoder(r.Body).Decode(&input))
		require.Equal(t, "Site Teranga", input.Destination)

		w.Write([]byte(`{"success":true,"data":{"movement":{"id":"m2","product_id":"p1","type":"SORTIE","quantite":5,"quantite_avant":65,"quantite_apres":60,"created_at":"2025-03-11T09:00:00Z"}}}`))
	})

	movement, err := newClient(t, router).RecordExit(context.Background(), stock.ExitInput{
		ProductID:   "p1",
		Quantite:    5,
		Destination: "Site Teranga",
	})
	require.NoError(t, err)
	require.Equal(t, stock.MovementExit, movement.Type)
}

func TestInventory(t *testing.T) {
	router := chi.NewRouter()
	router.Get("/products", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"data":[` + productJSON + `]}`))
	})
	router.Get("/categories", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"data":{"categories":[{"id":"cat1","nom":"Produits d'entretien"}]}}`))
	})
	router.Get("/stock/movements", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "20", r.URL.Query().Get("limit"))
		w.Write([]byte(`{"success":true,"data":{"movements":[{"id":"m1","product_id":"p1","type":"ENTREE","quantite":25,"quantite_avant":40,"quantite_apres":65,"created_at":"2025-03-10T09:00:00Z"}]}}`))
	})

	inv, err := newClient(t, router).Inventory(context.Background(), 20)
	require.NoError(t, err)
	require.Len(t, inv.Products, 1)
	require.Len(t, inv.Categories, 1)
	require.Len(t, inv.Movements, 1)
}

// TestInventory_AllOrNothing: one failing leg fails the whole load and
// no partial inventory leaks out.
func TestInventory_AllOrNothing(t *testing.T) {
	router := chi.NewRouter()
	router.Get("/products", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"data":[` + productJSON + `]}`))
	})
	router.Get("/categories", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"success":false,"message":"erreur interne"}`))
	})
	router.Get("/stock/movements", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"data":{"movements":[]}}`))
	})

	inv, err := newClient(t, router).Inventory(context.Background(), 0)
	require.Error(t, err)
	require.Empty(t, inv.Products)
	require.Empty(t, inv.Categories)
	require.Empty(t, inv.Movements)
}
