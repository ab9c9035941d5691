package salaries_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/salihate/backoffice/internal/utils"
	"github.com/salihate/backoffice/salaries"
	"github.com/salihate/backoffice/session/storage/storefake"
	"github.com/salihate/backoffice/transport"
)

func newClient(t *testing.T, router chi.Router, options ...salaries.Option) *salaries.Client {
	t.Helper()

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	api, err := transport.New(server.URL, storefake.NewFakeStore())
	require.NoError(t, err)
	return salaries.New(api, options...)
}

func TestList_PaginatedBareData(t *testing.T) {
	router := chi.NewRouter()
	router.Get("/salaries", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "3", r.URL.Query().Get("month"))
		require.Equal(t, "EN_ATTENTE", r.URL.Query().Get("statut"))
		require.Equal(t, "2", r.URL.Query().Get("page"))
		w.Write([]byte(`{
			"success": true,
			"data": [{"id":"s1","worker_id":"w1","mois":3,"annee":2025,"salaire_base":150000,"salaire_net":145000,"statut":"EN_ATTENTE"}],
			"pagination": {"currentPage":2,"totalPages":5,"totalItems":42,"itemsPerPage":10}
		}`))
	})

	client := newClient(t, router)
	page, err := client.List(context.Background(), salaries.Filter{
		Month:  3,
		Statut: salaries.StatusPending,
		Page:   2,
	})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.Equal(t, salaries.StatusPending, page.Items[0].Statut)
	require.Equal(t, 2, page.Pagination.CurrentPage)
	require.Equal(t, 42, page.Pagination.TotalItems)
}

func TestStats_NestedAndBare(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "nested stats", body: `{"success":true,"data":{"stats":{"totalWorkers":12,"paidCount":8,"pendingCount":4}}}`},
		{name: "bare stats", body: `{"success":true,"data":{"totalWorkers":12,"paidCount":8,"pendingCount":4}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := chi.NewRouter()
			router.Get("/salaries/stats", func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			})

			client := newClient(t, router)
			stats, err := client.Stats(context.Background(), 3, 2025)
			require.NoError(t, err)
			require.Equal(t, 12, stats.TotalWorkers)
			require.Equal(t, 8, stats.PaidCount)
		})
	}
}

func TestForWorker(t *testing.T) {
	router := chi.NewRouter()
	router.Get("/salaries/worker/w1", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"success": true,
			"data": {"salaries": [{"id":"s1","worker_id":"w1","mois":2,"annee":2025,"salaire_base":150000,"salaire_net":150000}]},
			"pagination": {"currentPage":1,"totalPages":1,"totalItems":1,"itemsPerPage":10}
		}`))
	})

	client := newClient(t, router)
	page, err := client.ForWorker(context.Background(), "w1", 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.Equal(t, 1, page.Pagination.TotalItems)
}

func TestPay(t *testing.T) {
	router := chi.NewRouter()
	router.Patch("/salaries/s1/pay", func(w http.ResponseWriter, r *http.Request) {
		var body salaries.PaymentInput
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, salaries.PaymentTransfer, body.ModePaiement)
		require.Equal(t, "VIR-001", body.ReferencePaiement)
		w.Write([]byte(`{"success":true,"data":{"salary":{"id":"s1","worker_id":"w1","mois":3,"annee":2025,"salaire_base":150000,"salaire_net":150000,"statut":"PAYE","mode_paiement":"VIREMENT"}}}`))
	})

	client := newClient(t, router)
	paid, err := client.Pay(context.Background(), "s1", salaries.PaymentInput{
		ModePaiement:      salaries.PaymentTransfer,
		ReferencePaiement: "VIR-001",
	})
	require.NoError(t, err)
	require.Equal(t, salaries.StatusPaid, paid.Statut)
}

// TestUpdate_PartialFields: pointer fields make a deliberate zero
// distinguishable from a field left alone; only the set members go out
// on the wire.
func TestUpdate_PartialFields(t *testing.T) {
	router := chi.NewRouter()
	router.Put("/salaries/s1", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]json.RawMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.JSONEq(t, "0", string(body["primes"]), "cleared prime is sent as an explicit zero")
		require.NotContains(t, body, "deductions", "untouched field stays off the wire")
		require.JSONEq(t, `"prime annulee"`, string(body["notes"]))

		w.Write([]byte(`{"success":true,"data":{"salary":{"id":"s1","worker_id":"w1","mois":3,"annee":2025,"salaire_base":150000,"primes":0,"salaire_net":150000}}}`))
	})

	client := newClient(t, router)
	updated, err := client.Update(context.Background(), "s1", salaries.UpdateInput{
		Primes: utils.Ptr(0.0),
		Notes:  utils.Ptr("prime annulee"),
	})
	require.NoError(t, err)
	require.Equal(t, 0.0, updated.Primes)
	require.Equal(t, 150000.0, updated.SalaireNet)
}

func TestGenerateMonth(t *testing.T) {
	router := chi.NewRouter()
	router.Post("/salaries/generate-month", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]int
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, 3, body["mois"])
		require.Equal(t, 2025, body["annee"])
		w.Write([]byte(`{"success":true,"data":{"created":7,"skipped":2}}`))
	})

	client := newClient(t, router)
	result, err := client.GenerateMonth(context.Background(), 3, 2025)
	require.NoError(t, err)
	require.Equal(t, 7, result.Created)
	require.Equal(t, 2, result.Skipped)
}

func TestDownloadBulletin_WritesFile(t *testing.T) {
	pdf := []byte("%PDF-1.4 bulletin")
	router := chi.NewRouter()
	router.Get("/salaries/s1/bulletin", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write(pdf)
	})

	dir := t.TempDir()
	client := newClient(t, router, salaries.WithDownloadDir(dir))

	path, err := client.DownloadBulletin(context.Background(), "s1", "Awa Diop", 3, 2025)
	require.NoError(t, err)
	require.Contains(t, path, "bulletin_Awa_Diop_3_2025.pdf")

	written, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, pdf, written)
}

func TestCreate_FailurePropagatesBackendMessage(t *testing.T) {
	router := chi.NewRouter()
	router.Post("/salaries", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"success":false,"message":"Salaire deja genere pour cette periode"}`))
	})

	client := newClient(t, router)
	_, err := client.Create(context.Background(), salaries.CreateInput{WorkerID: "w1", Mois: 3, Annee: 2025, SalaireBase: 150000})
	require.Error(t, err)

	apiErr, ok := transport.AsAPIError(err)
	require.True(t, ok)
	require.Equal(t, http.StatusConflict, apiErr.StatusCode)
	require.Contains(t, apiErr.Message, "deja genere")
}
