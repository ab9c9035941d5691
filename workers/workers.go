// Package workers is the client for the HR side of the back office:
// the cleaning staff roster and their salary bulletins.
package workers

import (
	"context"
	"net/url"
	"strconv"

	"github.com/pkg/errors"

	"github.com/salihate/backoffice/salaries"
	"github.com/salihate/backoffice/transport"
)

// Status of a worker on the roster.
type Status string

const (
	StatusActive    Status = "ACTIF"
	StatusInactive  Status = "INACTIF"
	StatusSuspended Status = "SUSPENDU"
)

// Worker as the backend serializes it.
type Worker struct {
	ID              string            `json:"id,omitempty"`
	Nom             string            `json:"nom"`
	Prenom          string            `json:"prenom"`
	Poste           string            `json:"poste"`
	Contact         string            `json:"contact,omitempty"`
	Email           string            `json:"email,omitempty"`
	DateEmbauche    string            `json:"date_embauche,omitempty"`
	SalaireBase     float64           `json:"salaire_base"`
	Statut          Status            `json:"statut,omitempty"`
	SiteAffectation string            `json:"site_affectation,omitempty"`
	CIN             string            `json:"cin,omitempty"`
	Adresse         string            `json:"adresse,omitempty"`
	Notes           string            `json:"notes,omitempty"`
	Salaries        []salaries.Salary `json:"salaries,omitempty"`
}

// Filter narrows the roster listing. Zero values are omitted from the
// query.
type Filter struct {
	Month         int
	Year          int
	PaymentStatus string
	Search        string
}

type Client struct {
	api *transport.Client
}

func New(api *transport.Client) *Client {
	return &Client{api: api}
}

// List fetches the roster. The collection arrives either under
// data.workers or as bare data depending on the backend code path.
func (c *Client) List(ctx context.Context, filter Filter) ([]Worker, error) {
	query := url.Values{}
	if filter.Month > 0 {
		query.Set("month", strconv.Itoa(filter.Month))
	}
	if filter.Year > 0 {
		query.Set("year", strconv.Itoa(filter.Year))
	}
	if filter.PaymentStatus != "" {
		query.Set("paymentStatus", filter.PaymentStatus)
	}
	if filter.Search != "" {
		query.Set("search", filter.Search)
	}

	env, err := c.api.Get(ctx, "/workers", query)
	if err != nil {
		return nil, errors.Wrap(err, "[workers.List]")
	}
	return transport.Array[Worker](env, "workers")
}

func (c *Client) Create(ctx context.Context, worker Worker) (Worker, error) {
	env, err := c.api.Post(ctx, "/workers", worker)
	if err != nil {
		return Worker{}, errors.Wrap(err, "[workers.Create]")
	}
	return transport.Object[Worker](env, "worker")
}

func (c *Client) Update(ctx context.Context, id string, worker Worker) (Worker, error) {
	env, err := c.api.Put(ctx, "/workers/"+id, worker)
	if err != nil {
		return Worker{}, errors.Wrap(err, "[workers.Update]")
	}
	return transport.Object[Worker](env, "worker")
}

func (c *Client) Delete(ctx context.Context, id string) error {
	if _, err := c.api.Delete(ctx, "/workers/"+id); err != nil {
		return errors.Wrap(err, "[workers.Delete]")
	}
	return nil
}

// GenerateBulletin produces the salary bulletin PDF for a worker,
// creating the salary record backend-side if it does not exist yet.
// Zero month/year default to the current period backend-side.
func (c *Client) GenerateBulletin(ctx context.Context, workerID string, mois, annee int) ([]byte, error) {
	body := map[string]any{"worker_id": workerID}
	if mois > 0 {
		body["mois"] = mois
	}
	if annee > 0 {
		body["annee"] = annee
	}

	data, err := c.api.PostBinary(ctx, "/salaries/bulletin", body)
	if err != nil {
		return nil, errors.Wrap(err, "[workers.GenerateBulletin]")
	}
	return data, nil
}
