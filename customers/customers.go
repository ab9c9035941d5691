// Package customers is the client-accounts side of the back office:
// the companies and sites Salihate cleans for, their contracts and
// payments.
package customers

import (
	"context"

	"github.com/pkg/errors"

	"github.com/salihate/backoffice/transport"
	"github.com/salihate/backoffice/transport/download"
)

type ContractStatus string

const (
	ContractOngoing   ContractStatus = "EN_COURS"
	ContractFinished  ContractStatus = "TERMINE"
	ContractSuspended ContractStatus = "SUSPENDU"
)

type Customer struct {
	ID               string         `json:"id,omitempty"`
	Nom              string         `json:"nom"`
	Adresse          string         `json:"adresse"`
	Site             string         `json:"site,omitempty"`
	Telephone        string         `json:"telephone"`
	Email            string         `json:"email"`
	ContactPrincipal string         `json:"contact_principal,omitempty"`
	TypeContrat      string         `json:"type_contrat"`
	PrixContrat      float64        `json:"prix_contrat"`
	MontantPaye      float64        `json:"montant_paye"`
	MontantDu        float64        `json:"montant_du,omitempty"`
	Statut           ContractStatus `json:"statut,omitempty"`
	DateDebut        string         `json:"date_debut,omitempty"`
	DateFin          string         `json:"date_fin,omitempty"`
	Notes            string         `json:"notes,omitempty"`
}

// IsPaid reports whether the contract is settled in full.
func (c Customer) IsPaid() bool {
	return c.MontantPaye >= c.PrixContrat
}

type Client struct {
	api         *transport.Client
	downloadDir string
}

type Option func(*Client)

func WithDownloadDir(dir string) Option {
	return func(c *Client) {
		c.downloadDir = dir
	}
}

func New(api *transport.Client, options ...Option) *Client {
	client := &Client{api: api, downloadDir: "downloads"}
	for _, opt := range options {
		opt(client)
	}
	return client
}

func (c *Client) List(ctx context.Context) ([]Customer, error) {
	env, err := c.api.Get(ctx, "/clients", nil)
	if err != nil {
		return nil, errors.Wrap(err, "[customers.List]")
	}
	return transport.Array[Customer](env, "clients")
}

func (c *Client) Create(ctx context.Context, customer Customer) (Customer, error) {
	env, err := c.api.Post(ctx, "/clients", customer)
	if err != nil {
		return Customer{}, errors.Wrap(err, "[customers.Create]")
	}
	return transport.Object[Customer](env, "client")
}

func (c *Client) Update(ctx context.Context, id string, customer Customer) (Customer, error) {
	env, err := c.api.Put(ctx, "/clients/"+id, customer)
	if err != nil {
		return Customer{}, errors.Wrap(err, "[customers.Update]")
	}
	return transport.Object[Customer](env, "client")
}

func (c *Client) Delete(ctx context.Context, id string) error {
	if _, err := c.api.Delete(ctx, "/clients/"+id); err != nil {
		return errors.Wrap(err, "[customers.Delete]")
	}
	return nil
}

// Receipt fetches the payment receipt PDF.
func (c *Client) Receipt(ctx context.Context, id string) ([]byte, error) {
	data, err := c.api.GetBinary(ctx, "/clients/"+id+"/receipt", nil)
	if err != nil {
		return nil, errors.Wrap(err, "[customers.Receipt]")
	}
	return data, nil
}

// DownloadReceipt fetches a receipt and writes it to the download
// directory, returning the file path.
func (c *Client) DownloadReceipt(ctx context.Context, id, customerName string) (string, error) {
	data, err := c.Receipt(ctx, id)
	if err != nil {
		return "", err
	}
	return download.Save(c.downloadDir, "recu_"+download.Sanitize(customerName)+".pdf", data)
}

// TogglePayment flips a customer between fully paid and unpaid by
// setting montant_paye to the contract price or zero. The optimistic
// flip is always reconciled against the server: the authoritative list
// re-fetch runs whether the mutating call succeeded or failed, so a
// stale optimistic value can never stick.
func (c *Client) TogglePayment(ctx context.Context, customer Customer) ([]Customer, error) {
	newAmount := customer.PrixContrat
	if customer.IsPaid() {
		newAmount = 0
	}

	_, toggleErr := c.api.Put(ctx, "/clients/"+customer.ID, map[string]float64{"montant_paye": newAmount})

	list, listErr := c.List(ctx)
	if toggleErr != nil {
		return list, errors.Wrap(toggleErr, "[customers.TogglePayment]")
	}
	if listErr != nil {
		return nil, errors.Wrap(listErr, "[customers.TogglePayment] reconcile")
	}
	return list, nil
}
