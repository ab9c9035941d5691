// Package salaries is the payroll client: salary records, payment
// marking, statistics, monthly generation and PDF bulletins.
package salaries

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/pkg/errors"

	"github.com/salihate/backoffice/transport"
	"github.com/salihate/backoffice/transport/download"
)

type Status string

const (
	StatusPending   Status = "EN_ATTENTE"
	StatusPaid      Status = "PAYE"
	StatusCancelled Status = "ANNULE"
)

type PaymentMode string

const (
	PaymentCash     PaymentMode = "ESPECES"
	PaymentTransfer PaymentMode = "VIREMENT"
	PaymentCheque   PaymentMode = "CHEQUE"
)

type AmountDetail struct {
	Label  string  `json:"label"`
	Amount float64 `json:"amount"`
}

// WorkerSummary is the worker subset the backend embeds in a salary.
type WorkerSummary struct {
	ID              string `json:"id"`
	Nom             string `json:"nom"`
	Prenom          string `json:"prenom"`
	Poste           string `json:"poste"`
	SiteAffectation string `json:"site_affectation,omitempty"`
	CIN             string `json:"cin,omitempty"`
	DateEmbauche    string `json:"date_embauche,omitempty"`
}

type Salary struct {
	ID                string         `json:"id,omitempty"`
	WorkerID          string         `json:"worker_id"`
	Worker            *WorkerSummary `json:"worker,omitempty"`
	Mois              int            `json:"mois"`
	Annee             int            `json:"annee"`
	SalaireBase       float64        `json:"salaire_base"`
	Primes            float64        `json:"primes"`
	PrimesDetails     []AmountDetail `json:"primes_details,omitempty"`
	Deductions        float64        `json:"deductions"`
	DeductionsDetails []AmountDetail `json:"deductions_details,omitempty"`
	SalaireNet        float64        `json:"salaire_net"`
	Statut            Status         `json:"statut,omitempty"`
	DatePaiement      string         `json:"date_paiement,omitempty"`
	ModePaiement      PaymentMode    `json:"mode_paiement,omitempty"`
	ReferencePaiement string         `json:"reference_paiement,omitempty"`
	Notes             string         `json:"notes,omitempty"`
	CreatedBy         string         `json:"created_by,omitempty"`
	CreatedAt         string         `json:"created_at,omitempty"`
	UpdatedAt         string         `json:"updated_at,omitempty"`
}

type Stats struct {
	TotalWorkers  int     `json:"totalWorkers"`
	TotalAmount   float64 `json:"totalAmount"`
	PaidCount     int     `json:"paidCount"`
	PaidAmount    float64 `json:"paidAmount"`
	PendingCount  int     `json:"pendingCount"`
	PendingAmount float64 `json:"pendingAmount"`
}

type CreateInput struct {
	WorkerID          string         `json:"worker_id"`
	Mois              int            `json:"mois"`
	Annee             int            `json:"annee"`
	SalaireBase       float64        `json:"salaire_base"`
	Primes            float64        `json:"primes,omitempty"`
	PrimesDetails     []AmountDetail `json:"primes_details,omitempty"`
	Deductions        float64        `json:"deductions,omitempty"`
	DeductionsDetails []AmountDetail `json:"deductions_details,omitempty"`
	Notes             string         `json:"notes,omitempty"`
}

// UpdateInput carries only the fields being changed. The numeric
// members are pointers so that an explicit zero (clearing a prime or a
// deduction) is distinguishable from a field left alone.
type UpdateInput struct {
	Primes            *float64       `json:"primes,omitempty"`
	PrimesDetails     []AmountDetail `json:"primes_details,omitempty"`
	Deductions        *float64       `json:"deductions,omitempty"`
	DeductionsDetails []AmountDetail `json:"deductions_details,omitempty"`
	Notes             *string        `json:"notes,omitempty"`
}

type PaymentInput struct {
	ModePaiement      PaymentMode `json:"mode_paiement"`
	ReferencePaiement string      `json:"reference_paiement,omitempty"`
}

type GenerateMonthResult struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
}

// Filter narrows the payroll listing.
type Filter struct {
	Month    int
	Year     int
	Statut   Status
	WorkerID string
	Page     int
	Limit    int
}

type Client struct {
	api         *transport.Client
	downloadDir string
}

type Option func(*Client)

// WithDownloadDir sets where DownloadBulletin writes its PDFs.
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

// List returns one page of salary records. The collection is bare
// data here; the pagination block rides alongside it in the envelope.
func (c *Client) List(ctx context.Context, filter Filter) (transport.Page[Salary], error) {
	query := url.Values{}
	if filter.Month > 0 {
		query.Set("month", strconv.Itoa(filter.Month))
	}
	if filter.Year > 0 {
		query.Set("year", strconv.Itoa(filter.Year))
	}
	if filter.Statut != "" {
		query.Set("statut", string(filter.Statut))
	}
	if filter.WorkerID != "" {
		query.Set("worker_id", filter.WorkerID)
	}
	if filter.Page > 0 {
		query.Set("page", strconv.Itoa(filter.Page))
	}
	if filter.Limit > 0 {
		query.Set("limit", strconv.Itoa(filter.Limit))
	}

	env, err := c.api.Get(ctx, "/salaries", query)
	if err != nil {
		return transport.Page[Salary]{}, errors.Wrap(err, "[salaries.List]")
	}
	items, err := transport.Array[Salary](env, "salaries")
	if err != nil {
		return transport.Page[Salary]{}, err
	}

	page := transport.Page[Salary]{Items: items}
	if env.Pagination != nil {
		page.Pagination = *env.Pagination
	}
	return page, nil
}

func (c *Client) Get(ctx context.Context, id string) (Salary, error) {
	env, err := c.api.Get(ctx, "/salaries/"+id, nil)
	if err != nil {
		return Salary{}, errors.Wrap(err, "[salaries.Get]")
	}
	return transport.Object[Salary](env, "salary")
}

// Stats arrives either under data.stats or as bare data.
func (c *Client) Stats(ctx context.Context, month, year int) (Stats, error) {
	query := url.Values{}
	if month > 0 {
		query.Set("month", strconv.Itoa(month))
	}
	if year > 0 {
		query.Set("year", strconv.Itoa(year))
	}

	env, err := c.api.Get(ctx, "/salaries/stats", query)
	if err != nil {
		return Stats{}, errors.Wrap(err, "[salaries.Stats]")
	}
	return transport.Object[Stats](env, "stats")
}

// ForWorker returns one page of a worker's salary history
// (data.salaries plus pagination).
func (c *Client) ForWorker(ctx context.Context, workerID string, page, limit int) (transport.Page[Salary], error) {
	query := url.Values{}
	if page > 0 {
		query.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	env, err := c.api.Get(ctx, "/salaries/worker/"+workerID, query)
	if err != nil {
		return transport.Page[Salary]{}, errors.Wrap(err, "[salaries.ForWorker]")
	}
	items, err := transport.Array[Salary](env, "salaries")
	if err != nil {
		return transport.Page[Salary]{}, err
	}

	result := transport.Page[Salary]{Items: items}
	if env.Pagination != nil {
		result.Pagination = *env.Pagination
	}
	return result, nil
}

func (c *Client) Create(ctx context.Context, input CreateInput) (Salary, error) {
	env, err := c.api.Post(ctx, "/salaries", input)
	if err != nil {
		return Salary{}, errors.Wrap(err, "[salaries.Create]")
	}
	return transport.Object[Salary](env, "salary")
}

func (c *Client) Update(ctx context.Context, id string, input UpdateInput) (Salary, error) {
	env, err := c.api.Put(ctx, "/salaries/"+id, input)
	if err != nil {
		return Salary{}, errors.Wrap(err, "[salaries.Update]")
	}
	return transport.Object[Salary](env, "salary")
}

// Pay marks a salary as paid with the given payment mode.
func (c *Client) Pay(ctx context.Context, id string, input PaymentInput) (Salary, error) {
	env, err := c.api.Patch(ctx, "/salaries/"+id+"/pay", input)
	if err != nil {
		return Salary{}, errors.Wrap(err, "[salaries.Pay]")
	}
	return transport.Object[Salary](env, "salary")
}

// Bulletin fetches the PDF bulletin of an existing salary record.
func (c *Client) Bulletin(ctx context.Context, id string) ([]byte, error) {
	data, err := c.api.GetBinary(ctx, "/salaries/"+id+"/bulletin", nil)
	if err != nil {
		return nil, errors.Wrap(err, "[salaries.Bulletin]")
	}
	return data, nil
}

// BulletinForWorker produces a bulletin for a worker, auto-creating
// the salary record backend-side when needed.
func (c *Client) BulletinForWorker(ctx context.Context, workerID string, mois, annee int) ([]byte, error) {
	body := map[string]any{"worker_id": workerID}
	if mois > 0 {
		body["mois"] = mois
	}
	if annee > 0 {
		body["annee"] = annee
	}

	data, err := c.api.PostBinary(ctx, "/salaries/bulletin", body)
	if err != nil {
		return nil, errors.Wrap(err, "[salaries.BulletinForWorker]")
	}
	return data, nil
}

// GenerateMonth creates salary records for every active worker for the
// given period. Admin only, enforced backend-side.
func (c *Client) GenerateMonth(ctx context.Context, mois, annee int) (GenerateMonthResult, error) {
	env, err := c.api.Post(ctx, "/salaries/generate-month", map[string]int{"mois": mois, "annee": annee})
	if err != nil {
		return GenerateMonthResult{}, errors.Wrap(err, "[salaries.GenerateMonth]")
	}
	return transport.Object[GenerateMonthResult](env, "result")
}

// DownloadBulletin fetches a bulletin and writes it to the download
// directory, returning the file path.
func (c *Client) DownloadBulletin(ctx context.Context, id, workerName string, month, year int) (string, error) {
	data, err := c.Bulletin(ctx, id)
	if err != nil {
		return "", err
	}
	filename := fmt.Sprintf("bulletin_%s_%d_%d.pdf", download.Sanitize(workerName), month, year)
	return download.Save(c.downloadDir, filename, data)
}
