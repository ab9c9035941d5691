// Package dashboard is the client for the landing screen: aggregate
// statistics, the recent-activity feed and notifications.
package dashboard

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/pkg/errors"

	"github.com/salihate/backoffice/transport"
)

type Period struct {
	Mois  int `json:"mois"`
	Annee int `json:"annee"`
}

type WorkerStats struct {
	Total  int `json:"total"`
	Actifs int `json:"actifs"`
}

type SalaryStats struct {
	Total     float64 `json:"total"`
	Paye      float64 `json:"paye"`
	EnAttente float64 `json:"enAttente"`
	Restant   float64 `json:"restant"`
}

type StockStats struct {
	TotalProducts int `json:"totalProducts"`
	Alertes       int `json:"alertes"`
	Ruptures      int `json:"ruptures"`
}

type CustomerStats struct {
	Total         int     `json:"total"`
	EnCours       int     `json:"enCours"`
	TotalContrats float64 `json:"totalContrats"`
	TotalPaye     float64 `json:"totalPaye"`
	TotalDu       float64 `json:"totalDu"`
}

type AlertProduct struct {
	ID               string  `json:"id"`
	Nom              string  `json:"nom"`
	QuantiteActuelle float64 `json:"quantite_actuelle"`
	SeuilAlerte      float64 `json:"seuil_alerte"`
	Statut           string  `json:"statut"`
}

type Stats struct {
	Period        Period         `json:"period"`
	Workers       WorkerStats    `json:"workers"`
	Salaries      SalaryStats    `json:"salaries"`
	Stock         StockStats     `json:"stock"`
	Clients       *CustomerStats `json:"clients,omitempty"`
	AlertProducts []AlertProduct `json:"alertProducts"`
}

type Activity struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Details     string          `json:"details"`
	User        string          `json:"user,omitempty"`
	Amount      float64         `json:"amount,omitempty"`
	Date        string          `json:"date"`
	Icon        string          `json:"icon,omitempty"`
	Color       string          `json:"color,omitempty"`
	Raw         json.RawMessage `json:"-"`
}

type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

type Notification struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Title     string          `json:"title"`
	Message   string          `json:"message"`
	IsRead    bool            `json:"is_read"`
	Priority  Priority        `json:"priority"`
	CreatedAt string          `json:"created_at"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// NotificationFilter narrows the notification listing.
type NotificationFilter struct {
	Page  int
	Limit int
	Type  string
}

type Client struct {
	api *transport.Client
}

func New(api *transport.Client) *Client {
	return &Client{api: api}
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

	env, err := c.api.Get(ctx, "/dashboard/stats", query)
	if err != nil {
		return Stats{}, errors.Wrap(err, "[dashboard.Stats]")
	}
	return transport.Object[Stats](env, "stats")
}

func (c *Client) RecentActivities(ctx context.Context, limit int) ([]Activity, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	env, err := c.api.Get(ctx, "/dashboard/activities", query)
	if err != nil {
		return nil, errors.Wrap(err, "[dashboard.RecentActivities]")
	}
	return transport.Array[Activity](env, "activities")
}

// Notifications tolerates the widest envelope drift of any listing:
// bare array, data.items and data.notifications have all been seen.
func (c *Client) Notifications(ctx context.Context, filter NotificationFilter) ([]Notification, error) {
	query := url.Values{}
	if filter.Page > 0 {
		query.Set("page", strconv.Itoa(filter.Page))
	}
	if filter.Limit > 0 {
		query.Set("limit", strconv.Itoa(filter.Limit))
	}
	if filter.Type != "" {
		query.Set("type", filter.Type)
	}

	env, err := c.api.Get(ctx, "/notifications", query)
	if err != nil {
		return nil, errors.Wrap(err, "[dashboard.Notifications]")
	}
	return transport.Array[Notification](env, "notifications")
}

func (c *Client) MarkRead(ctx context.Context, id string) error {
	if _, err := c.api.Put(ctx, "/notifications/"+id+"/read", nil); err != nil {
		return errors.Wrap(err, "[dashboard.MarkRead]")
	}
	return nil
}

func (c *Client) MarkAllRead(ctx context.Context) error {
	if _, err := c.api.Put(ctx, "/notifications/read-all", nil); err != nil {
		return errors.Wrap(err, "[dashboard.MarkAllRead]")
	}
	return nil
}

// Overview is what the landing screen renders: stats and activities
// fetched concurrently and joined all-or-nothing.
type Overview struct {
	Stats      Stats
	Activities []Activity
}

func (c *Client) Overview(ctx context.Context, month, year, activityLimit int) (Overview, error) {
	var overview Overview
	var errStats, errActivities error

	done := make(chan struct{}, 2)
	go func() {
		overview.Stats, errStats = c.Stats(ctx, month, year)
		done <- struct{}{}
	}()
	go func() {
		overview.Activities, errActivities = c.RecentActivities(ctx, activityLimit)
		done <- struct{}{}
	}()
	<-done
	<-done

	if errStats != nil {
		return Overview{}, errors.Wrap(errStats, "[dashboard.Overview]")
	}
	if errActivities != nil {
		return Overview{}, errors.Wrap(errActivities, "[dashboard.Overview]")
	}
	return overview, nil
}
