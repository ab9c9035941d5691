// Package users manages back-office accounts: registration, admin
// creation of assistant accounts, profile and password updates. The
// login flow itself lives in the session store.
package users

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/salihate/backoffice/identity"
	"github.com/salihate/backoffice/transport"
)

// RegisterInput is the public signup form. Validation errors are
// rejected here, before any network call, and surfaced inline.
type RegisterInput struct {
	Nom             string
	Prenom          string
	Email           string
	Telephone       string
	Password        string
	ConfirmPassword string
	Role            identity.Role
	AdminSecretKey  string
}

func (in RegisterInput) Validate() error {
	if in.Nom == "" || in.Prenom == "" || in.Email == "" {
		return errors.New("nom, prenom and email are required")
	}
	if err := ValidatePhone(in.Telephone); err != nil {
		return err
	}
	return validatePasswordPair(in.Password, in.ConfirmPassword)
}

// AssistantInput is the admin-side form for creating an assistant
// account. The role is forced to ASSISTANT regardless of input.
type AssistantInput struct {
	Nom             string
	Prenom          string
	Email           string
	Password        string
	ConfirmPassword string
}

func (in AssistantInput) Validate() error {
	if in.Nom == "" || in.Prenom == "" || in.Email == "" {
		return errors.New("nom, prenom and email are required")
	}
	return validatePasswordPair(in.Password, in.ConfirmPassword)
}

type ProfileInput struct {
	Nom    string `json:"nom,omitempty"`
	Prenom string `json:"prenom,omitempty"`
	Email  string `json:"email,omitempty"`
}

type ChangePasswordInput struct {
	CurrentPassword string
	NewPassword     string
	ConfirmPassword string
}

func (in ChangePasswordInput) Validate() error {
	if in.CurrentPassword == "" {
		return errors.New("current password is required")
	}
	return validatePasswordPair(in.NewPassword, in.ConfirmPassword)
}

type Client struct {
	api *transport.Client
}

func New(api *transport.Client) *Client {
	return &Client{api: api}
}

// Register signs a new account up. The backend expects the phone under
// "contact" and the role uppercased.
func (c *Client) Register(ctx context.Context, input RegisterInput) error {
	if err := input.Validate(); err != nil {
		return errors.Wrap(err, "[users.Register]")
	}

	body := map[string]string{
		"nom":      input.Nom,
		"prenom":   input.Prenom,
		"email":    input.Email,
		"contact":  input.Telephone,
		"password": input.Password,
		"role":     strings.ToUpper(string(input.Role)),
	}
	if input.AdminSecretKey != "" {
		body["adminSecretKey"] = input.AdminSecretKey
	}

	env, err := c.api.Post(ctx, "/auth/register", body)
	if err != nil {
		return errors.Wrap(err, "[users.Register]")
	}
	if !env.Success {
		return errors.Errorf("[users.Register] backend refused: %s", env.Message)
	}
	return nil
}

// CreateAssistant creates an assistant account through the protected
// admin endpoint.
func (c *Client) CreateAssistant(ctx context.Context, input AssistantInput) error {
	if err := input.Validate(); err != nil {
		return errors.Wrap(err, "[users.CreateAssistant]")
	}

	body := map[string]string{
		"nom":      input.Nom,
		"prenom":   input.Prenom,
		"email":    input.Email,
		"password": input.Password,
		"role":     string(identity.RoleAssistant),
	}

	env, err := c.api.Post(ctx, "/auth/users", body)
	if err != nil {
		return errors.Wrap(err, "[users.CreateAssistant]")
	}
	if !env.Success {
		return errors.Errorf("[users.CreateAssistant] backend refused: %s", env.Message)
	}
	return nil
}

// List returns every account; the backend nests them under data.users.
func (c *Client) List(ctx context.Context) ([]identity.Identity, error) {
	env, err := c.api.Get(ctx, "/auth/users", nil)
	if err != nil {
		return nil, errors.Wrap(err, "[users.List]")
	}
	return transport.Array[identity.Identity](env, "users")
}

// UpdateProfile changes the authenticated account's own details and
// returns the updated identity so the session can refresh its copy.
func (c *Client) UpdateProfile(ctx context.Context, input ProfileInput) (identity.Identity, error) {
	env, err := c.api.Put(ctx, "/auth/me", input)
	if err != nil {
		return identity.Identity{}, errors.Wrap(err, "[users.UpdateProfile]")
	}
	return transport.Object[identity.Identity](env, "user")
}

func (c *Client) ChangePassword(ctx context.Context, input ChangePasswordInput) error {
	if err := input.Validate(); err != nil {
		return errors.Wrap(err, "[users.ChangePassword]")
	}

	body := map[string]string{
		"currentPassword": input.CurrentPassword,
		"newPassword":     input.NewPassword,
	}
	env, err := c.api.Put(ctx, "/auth/change-password", body)
	if err != nil {
		return errors.Wrap(err, "[users.ChangePassword]")
	}
	if !env.Success {
		return errors.Errorf("[users.ChangePassword] backend refused: %s", env.Message)
	}
	return nil
}
