// Package identity resolves the acting user for capture sessions from
// configuration. Every pipeline run is attributed to exactly one user; the
// daemon refuses to process sessions until an identity is configured.
package identity

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/mohdateeqmarch2-spec/hriday/internal/config"
	"github.com/mohdateeqmarch2-spec/hriday/internal/services"
)

// User identifies who owns the recordings produced by this agent.
type User struct {
	ID          string
	Email       string
	DisplayName string
}

// FromConfig resolves the acting user from configuration. The display name
// falls back to a title-cased rendering of the email local part.
func FromConfig(cfg *config.Config) (User, error) {
	if cfg == nil {
		return User{}, services.Wrap(services.ErrConfiguration, "identity", "resolve", "configuration unavailable", nil)
	}
	id := strings.TrimSpace(cfg.User.ID)
	email := strings.TrimSpace(cfg.User.Email)
	if id == "" || email == "" {
		return User{}, services.Wrap(services.ErrConfiguration, "identity", "resolve",
			"user id and email must be configured (run 'hriday config init')", nil)
	}

	display := strings.TrimSpace(cfg.User.DisplayName)
	if display == "" {
		display = displayNameFromEmail(email)
	}

	return User{ID: id, Email: email, DisplayName: display}, nil
}

func displayNameFromEmail(email string) string {
	local, _, found := strings.Cut(email, "@")
	if !found || local == "" {
		return email
	}
	fields := strings.FieldsFunc(local, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})
	if len(fields) == 0 {
		return local
	}
	titler := cases.Title(language.Und)
	for i, field := range fields {
		fields[i] = titler.String(field)
	}
	return strings.Join(fields, " ")
}
