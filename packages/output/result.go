package output

import (
	"time"

	"github.com/abdul-hamid-achik/restvars/packages/auth"
	"github.com/abdul-hamid-achik/restvars/packages/capture"
	"github.com/abdul-hamid-achik/restvars/packages/http"
	"github.com/abdul-hamid-achik/restvars/packages/script"
)

// Unresolved is a placeholder that no token or variable matched.
type Unresolved struct {
	Name        string   `json:"name"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// Resolution is a request after variable substitution.
type Resolution struct {
	Request     string         `json:"request"`
	Environment string         `json:"environment,omitempty"`
	Prepared    *http.Prepared `json:"prepared"`
	Unresolved  []Unresolved   `json:"unresolved,omitempty"`
}

// Extraction lists what a response yields for the token store.
type Extraction struct {
	StatusCode int                      `json:"statusCode"`
	Candidates []capture.ExtractedToken `json:"candidates"`
	Captures   []script.Capture         `json:"captures,omitempty"`
	Saved      []auth.Token             `json:"saved,omitempty"`
}

// TokenView is a token as listed to the user. Value is masked unless the
// listing was asked to reveal it.
type TokenView struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Value     string     `json:"value"`
	Source    string     `json:"source"`
	UpdatedAt time.Time  `json:"updatedAt"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	Expired   bool       `json:"expired,omitempty"`
}

// NewTokenView builds the listing row for t as of now.
func NewTokenView(t auth.Token, reveal bool, now time.Time) TokenView {
	v := TokenView{
		ID:        t.ID,
		Name:      t.Name,
		Value:     t.Masked(),
		Source:    string(t.Source),
		UpdatedAt: t.UpdatedAt,
	}
	if reveal {
		v.Value = t.Value
	}
	if exp, ok := t.ExpiresAt(); ok {
		v.ExpiresAt = &exp
		v.Expired = !exp.After(now)
	}
	return v
}
