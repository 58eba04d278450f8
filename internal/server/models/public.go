package models

import "time"

// PublicAccount is the only shape in which an account is serialized to a
// client.
type PublicAccount struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	Age       *int      `json:"age,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Public projects the account onto its client-facing view, dropping the
// password hash and session tokens.
func (a *Account) Public() PublicAccount {
	p := PublicAccount{
		ID:        a.ID,
		Email:     a.Email,
		Name:      a.Name,
		CreatedAt: a.CreatedAt,
	}
	if a.Age != nil {
		age := *a.Age
		p.Age = &age
	}
	return p
}
