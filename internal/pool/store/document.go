package store

import (
	"cognito-emulator/internal/pool/domain"
)

// document is the persisted shape of a pool: the pool metadata plus the
// full users/groups/clients tables. Map keys are canonical lookup keys
// (lowercased usernames / group names / client ids). Secondary indexes are
// derived on load and never persisted.
type document struct {
	Pool    domain.UserPool              `json:"Pool"`
	Users   map[string]*domain.User      `json:"Users"`
	Groups  map[string]*domain.Group     `json:"Groups"`
	Clients map[string]*domain.AppClient `json:"Clients"`
}

func newDocument(pool domain.UserPool) *document {
	return &document{
		Pool:    pool,
		Users:   make(map[string]*domain.User),
		Groups:  make(map[string]*domain.Group),
		Clients: make(map[string]*domain.AppClient),
	}
}

// normalize repairs nil maps after JSON decoding of older documents.
func (d *document) normalize() {
	if d.Users == nil {
		d.Users = make(map[string]*domain.User)
	}
	if d.Groups == nil {
		d.Groups = make(map[string]*domain.Group)
	}
	if d.Clients == nil {
		d.Clients = make(map[string]*domain.AppClient)
	}
}
