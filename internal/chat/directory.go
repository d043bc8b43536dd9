package chat

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/kidzonehq/kidzone-backend/internal/models"
)

// DirectorySource is the one-shot read the directory needs from the
// store.
type DirectorySource interface {
	ListUsers(ctx context.Context) ([]models.User, error)
}

// DisplayIdentity is the resolved display form of a participant. Name is
// always non-empty: the fallback chain bottoms out at a generic label.
type DisplayIdentity struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	PhotoURL string `json:"photoUrl"`
}

// fallbackLabel is used when a user carries no display attributes at all.
const fallbackLabel = "User"

// ResolveDisplay picks the display name through an explicit priority
// chain: full name, then username, then email, then a generic label.
func ResolveDisplay(u models.User) DisplayIdentity {
	name := u.Name
	if name == "" {
		name = u.Username
	}
	if name == "" {
		name = u.Email
	}
	if name == "" {
		name = fallbackLabel
	}
	return DisplayIdentity{ID: u.ID, Name: name, PhotoURL: u.Image}
}

// Directory is the loaded set of candidate recipients for one user,
// excluding the user themselves. It is a one-shot snapshot; staleness is
// acceptable and there are no live updates.
type Directory struct {
	users []models.User
	byID  map[string]models.User
}

// LoadDirectory fetches all directory entries and filters out selfID. A
// fetch error degrades to an empty directory and is logged; it never
// takes the rest of the subsystem down.
func LoadDirectory(ctx context.Context, src DirectorySource, selfID string, log zerolog.Logger) *Directory {
	d := &Directory{byID: make(map[string]models.User)}

	users, err := src.ListUsers(ctx)
	if err != nil {
		log.Error().Err(err).Msg("directory fetch failed, continuing with empty recipient list")
		return d
	}

	for _, u := range users {
		if u.ID == selfID {
			continue
		}
		d.users = append(d.users, u)
		d.byID[u.ID] = u
	}
	return d
}

// Candidates returns the recipients in directory order.
func (d *Directory) Candidates() []models.User {
	return append([]models.User(nil), d.users...)
}

// Lookup returns the directory entry for id, if present.
func (d *Directory) Lookup(id string) (models.User, bool) {
	u, ok := d.byID[id]
	return u, ok
}

// DisplayFor resolves the display identity for id. Unknown ids still get
// a usable identity with the generic label.
func (d *Directory) DisplayFor(id string) DisplayIdentity {
	if u, ok := d.byID[id]; ok {
		return ResolveDisplay(u)
	}
	return DisplayIdentity{ID: id, Name: fallbackLabel}
}
