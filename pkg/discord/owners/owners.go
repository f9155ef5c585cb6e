package owners

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/bwmarrin/discordgo"
)

// Set holds user IDs that get elevated command privileges.
type Set map[string]struct{}

func NewSet(ids ...string) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

func (s Set) Add(id string) {
	if id == "" {
		return
	}
	s[id] = struct{}{}
}

func (s Set) Contains(id string) bool {
	_, ok := s[id]
	return ok
}

func (s Set) Len() int { return len(s) }

// IDs returns the members sorted, for stable logging.
func (s Set) IDs() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// ApplicationFetcher is the subset of *discordgo.Session used to read application metadata.
type ApplicationFetcher interface {
	Application(appID string) (*discordgo.Application, error)
}

var _ ApplicationFetcher = (*discordgo.Session)(nil)

// ErrNoOwner is returned when the application payload carries no owner.
var ErrNoOwner = errors.New("application has no registered owner")

// Fetch performs the single application-info call and returns a set containing
// the application's registered owner.
func Fetch(ctx context.Context, api ApplicationFetcher) (Set, *discordgo.Application, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	app, err := api.Application("@me")
	if err != nil {
		return nil, nil, fmt.Errorf("could not access application info: %w", err)
	}
	if app == nil || app.Owner == nil || app.Owner.ID == "" {
		return nil, app, ErrNoOwner
	}
	return NewSet(app.Owner.ID), app, nil
}
