package app

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/jasselhoff/festival-planner/internal/domain"
	"github.com/jasselhoff/festival-planner/internal/logging"
	"github.com/jasselhoff/festival-planner/internal/metrics"
)

// BuildPlaylist ranks the group's selected acts by popularity and, when an
// external music provider is configured, pushes the list there as well.
// Concurrent builds for the same group and name are collapsed into one.
func (s *Service) BuildPlaylist(ctx context.Context, callerID, groupID uuid.UUID, name string) (*domain.Playlist, error) {
	group, err := s.memberGroup(ctx, callerID, groupID)
	if err != nil {
		return nil, err
	}

	if name == "" {
		name = group.Name + " Mix"
	}

	key := groupID.String() + ":" + name
	v, err, _ := s.buildGroup.Do(key, func() (any, error) {
		return s.buildPlaylist(ctx, groupID, name)
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Playlist), nil
}

func (s *Service) buildPlaylist(ctx context.Context, groupID uuid.UUID, name string) (*domain.Playlist, error) {
	entries, err := s.selections.ListEntries(ctx, groupID)
	if err != nil {
		metrics.PlaylistBuildsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	playlist := &domain.Playlist{
		Name:   name,
		Tracks: rankTracks(entries),
	}

	if s.playlists == nil {
		metrics.PlaylistBuildsTotal.WithLabelValues("local").Inc()
		return playlist, nil
	}

	artists := make([]string, len(playlist.Tracks))
	for i, track := range playlist.Tracks {
		artists[i] = track.ActName
	}

	ref, err := s.playlists.CreatePlaylist(ctx, name, artists)
	if err != nil {
		metrics.PlaylistBuildsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to create external playlist: %w", err)
	}

	playlist.External = ref
	metrics.PlaylistBuildsTotal.WithLabelValues("external").Inc()
	logging.WithGroup(groupID.String()).Info("Playlist pushed to provider", "playlist_id", ref.ID)
	return playlist, nil
}

// rankTracks orders a group's selected acts by how many members picked them,
// most popular first, ties broken by act name and then selection order.
func rankTracks(entries []domain.SelectionEntry) []domain.PlaylistEntry {
	type agg struct {
		name  string
		count int
	}

	order := make([]uuid.UUID, 0, len(entries))
	byAct := make(map[uuid.UUID]*agg)
	for _, e := range entries {
		a, seen := byAct[e.ActID]
		if !seen {
			a = &agg{name: e.ActName}
			byAct[e.ActID] = a
			order = append(order, e.ActID)
		}
		a.count++
	}

	tracks := make([]domain.PlaylistEntry, 0, len(order))
	for _, actID := range order {
		a := byAct[actID]
		tracks = append(tracks, domain.PlaylistEntry{ActName: a.name, SelectedBy: a.count})
	}

	sort.SliceStable(tracks, func(i, j int) bool {
		if tracks[i].SelectedBy != tracks[j].SelectedBy {
			return tracks[i].SelectedBy > tracks[j].SelectedBy
		}
		return tracks[i].ActName < tracks[j].ActName
	})

	return tracks
}
