package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"
)

func TestNewRegistryKeepsActiveCandidateStatuses(t *testing.T) {
	t.Parallel()

	reg := NewRegistry([]StatusOption{
		{ID: 1, Name: "Screening", Type: StatusTypeCandidate, IsActive: true, Color: "#0ea5e9"},
		{ID: 2, Name: "Archived", Type: StatusTypeCandidate, IsActive: false, Color: "#000000"},
		{ID: 3, Name: "Client review", Type: StatusTypeRecruiter, IsActive: true, Color: "#14b8a6"},
		{ID: 4, Name: "Interview", Type: StatusTypeCandidate, IsActive: true, Color: "#6366f1"},
	})

	stages := reg.Stages()
	require.Len(t, stages, 2)
	require.Equal(t, "Screening", stages[0].Name)
	require.Equal(t, "Interview", stages[1].Name)

	_, ok := reg.Lookup("Archived")
	require.False(t, ok)
	_, ok = reg.Lookup("Client review")
	require.False(t, ok)
}

func TestColorOfFallsBack(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(SeedStatuses())
	require.Equal(t, "#0ea5e9", reg.ColorOf("Screening"))
	require.Equal(t, DefaultColor, reg.ColorOf("Renamed stage"))
	require.Equal(t, DefaultColor, reg.ColorOf("On hold"))
	require.Equal(t, "muted", reg.Tone("Renamed stage"))
	require.Equal(t, "info", reg.Tone("Interview"))

	var nilRegistry *Registry
	require.Equal(t, DefaultColor, nilRegistry.ColorOf("Screening"))
	require.Empty(t, nilRegistry.Stages())
}

func TestColorOfTotalProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)
	reg := NewRegistry(SeedStatuses())

	properties.Property("colour is catalogue colour or default", prop.ForAll(
		func(name string) bool {
			color := reg.ColorOf(name)
			if opt, ok := reg.Lookup(name); ok {
				return color == opt.Color
			}
			return color == DefaultColor
		},
		gen.OneGenOf(gen.AnyString(), gen.OneConstOf("Screening", "Interview", "On hold", "Client review")),
	))

	properties.TestingRun(t)
}

func TestRegistryStagesReturnsCopy(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(SeedStatuses())
	stages := reg.Stages()
	stages[0].Name = "mutated"
	require.Equal(t, "Applied", reg.Stages()[0].Name)
}

func TestFetchStatusesWrapsError(t *testing.T) {
	t.Parallel()

	svc := NewStaticService(nil)
	boom := errors.New("boom")
	svc.SetError(boom)

	_, err := FetchStatuses(context.Background(), svc, "")
	require.ErrorIs(t, err, boom)

	_, err = FetchStatuses(context.Background(), nil, "")
	require.Error(t, err)
}
