package fixtures

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/astronauts/pkg/astronauts"
)

func run(t *testing.T, seed func() ([]astronauts.Astronaut, error), useFixtures func(string), args ...string) (string, error) {
	t.Helper()
	cmd := NewCommand(seed, useFixtures)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	if args == nil {
		// nil makes cobra fall back to os.Args
		args = []string{}
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestFixturesCommand(t *testing.T) {
	t.Run("yaml by default", func(t *testing.T) {
		out, err := run(t, astronauts.Fixtures, nil)
		require.NoError(t, err)
		assert.Contains(t, out, "astronauts:")
		assert.Contains(t, out, "Curtis")

		records, err := astronauts.DecodeFixtures([]byte(out), "output")
		require.NoError(t, err)
		embedded, err := astronauts.Fixtures()
		require.NoError(t, err)
		assert.Equal(t, embedded, records)
	})

	t.Run("json", func(t *testing.T) {
		out, err := run(t, astronauts.Fixtures, nil, "--format", "json")
		require.NoError(t, err)

		var doc struct {
			Astronauts []astronauts.Astronaut `json:"astronauts"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &doc))
		assert.Equal(t, "1111", doc.Astronauts[0].ID)
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := run(t, astronauts.Fixtures, nil, "--format", "toml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid format")
	})

	t.Run("table", func(t *testing.T) {
		out, err := run(t, astronauts.Fixtures, nil, "--format", "table")
		require.NoError(t, err)
		assert.Contains(t, out, "1111")
		assert.Contains(t, out, "Curtis")
		assert.NotContains(t, out, "astronauts:")
	})

	t.Run("wide", func(t *testing.T) {
		out, err := run(t, astronauts.Fixtures, nil, "-f", "wide")
		require.NoError(t, err)
		assert.Contains(t, out, "Artemis Relay")
	})

	t.Run("fixtures flag redirects seed", func(t *testing.T) {
		var got string
		_, err := run(t, astronauts.Fixtures, func(p string) { got = p }, "--fixtures", "crew.yaml")
		require.NoError(t, err)
		assert.Equal(t, "crew.yaml", got)
	})

	t.Run("seed error", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := run(t, func() ([]astronauts.Astronaut, error) { return nil, boom }, nil)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("rejects arguments", func(t *testing.T) {
		_, err := run(t, astronauts.Fixtures, nil, "extra")
		assert.Error(t, err)
	})
}
