package catalogue

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cat, err := Default()
	require.NoError(t, err)

	assert.Equal(t, "full-negotiation", cat.DefaultPathway)
	assert.Len(t, cat.Pathways, 3)
	assert.NotEmpty(t, cat.ClauseTemplates)

	foundation, err := cat.Stage("foundation")
	require.NoError(t, err)
	assert.Equal(t, 70, foundation.MinAlignment)

	priorities, err := cat.Stage("priorities")
	require.NoError(t, err)
	assert.True(t, priorities.RequiresValidBudget)

	fast, err := cat.Pathway("fast-track")
	require.NoError(t, err)
	assert.Equal(t, []string{"leverage", "priorities"}, fast.Skip)
	assert.Equal(t, []string{"intake", "foundation", "clauses", "review", "contract"}, fast.Reachable())

	straight, err := cat.Pathway("straight-to-contract")
	require.NoError(t, err)
	assert.Equal(t, []string{"intake", "review", "contract"}, straight.Reachable())
}

func TestParseYAML_Normalizes(t *testing.T) {
	cat, err := ParseYAML([]byte(`
stages:
  - id: " a "
  - id: b
pathways:
  - id: p
    stages: [" a ", b]
`))
	require.NoError(t, err)

	assert.Equal(t, "p", cat.DefaultPathway, "first pathway becomes the default")
	assert.Equal(t, "a", cat.Stages[0].ID)
	assert.Equal(t, "a", cat.Stages[0].Name, "name defaults to id")
	assert.Equal(t, []string{"a", "b"}, cat.Pathways[0].Stages)
}

func TestParseYAML_Errors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{name: "empty", yaml: "  \n", wantErr: "payload is empty"},
		{name: "unknown field", yaml: "stages: []\nbogus: 1\n", wantErr: "decode"},
		{name: "no pathways", yaml: "stages:\n  - id: a\n", wantErr: "at least one pathway"},
		{
			name:    "pathway references unknown stage",
			yaml:    "stages:\n  - id: a\npathways:\n  - id: p\n    stages: [a, z]\n",
			wantErr: "unknown stage z",
		},
		{
			name:    "skip outside sequence",
			yaml:    "stages:\n  - id: a\n  - id: b\npathways:\n  - id: p\n    stages: [a]\n    skip: [b]\n",
			wantErr: "not in its sequence",
		},
		{
			name:    "transition references unknown pathway",
			yaml:    "stages:\n  - id: a\n  - id: b\npathways:\n  - id: p\n    stages: [a, b]\ntransitions:\n  - id: t\n    from: a\n    to: b\n    pathways: [q]\n",
			wantErr: "unknown pathway q",
		},
		{
			name:    "unknown default pathway",
			yaml:    "default_pathway: q\nstages:\n  - id: a\npathways:\n  - id: p\n    stages: [a]\n",
			wantErr: "default_pathway",
		},
		{
			name:    "template without title",
			yaml:    "stages:\n  - id: a\npathways:\n  - id: p\n    stages: [a]\nclause_templates:\n  - priority: 3\n",
			wantErr: "title is required",
		},
		{
			name:    "template priority out of range",
			yaml:    "stages:\n  - id: a\npathways:\n  - id: p\n    stages: [a]\nclause_templates:\n  - title: X\n    priority: 11\n",
			wantErr: "priority 11",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseYAML([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad(t *testing.T) {
	t.Run("empty path uses embedded default", func(t *testing.T) {
		cat, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, "full-negotiation", cat.DefaultPathway)
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "catalogue.yaml")
		require.NoError(t, os.WriteFile(path, []byte("stages:\n  - id: only\npathways:\n  - id: solo\n    stages: [only]\n"), 0644))

		cat, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "solo", cat.DefaultPathway)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		require.Error(t, err)
	})
}

func TestMarshalRoundTrip(t *testing.T) {
	cat, err := Default()
	require.NoError(t, err)

	data, err := cat.Marshal()
	require.NoError(t, err)

	again, err := LoadReader(strings.NewReader(string(data)))
	require.NoError(t, err)
	assert.Equal(t, cat, again)
}
