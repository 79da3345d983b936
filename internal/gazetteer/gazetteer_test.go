package gazetteer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	req := require.New(t)

	tests := []struct {
		name  string
		input string
		want  string
		found bool
	}{
		{
			name:  "exact district name",
			input: "tell me about salmiya",
			want:  "salmiya",
			found: true,
		},
		{
			name:  "multi word city",
			input: "flights to new york tonight",
			want:  "new york",
			found: true,
		},
		{
			name:  "declaration order wins when two keys are present",
			input: "compare london with salmiya",
			want:  "salmiya",
			found: true,
		},
		{
			name:  "substring inside an unrelated word still matches",
			input: "tell me a romance story",
			want:  "rome",
			found: true,
		},
		{
			name:  "no key present",
			input: "what is the weather like today",
			found: false,
		},
		{
			name:  "empty input",
			input: "",
			found: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, ok := Lookup(tt.input)
			req.Equal(tt.found, ok)
			if tt.found {
				req.Equal(tt.want, e.Name)
				req.NotZero(e.Zoom)
			}
		})
	}
}

func TestLookupSalmiyaCoordinates(t *testing.T) {
	req := require.New(t)

	e, ok := Lookup("tell me about salmiya")
	req.True(ok)
	req.InDelta(48.0762, e.Center.Lon, 1e-9)
	req.InDelta(29.3339, e.Center.Lat, 1e-9)
	req.Equal(float64(13), e.Zoom)
}

func TestEntriesIsACopy(t *testing.T) {
	req := require.New(t)

	first := Entries()
	first[0].Name = "mutated"

	second := Entries()
	req.Equal("kuwait city", second[0].Name)
}
