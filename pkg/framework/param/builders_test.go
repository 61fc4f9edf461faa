package param

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type formatCase struct {
	plain float64
	want  string
}

type parseCase struct {
	in    string
	plain float64
}

func checkFormat(t *testing.T, p *Parameter, cases []formatCase) {
	t.Helper()
	for _, c := range cases {
		assert.Equal(t, c.want, p.FormatValue(p.Normalize(c.plain)), "plain %v", c.plain)
	}
}

func checkParse(t *testing.T, p *Parameter, tol float64, cases []parseCase) {
	t.Helper()
	for _, c := range cases {
		n, err := p.ParseValue(c.in)
		if assert.NoError(t, err, c.in) {
			assert.InDelta(t, c.plain, p.Denormalize(n), tol, c.in)
		}
	}
}

func TestChoice(t *testing.T) {
	p := Choice("mode", "Mode", []ChoiceOption{
		{Name: "Off", Aliases: []string{"disabled", "none"}},
		{Name: "Low", Aliases: []string{"lo"}},
		{Name: "Medium", Aliases: []string{"med", "mid"}},
		{Name: "High", Aliases: []string{"hi"}},
	}).Build()

	checkFormat(t, p, []formatCase{{0, "Off"}, {1, "Low"}, {2, "Medium"}, {3, "High"}})
	checkParse(t, p, 1e-3, []parseCase{
		{"Off", 0}, {"disabled", 0}, {"low", 1}, {"LO", 1},
		{"mid", 2}, {"High", 3}, {"3", 3},
	})

	for _, bad := range []string{"turbo", "4", "1.5"} {
		_, err := p.ParseValue(bad)
		assert.Error(t, err, bad)
	}
}

func TestGainParameter(t *testing.T) {
	p := GainParameter("out", "Output Gain").Build()
	checkFormat(t, p, []formatCase{{-80, "-∞ dB"}, {0, "0.0 dB"}, {6, "6.0 dB"}, {-6, "-6.0 dB"}})
	checkParse(t, p, 1e-9, []parseCase{{"-inf dB", -80}, {"-6dB", -6}, {" 3 db ", 3}})
}

func TestLevelParameter(t *testing.T) {
	p := LevelParameter("level", "Level", 12).Build()

	assert.Equal(t, "12.0 dB", p.FormatValue(1))
	assert.Equal(t, "-∞ dB", p.FormatValue(0))
	checkParse(t, p, 1e-5, []parseCase{{"-6 dB", 0.501187}, {"0", 1}})
}

func TestMixParameter(t *testing.T) {
	p := MixParameter("mix", "Mix").Build()

	assert.Equal(t, 0.0, p.Range.Min)
	assert.Equal(t, 100.0, p.Range.Max)
	assert.Equal(t, 1.0, p.DefaultNormalized())
	checkParse(t, p, 1e-9, []parseCase{{"25%", 25}, {"50", 50}})
}

func TestTimeParameter(t *testing.T) {
	p := TimeParameter("attack", "Attack", 0.1, 5000, 10).Build()

	checkFormat(t, p, []formatCase{{10, "10.0 ms"}, {100, "100.0 ms"}, {2500, "2.50 s"}})
	checkParse(t, p, 0.1, []parseCase{
		{"10 ms", 10}, {"10ms", 10}, {"1 s", 1000}, {"2.5s", 2500}, {"500us", 0.5},
	})
}

func TestPanParameter(t *testing.T) {
	p := PanParameter("pan", "Pan").Build()

	checkFormat(t, p, []formatCase{{0, "C"}, {-0.5, "50L"}, {0.5, "50R"}, {-1, "100L"}, {1, "100R"}})
	checkParse(t, p, 1e-3, []parseCase{
		{"center", 0}, {"c", 0}, {"50L", -0.5}, {"50 r", 0.5}, {"0.75", 0.75},
	})
}

func TestBypassParameter(t *testing.T) {
	p := BypassParameter("bypass", "Bypass").Build()

	assert.NotZero(t, p.Flags&IsBypass)
	assert.Equal(t, "Bypassed", p.FormatValue(1))
	assert.Equal(t, "Active", p.FormatValue(0))

	for _, in := range []string{"on", "Bypassed"} {
		n, err := p.ParseValue(in)
		require.NoError(t, err)
		assert.Equal(t, 1.0, n, in)
	}
	_, err := p.ParseValue("maybe")
	assert.Error(t, err)
}

func TestBuilderFlags(t *testing.T) {
	p := New("meter", "Meter").Group(3).ShortName("Mtr").ReadOnly().Hidden().Build()

	assert.Equal(t, int32(3), p.UnitID)
	assert.Equal(t, "Mtr", p.ShortName)
	assert.NotZero(t, p.Flags&IsReadOnly)
	assert.NotZero(t, p.Flags&IsHidden)
	assert.Zero(t, p.Flags&CanAutomate)
}
