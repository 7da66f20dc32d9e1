package runtime

import (
	"testing"

	"github.com/aretw0/tally/pkg/domain"
	"github.com/aretw0/tally/pkg/numeric"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculator_Transform(t *testing.T) {
	calc := NewCalculator()
	piOn := domain.DefaultMode()
	piOff := domain.Mode{Angle: domain.Degrees}

	tests := []struct {
		name  string
		op    Op
		input string
		mode  domain.Mode
		want  string
	}{
		{"totient", OpTotient, "9", piOn, "6"},
		{"totient trims spaces", OpTotient, "  10 ", piOn, "4"},
		{"totient of negative", OpTotient, "-5", piOn, "0"},
		{"prime count", OpPrimeCount, "10", piOn, "4"},
		{"prime count below two", OpPrimeCount, "1", piOn, "0"},
		{"square", OpSquare, "3", piOn, "9.0"},
		{"square of inf", OpSquare, "inf", piOn, "inf"},
		{"reciprocal", OpReciprocal, "4", piOn, "0.25"},
		{"factorize", OpFactorize, "360", piOn, "2^3 x 3^2 x 5"},
		{"factorize negative", OpFactorize, "-12", piOn, "2^2 x 3"},
		{"factorize one", OpFactorize, "1", piOn, "1"},
		{"floor", OpFloor, "2.7", piOn, "2"},
		{"ceil", OpCeil, "-2.5", piOn, "-2"},
		{"floor of large value", OpFloor, "1e20", piOn, "100000000000000000000"},
		{"deg to rad as pi", OpDegToRad, "180", piOn, "π"},
		{"deg to rad exact", OpDegToRad, "180", piOff, "3.141592653589793"},
		{"deg to rad zero", OpDegToRad, "0", piOn, "0"},
		{"rad to deg", OpRadToDeg, "3.141592653589793", piOn, "180.0"},
		{"scientific", OpScientific, "1234.56", piOn, "1.234560 x 10^3"},
		{"scientific of inf", OpScientific, "inf", piOn, "inf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := calc.Transform(tt.op, tt.input, tt.mode)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCalculator_TransformErrors(t *testing.T) {
	calc := NewCalculator(WithLimits(numeric.Limits{Sieve: 100}))

	tests := []struct {
		name  string
		op    Op
		input string
		kind  domain.ErrorKind
	}{
		{"totient of text", OpTotient, "abc", domain.KindInputType},
		{"totient of real", OpTotient, "1.5", domain.KindInputType},
		{"totient beyond int64", OpTotient, "99999999999999999999", domain.KindLimit},
		{"totient beyond bound", OpTotient, "2000000000000000", domain.KindLimit},
		{"prime count beyond bound", OpPrimeCount, "101", domain.KindLimit},
		{"factorize beyond bound", OpFactorize, "-2000000000000000", domain.KindLimit},
		{"square overflow", OpSquare, "1e200", domain.KindArithmetic},
		{"reciprocal of zero", OpReciprocal, "0", domain.KindArithmetic},
		{"floor of inf", OpFloor, "inf", domain.KindArithmetic},
		{"ceil of nan", OpCeil, "nan", domain.KindArithmetic},
		{"deg to rad of inf in pi mode", OpDegToRad, "inf", domain.KindArithmetic},
		{"scientific of text", OpScientific, "x", domain.KindInputType},
		{"expressions are not numbers", OpSquare, "2+2", domain.KindInputType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := calc.Transform(tt.op, tt.input, domain.DefaultMode())
			require.Error(t, err)
			assert.Equal(t, tt.kind, domain.KindOf(err), err.Error())
		})
	}

	_, err := calc.Transform(Op("cube"), "2", domain.DefaultMode())
	assert.Error(t, err)
	assert.Empty(t, domain.KindOf(err))
	assert.ErrorIs(t, err, domain.ErrUnknownTransform)
}

func TestParseOp(t *testing.T) {
	tests := map[string]Op{
		"totient":      OpTotient,
		"totientOf":    OpTotient,
		"SQ":           OpSquare,
		"deg-to-rad":   OpDegToRad,
		"toScientific": OpScientific,
		" floor ":      OpFloor,
	}
	for in, want := range tests {
		got, err := ParseOp(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseOp("nope")
	assert.ErrorIs(t, err, domain.ErrUnknownTransform)
}

func TestTransforms(t *testing.T) {
	list := Transforms()
	require.Len(t, list, 10)
	for i := 1; i < len(list); i++ {
		assert.Less(t, string(list[i-1].Op), string(list[i].Op))
	}
}
