package notation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPasses(t *testing.T) {
	tests := []struct {
		name string
		pass Pass
		in   string
		want string
	}{
		{"power", Power, "2^10", "2**10"},
		{"times", Times, "3x4", "3*4"},
		{"times matches inside names", Times, "exp(1)", "e*p(1)"},
		{"pi", Pi, "2π", "23.141592653589793"},
		{"abs", Abs, "|-5|", "abs(-5)"},
		{"abs pairs left to right", Abs, "|1|+|2|", "abs(1)+abs(2)"},
		{"abs does not nest", Abs, "||-1||", "|abs(-1)|"},
		{"factorial", Factorial, "5!", "factorial(5)"},
		{"factorial keeps leading minus", Factorial, "-1!", "factorial(-1)"},
		{"factorial keeps decimals", Factorial, "2.5!", "factorial(2.5)"},
		{"factorial after binary minus", Factorial, "3-1!", "3-factorial(1)"},
		{"factorial after operator keeps unary minus", Factorial, "2*-3!", "2*-factorial(3)"},
		{"factorial keeps minus opening a group", Factorial, "(-1!)", "(factorial(-1))"},
		{"factorial ignores groups", Factorial, "(2+3)!", "(2+3)!"},
		{"factorial several", Factorial, "10!/8!", "factorial(10)/factorial(8)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.pass.Rewrite(tt.in))
		})
	}
}

func TestPreprocess(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2^10", "2**10"},
		{"|-5|", "abs(-5)"},
		{"5!", "factorial(5)"},
		{"2xπ", "2*3.141592653589793"},
		{"|3-10|^2", "abs(3-10)**2"},
		{"sin(90)", "sin(90)"},
		{"π!", "factorial(3.141592653589793)"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Preprocess(tt.in))
		})
	}
}

func TestPipeline_Trace(t *testing.T) {
	steps := Pipeline(DefaultPasses).Trace("|2^3x2|!")
	assert.Equal(t, []string{
		"|2**3x2|!",
		"|2**3*2|!",
		"|2**3*2|!",
		"abs(2**3*2)!",
		"abs(2**3*2)!",
	}, steps)
}
