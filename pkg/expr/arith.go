package expr

import (
	"math"
	"math/big"

	"github.com/aretw0/tally/pkg/domain"
)

// MaxIntBits bounds the size of exact integer results.
const MaxIntBits = 1 << 17

func arithErr(format string, args ...any) error {
	return domain.NewError(domain.KindArithmetic, format, args...)
}

// toFloat converts an operand for real arithmetic.
func toFloat(v domain.Value) (float64, error) {
	f := v.Float64()
	if v.IsInteger() && math.IsInf(f, 0) {
		return 0, arithErr("integer too large to convert to float")
	}
	return f, nil
}

func checkIntSize(i *big.Int) (domain.Value, error) {
	if i.BitLen() > MaxIntBits {
		return domain.Value{}, domain.NewError(domain.KindLimit, "integer result exceeds %d bits", MaxIntBits)
	}
	return domain.IntValue(i), nil
}

func negate(v domain.Value) domain.Value {
	if v.IsInteger() {
		return domain.IntValue(new(big.Int).Neg(v.Int))
	}
	return domain.RealValue(-v.Real)
}

func binary(op Op, a, b domain.Value) (domain.Value, error) {
	if a.IsInteger() && b.IsInteger() {
		return intBinary(op, a.Int, b.Int)
	}
	x, err := toFloat(a)
	if err != nil {
		return domain.Value{}, err
	}
	y, err := toFloat(b)
	if err != nil {
		return domain.Value{}, err
	}
	return floatBinary(op, x, y)
}

func intBinary(op Op, x, y *big.Int) (domain.Value, error) {
	switch op {
	case OpAdd:
		return checkIntSize(new(big.Int).Add(x, y))
	case OpSub:
		return checkIntSize(new(big.Int).Sub(x, y))
	case OpMul:
		return checkIntSize(new(big.Int).Mul(x, y))
	case OpDiv:
		if y.Sign() == 0 {
			return domain.Value{}, arithErr("division by zero")
		}
		f, _ := new(big.Rat).SetFrac(x, y).Float64()
		if math.IsInf(f, 0) {
			return domain.Value{}, arithErr("integer division result too large for a float")
		}
		return domain.RealValue(f), nil
	case OpMod:
		if y.Sign() == 0 {
			return domain.Value{}, arithErr("integer modulo by zero")
		}
		// Result takes the sign of the divisor.
		r := new(big.Int).Rem(x, y)
		if r.Sign() != 0 && r.Sign() != y.Sign() {
			r.Add(r, y)
		}
		return domain.IntValue(r), nil
	case OpPow:
		return intPow(x, y)
	}
	return domain.Value{}, arithErr("unsupported operator %s", op)
}

func intPow(x, y *big.Int) (domain.Value, error) {
	if y.Sign() < 0 {
		fx, _ := new(big.Float).SetInt(x).Float64()
		fy, _ := new(big.Float).SetInt(y).Float64()
		return floatBinary(OpPow, fx, fy)
	}
	switch {
	case x.Sign() == 0:
		if y.Sign() == 0 {
			return domain.Int64Value(1), nil
		}
		return domain.Int64Value(0), nil
	case x.CmpAbs(big.NewInt(1)) == 0:
		if x.Sign() < 0 && y.Bit(0) == 1 {
			return domain.Int64Value(-1), nil
		}
		return domain.Int64Value(1), nil
	}
	if !y.IsInt64() || y.Int64() > MaxIntBits || int64(x.BitLen()-1)*y.Int64() > MaxIntBits {
		return domain.Value{}, domain.NewError(domain.KindLimit, "integer result exceeds %d bits", MaxIntBits)
	}
	return checkIntSize(new(big.Int).Exp(x, y, nil))
}

func floatBinary(op Op, x, y float64) (domain.Value, error) {
	switch op {
	case OpAdd:
		return domain.RealValue(x + y), nil
	case OpSub:
		return domain.RealValue(x - y), nil
	case OpMul:
		return domain.RealValue(x * y), nil
	case OpDiv:
		if y == 0 {
			return domain.Value{}, arithErr("float division by zero")
		}
		return domain.RealValue(x / y), nil
	case OpMod:
		if y == 0 {
			return domain.Value{}, arithErr("float modulo by zero")
		}
		r := math.Mod(x, y)
		if r != 0 && (r < 0) != (y < 0) {
			r += y
		} else if r == 0 {
			r = math.Copysign(0, y)
		}
		return domain.RealValue(r), nil
	case OpPow:
		return floatPow(x, y)
	}
	return domain.Value{}, arithErr("unsupported operator %s", op)
}

func floatPow(x, y float64) (domain.Value, error) {
	if x == 0 && y < 0 {
		return domain.Value{}, arithErr("0.0 cannot be raised to a negative power")
	}
	if x < 0 && y != math.Trunc(y) && !math.IsInf(y, 0) {
		return domain.Value{}, arithErr("negative number cannot be raised to a fractional power")
	}
	r := math.Pow(x, y)
	if math.IsInf(r, 0) && !math.IsInf(x, 0) && !math.IsInf(y, 0) {
		return domain.Value{}, arithErr("numerical result out of range")
	}
	return domain.RealValue(r), nil
}
