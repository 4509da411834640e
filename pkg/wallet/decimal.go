package wallet

import (
	"fmt"

	"github.com/cockroachdb/apd/v3"
)

// decimalCtx is used for all wallet arithmetic. Division needs a precision.
var decimalCtx = func() *apd.Context {
	c := apd.BaseContext.WithPrecision(34)
	c.Rounding = apd.RoundHalfEven
	return c
}()

var hundred = apd.New(100, 0)

// NaN is the value of an average over no transactions.
func NaN() apd.Decimal {
	return apd.Decimal{Form: apd.NaN}
}

func IsNaN(d *apd.Decimal) bool {
	return d.Form == apd.NaN || d.Form == apd.NaNSignaling
}

// quo divides x by y; a zero divisor or a NaN operand yields NaN.
func quo(x, y *apd.Decimal) (apd.Decimal, error) {
	if y.IsZero() || IsNaN(x) || IsNaN(y) {
		return NaN(), nil
	}
	var d apd.Decimal
	_, err := decimalCtx.Quo(&d, x, y)
	return d, err
}

func abs(x *apd.Decimal) apd.Decimal {
	var d apd.Decimal
	d.Abs(x)
	return d
}

// FormatPercent renders d with the given number of decimal places and a
// percent sign, or "-" for NaN.
func FormatPercent(d *apd.Decimal, places int32) string {
	if IsNaN(d) {
		return "-"
	}
	var r apd.Decimal
	if _, err := decimalCtx.Quantize(&r, d, -places); err != nil {
		return fmt.Sprintf("%s%%", d.Text('f'))
	}
	return r.Text('f') + "%"
}
