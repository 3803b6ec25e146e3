// Package currency renders amounts with each denomination's conventional
// symbol and digit grouping. NPR and INR use South-Asian (lakh/crore)
// grouping, USD uses Western grouping; all render two fraction digits.
package currency

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/creasion/crm/internal/model"
)

type convention struct {
	symbol  string
	spaced  bool // space between symbol and number
	printer *message.Printer
}

var (
	southAsian = message.NewPrinter(language.MustParse("en-IN"))
	western    = message.NewPrinter(language.MustParse("en-US"))

	conventions = map[model.Currency]convention{
		model.NPR: {symbol: "रू", spaced: true, printer: southAsian},
		model.INR: {symbol: "₹", printer: southAsian},
		model.USD: {symbol: "$", printer: western},
	}
)

// Format renders amount in the given currency. An omitted or unknown
// currency defaults to INR. The function is pure: identical inputs
// always yield identical output.
func Format(amount float64, cur model.Currency) string {
	c, ok := conventions[cur]
	if !ok {
		c = conventions[model.INR]
	}
	n := c.printer.Sprint(number.Decimal(amount,
		number.MinFractionDigits(2), number.MaxFractionDigits(2)))
	if c.spaced {
		return c.symbol + " " + n
	}
	return c.symbol + n
}
