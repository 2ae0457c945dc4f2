package domain

import (
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// FormatDollars formats v the way the catalog writes money: "$1,250".
func FormatDollars(v int) string {
	p := message.NewPrinter(language.English)
	return p.Sprintf("$%d", v)
}

// FormatPercent formats v as "24.99%" without trailing zeros.
func FormatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "%"
}
