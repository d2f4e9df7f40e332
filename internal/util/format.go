package util

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var idPrinter = message.NewPrinter(language.Indonesian)

// FormatNumber renders n with id-ID thousands separators, e.g. 500.000.
func FormatNumber(n int64) string {
	return idPrinter.Sprintf("%d", n)
}

var idMonths = [...]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

// FormatDateID renders t as "2 Januari 2006" with Indonesian month names.
func FormatDateID(t time.Time) string {
	return fmt.Sprintf("%d %s %d", t.Day(), idMonths[t.Month()-1], t.Year())
}
