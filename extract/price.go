package extract

import "strings"

// Persian and Arabic-Indic digits mapped to ASCII. Storefront prices mix
// both with ASCII depending on the rendering path.
var digitFold = strings.NewReplacer(
	"۰", "0", "۱", "1", "۲", "2", "۳", "3", "۴", "4",
	"۵", "5", "۶", "6", "۷", "7", "۸", "8", "۹", "9",
	"٠", "0", "١", "1", "٢", "2", "٣", "3", "٤", "4",
	"٥", "5", "٦", "6", "٧", "7", "٨", "8", "٩", "9",
)

// parsePrice extracts the first number from a price label, tolerating
// localized digits, thousand separators, and currency words. Returns
// false when the text carries no digits.
func parsePrice(s string) (int64, bool) {
	s = digitFold.Replace(s)
	var (
		n     int64
		seen  bool
		runes = []rune(s)
	)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r >= '0' && r <= '9':
			n = n*10 + int64(r-'0')
			seen = true
		case seen && (r == ',' || r == '٬' || r == '،' || r == '.'):
			// separator inside a number run, keep going
		case seen:
			return n, true
		}
	}
	return n, seen
}

// parseDiscount extracts a percentage from a discount badge such as
// "۲۰٪ تخفیف" or "20% off". Returns zero when no percentage is present.
func parseDiscount(s string) float64 {
	s = digitFold.Replace(s)
	if !strings.ContainsAny(s, "%٪") {
		return 0
	}
	n, ok := parsePrice(s)
	if !ok || n > 100 {
		return 0
	}
	return float64(n)
}
