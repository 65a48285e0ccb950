package scraper

import (
	"strings"
	"unicode"
)

// genericGarmentWords are product-type words that show up as the first word
// of a listing name but never identify a brand.
var genericGarmentWords = map[string]bool{
	"robe": true, "jean": true, "jeans": true, "veste": true, "pull": true,
	"chemise": true, "jupe": true, "pantalon": true, "short": true,
	"sweat": true, "manteau": true, "blouson": true, "tee": true,
	"t-shirt": true, "tshirt": true, "top": true, "dress": true,
	"jacket": true, "coat": true, "shirt": true, "skirt": true,
	"trousers": true, "hoodie": true, "sweater": true, "cardigan": true,
	"blazer": true, "shorts": true, "leggings": true, "bodysuit": true,
}

// InferBrand guesses a brand from the first word of a product name when the
// source did not provide one. Generic garment-type words, numeric tokens and
// 1-2 letter tokens are rejected; the empty string means no usable guess.
func InferBrand(name string) string {
	fields := strings.Fields(strings.TrimSpace(name))
	if len(fields) == 0 {
		return ""
	}

	candidate := strings.Trim(fields[0], ".,;:!-")
	if len([]rune(candidate)) <= 2 {
		return ""
	}
	if genericGarmentWords[strings.ToLower(candidate)] {
		return ""
	}
	if isNumericToken(candidate) {
		return ""
	}
	return candidate
}

func isNumericToken(token string) bool {
	for _, r := range token {
		if !unicode.IsDigit(r) && r != '.' && r != ',' {
			return false
		}
	}
	return len(token) > 0
}
