package relation

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// HumanizeKind turns an entity kind identifier into a display label:
// "NetworkPort" -> "Network Port", "Item_DeviceHardDrive" -> "Item Device Hard Drive".
func HumanizeKind(kind string) string {
	return titleCaser.String(strings.Join(splitIdentifier(kind), " "))
}

// HumanizeField turns a field identifier into a display label:
// "serial_number" -> "Serial Number".
func HumanizeField(field string) string {
	return titleCaser.String(strings.Join(splitIdentifier(field), " "))
}

// splitIdentifier breaks an identifier on underscores and camel-case
// boundaries, lowercasing every word. Acronym runs stay together:
// "IPAddress" -> ["ip", "address"].
func splitIdentifier(s string) []string {
	var words []string
	for _, segment := range strings.Split(s, "_") {
		runes := []rune(segment)
		var word []rune
		for i, r := range runes {
			boundary := false
			if i > 0 && unicode.IsUpper(r) {
				prevLower := !unicode.IsUpper(runes[i-1])
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				boundary = prevLower || nextLower
			}
			if boundary && len(word) > 0 {
				words = append(words, strings.ToLower(string(word)))
				word = word[:0]
			}
			word = append(word, r)
		}
		if len(word) > 0 {
			words = append(words, strings.ToLower(string(word)))
		}
	}
	return words
}
