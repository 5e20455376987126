package period

import "fmt"

var monthNames = map[string][12]string{
	"en": {"January", "February", "March", "April", "May", "June", "July", "August", "September", "October", "November", "December"},
	"it": {"Gennaio", "Febbraio", "Marzo", "Aprile", "Maggio", "Giugno", "Luglio", "Agosto", "Settembre", "Ottobre", "Novembre", "Dicembre"},
	"es": {"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio", "Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre"},
	"fr": {"Janvier", "Février", "Mars", "Avril", "Mai", "Juin", "Juillet", "Août", "Septembre", "Octobre", "Novembre", "Décembre"},
	"de": {"Januar", "Februar", "März", "April", "Mai", "Juni", "Juli", "August", "September", "Oktober", "November", "Dezember"},
}

// Languages reports the language codes Label knows.
func Languages() []string {
	return []string{"en", "it", "es", "fr", "de"}
}

// SupportsLanguage reports whether lang has localized month names.
func SupportsLanguage(lang string) bool {
	_, ok := monthNames[lang]
	return ok
}

// Label renders a key as "<Month> <Year>" in the given language, falling back
// to English. Presentation only.
func Label(key, lang string) (string, error) {
	if err := Validate(key); err != nil {
		return "", err
	}
	y, m, _ := Parse(key)
	names, ok := monthNames[lang]
	if !ok {
		names = monthNames["en"]
	}
	return fmt.Sprintf("%s %d", names[m-1], y), nil
}
