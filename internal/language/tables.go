// Package language classifies free text into a coarse language tag using
// lexical heuristics. It is intentionally a rule table, not a trained
// classifier; false positives and negatives on short or mixed text are an
// accepted limitation.
package language

// profile is the per-language signal table the detector scores against.
// Keeping it as data means tuning never touches the detector itself.
type profile struct {
	Tag        string
	Diacritics []rune
	Words      []string
}

// matchThreshold is the minimum combined diacritic+word count a language must
// strictly exceed before it beats the English default.
const matchThreshold = 3

var profiles = []profile{
	{
		Tag:        "de",
		Diacritics: []rune("äöüßÄÖÜ"),
		Words: []string{
			"und", "der", "die", "das", "ist", "ein", "eine", "nicht",
			"mit", "für", "auf", "wir", "sie", "ich", "werden", "oder",
			"auch", "bei", "nach", "über",
		},
	},
	{
		Tag:        "fr",
		Diacritics: []rune("éèêëàâçîïôûùÉÈÊ"),
		Words: []string{
			"le", "la", "les", "et", "est", "une", "des", "pas",
			"pour", "avec", "vous", "nous", "dans", "sur", "que", "qui",
			"sont", "être", "aux", "votre",
		},
	},
	{
		Tag:        "es",
		Diacritics: []rune("áéíóúñ¿¡ÁÉÍÓÚÑ"),
		Words: []string{
			"el", "la", "los", "las", "es", "una", "del", "con",
			"para", "por", "que", "como", "más", "pero", "sus", "está",
			"son", "este", "nosotros", "trabajo",
		},
	},
}
