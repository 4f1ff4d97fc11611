package service

import (
	"golang.org/x/text/language"
)

// DefaultChallengeLanguage is used when the caller sends no language.
const DefaultChallengeLanguage = "en-GB"

// Keys of the strings shown around an app native challenge.
const (
	DisplayChallengePageHeader            = "challengePageHeader"
	DisplayBackButtonLabel                = "backButtonLabel"
	DisplayBackButtonAccessibilityLabel   = "backButtonAccessibilityLabel"
	DisplayCancelButtonLabel              = "cancelButtonLabel"
	DisplayCancelButtonAccessibilityLabel = "cancelButtonAccessibilityLabel"
	DisplayOrderingAccessibilityLabel     = "orderingAccessibilityLabel"
	DisplayBankLogoAccessibilityLabel     = "bankLogoAccessibilityLabel"
	DisplayCardLogoAccessibilityLabel     = "cardLogoAccessibilityLabel"
)

var challengeCatalog = map[language.Tag]map[string]string{
	language.BritishEnglish: {
		DisplayChallengePageHeader:            "Secure Checkout",
		DisplayBackButtonLabel:                "Back",
		DisplayBackButtonAccessibilityLabel:   "Press to go back",
		DisplayCancelButtonLabel:              "Cancel",
		DisplayCancelButtonAccessibilityLabel: "Press to cancel",
		DisplayOrderingAccessibilityLabel:     "of",
		DisplayBankLogoAccessibilityLabel:     "Bank Logo",
		DisplayCardLogoAccessibilityLabel:     "Card Logo",
	},
	language.German: {
		DisplayChallengePageHeader:            "Sicherer Bezahlvorgang",
		DisplayBackButtonLabel:                "Zurück",
		DisplayBackButtonAccessibilityLabel:   "Drücken, um zurückzugehen",
		DisplayCancelButtonLabel:              "Abbrechen",
		DisplayCancelButtonAccessibilityLabel: "Drücken, um abzubrechen",
		DisplayOrderingAccessibilityLabel:     "von",
		DisplayBankLogoAccessibilityLabel:     "Banklogo",
		DisplayCardLogoAccessibilityLabel:     "Kartenlogo",
	},
	language.French: {
		DisplayChallengePageHeader:            "Paiement sécurisé",
		DisplayBackButtonLabel:                "Retour",
		DisplayBackButtonAccessibilityLabel:   "Appuyez pour revenir",
		DisplayCancelButtonLabel:              "Annuler",
		DisplayCancelButtonAccessibilityLabel: "Appuyez pour annuler",
		DisplayOrderingAccessibilityLabel:     "sur",
		DisplayBankLogoAccessibilityLabel:     "Logo de la banque",
		DisplayCardLogoAccessibilityLabel:     "Logo de la carte",
	},
	language.Spanish: {
		DisplayChallengePageHeader:            "Pago seguro",
		DisplayBackButtonLabel:                "Atrás",
		DisplayBackButtonAccessibilityLabel:   "Pulse para volver",
		DisplayCancelButtonLabel:              "Cancelar",
		DisplayCancelButtonAccessibilityLabel: "Pulse para cancelar",
		DisplayOrderingAccessibilityLabel:     "de",
		DisplayBankLogoAccessibilityLabel:     "Logotipo del banco",
		DisplayCardLogoAccessibilityLabel:     "Logotipo de la tarjeta",
	},
}

// Localizer resolves the display strings of an app native challenge.
type Localizer struct {
	tags    []language.Tag
	matcher language.Matcher
}

// NewLocalizer creates a Localizer over the built-in catalog. The first
// supported tag is the fallback.
func NewLocalizer() *Localizer {
	tags := []language.Tag{language.BritishEnglish, language.German, language.French, language.Spanish}
	return &Localizer{
		tags:    tags,
		matcher: language.NewMatcher(tags),
	}
}

// ChallengeStrings returns a copy of the strings for the best match of lang.
func (l *Localizer) ChallengeStrings(lang string) map[string]string {
	if lang == "" {
		lang = DefaultChallengeLanguage
	}
	_, index, _ := l.matcher.Match(language.Make(lang))
	src := challengeCatalog[l.tags[index]]

	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
