package originallyappeared

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys looked up in the translation catalog.
const (
	msgBoxTitle      = "Canonical Link"
	msgSiteName      = "External Site Name"
	msgSiteURL       = "External Site Url"
	msgNoIndex       = "Don't Index"
	msgCustomMessage = "Custom Message"
)

// builtinTranslations ships with the plugin; WithTranslations adds to it.
var builtinTranslations = map[language.Tag]map[string]string{
	language.Spanish: {
		msgBoxTitle:      "Enlace canónico",
		msgSiteName:      "Nombre del sitio externo",
		msgSiteURL:       "URL del sitio externo",
		msgNoIndex:       "No indexar",
		msgCustomMessage: "Mensaje personalizado",
		DefaultTemplate:  `Esta entrada apareció originalmente en <a href="[SITE_URL]">[NAME]</a>.`,
	},
	language.German: {
		msgBoxTitle:      "Kanonischer Link",
		msgSiteName:      "Name der externen Website",
		msgSiteURL:       "URL der externen Website",
		msgNoIndex:       "Nicht indexieren",
		msgCustomMessage: "Eigene Nachricht",
		DefaultTemplate:  `Dieser Beitrag erschien ursprünglich auf <a href="[SITE_URL]">[NAME]</a>.`,
	},
}

type translator struct {
	printer *message.Printer
}

func newTranslator(tag language.Tag, extra map[language.Tag]map[string]string) (*translator, error) {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for _, set := range []map[language.Tag]map[string]string{builtinTranslations, extra} {
		for lang, msgs := range set {
			for key, msg := range msgs {
				if err := b.SetString(lang, key, literal(msg)); err != nil {
					return nil, err
				}
			}
		}
	}
	return &translator{printer: message.NewPrinter(tag, message.Catalog(b))}, nil
}

// T returns the translation of key, or key itself when none exists.
func (t *translator) T(key string) string {
	return t.printer.Sprintf(message.Key(key, literal(key)))
}

// literal escapes verbs so catalog text is printed as written.
func literal(s string) string {
	return strings.ReplaceAll(s, "%", "%%")
}
