// Package i18n translates user-visible strings. Message keys are the English
// texts; other languages are registered in the catalog below.
package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Translator formats a message key for the configured language.
type Translator interface {
	T(key string, args ...any) string
}

// Printer is a Translator backed by an x/text message printer.
type Printer struct {
	p *message.Printer
}

var _ Translator = (*Printer)(nil)

var supported = []language.Tag{language.English, language.German}

// New returns a Printer for lang ("en", "de", ...). Unsupported languages fall
// back to English.
func New(lang string) *Printer {
	tag, _ := language.Parse(lang)
	matched, _, _ := language.NewMatcher(supported).Match(tag)
	base, _ := matched.Base()
	return &Printer{p: message.NewPrinter(language.Make(base.String()), message.Catalog(cat))}
}

// T formats key with args like fmt.Sprintf after translation.
func (p *Printer) T(key string, args ...any) string {
	return p.p.Sprintf(key, args...)
}

var cat = newCatalog()

func newCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for _, kv := range german {
		_ = b.SetString(language.German, kv[0], kv[1])
	}
	return b
}

var german = [][2]string{
	// environment
	{"Mailer module is not available - unable to send emails!", "Das Mailer-Modul ist nicht verfügbar - es können keine E-Mails versendet werden!"},
	{"There are no image function available - Captchas have been disabled.", "Es sind keine Bildfunktionen verfügbar - Captchas wurden deaktiviert."},
	{"Formicula cache directory does not exist or is not writable - Captchas have been disabled.", "Das Formicula-Cacheverzeichnis existiert nicht oder ist nicht beschreibbar - Captchas wurden deaktiviert."},
	{"Formicula cache directory does not contain the required .htaccess file - Captchas have been disabled.", "Das Formicula-Cacheverzeichnis enthält nicht die benötigte .htaccess-Datei - Captchas wurden deaktiviert."},

	// installer
	{"Webmaster", "Webmaster"},
	{"Your mail to %s", "Ihre Mail an %s"},
	{"Successfully created the cache directory with a .htaccess file in it.", "Das Cacheverzeichnis wurde mit einer .htaccess-Datei erfolgreich angelegt."},
	{"Could not create the cache directory %s. Please create it manually.", "Das Cacheverzeichnis %s konnte nicht angelegt werden. Bitte legen Sie es manuell an."},
	{"Could not create the .htaccess file in %s. Please create it manually.", "Die .htaccess-Datei in %s konnte nicht angelegt werden. Bitte legen Sie sie manuell an."},
	{"An error occurred while removing the cache directory at %s.", "Beim Entfernen des Cacheverzeichnisses %s ist ein Fehler aufgetreten."},
	{"Database error: %s", "Datenbankfehler: %s"},

	// config
	{"Form #%d containing %d templates", "Formular #%d mit %d Vorlagen"},
	{"The webserver cannot write into this directory!", "Der Webserver kann nicht in dieses Verzeichnis schreiben!"},
	{"Done! Module configuration updated.", "Fertig! Modulkonfiguration aktualisiert."},
	{"Operation cancelled.", "Vorgang abgebrochen."},
	{"The captcha image cache has been cleared.", "Der Captcha-Bildercache wurde geleert."},
	{"Some captcha images could not be removed.", "Einige Captcha-Bilder konnten nicht entfernt werden."},

	// submissions
	{"Form submission could not be found.", "Die Formulareinsendung wurde nicht gefunden."},
	{"Form submission has been deleted.", "Die Formulareinsendung wurde gelöscht."},
	{"Invalid security token.", "Ungültiges Sicherheitstoken."},

	// contacts
	{"Contact could not be found.", "Der Kontakt wurde nicht gefunden."},
	{"Contact has been saved.", "Der Kontakt wurde gespeichert."},
	{"Contact has been deleted.", "Der Kontakt wurde gelöscht."},

	// visitor form
	{"Please enter your name.", "Bitte geben Sie Ihren Namen ein."},
	{"Please enter a valid email address.", "Bitte geben Sie eine gültige E-Mail-Adresse ein."},
	{"Please select a contact.", "Bitte wählen Sie einen Kontakt aus."},
	{"The calculation is not correct.", "Das Rechenergebnis ist nicht korrekt."},
	{"The attachment could not be stored.", "Der Anhang konnte nicht gespeichert werden."},
	{"Your message could not be sent.", "Ihre Nachricht konnte nicht gesendet werden."},
	{"Thank you, your message has been sent.", "Vielen Dank, Ihre Nachricht wurde gesendet."},
	{"Form submission from %s", "Formulareinsendung von %s"},
	{"Too many submissions, please try again later.", "Zu viele Einsendungen, bitte versuchen Sie es später erneut."},

	// links
	{"View contacts", "Kontakte anzeigen"},
	{"Add contact", "Kontakt hinzufügen"},
	{"View submissions", "Einsendungen anzeigen"},
	{"Settings", "Einstellungen"},
	{"Clear captcha image cache", "Captcha-Bildercache leeren"},

	// auth
	{"Invalid email or password.", "Ungültige E-Mail-Adresse oder ungültiges Passwort."},
	{"Access denied.", "Zugriff verweigert."},

	// errors
	{"An error occurred.", "Ein Fehler ist aufgetreten."},
	{"Invalid request.", "Ungültige Anfrage."},
}
