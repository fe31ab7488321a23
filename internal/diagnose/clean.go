package diagnose

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

//nolint:gochecknoglobals // immutable keyword list
var timeoutKeywords = []string{
	"timeout",
	"timed out",
	"exceeded",
	"délai",
	"dépassé",
	"wait_for",
	"waiting for",
	"attente",
}

// fold lowercases s and strips its diacritics so that "Délai" and "delai"
// compare equal.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), cases.Fold(), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return strings.ToLower(s)
	}
	return out
}

// IsTimeout reports whether an error message describes a timeout.
func IsTimeout(message string) bool {
	folded := fold(message)
	for _, kw := range timeoutKeywords {
		if strings.Contains(folded, fold(kw)) {
			return true
		}
	}
	return false
}

//nolint:gochecknoglobals // compiled once
var (
	callLogLine     = regexp.MustCompile(`Call log:.*`)
	callLogAll      = regexp.MustCompile(`(?s)Call log:.*$`)
	whitespaceRun   = regexp.MustCompile(`\s+`)
	waitForPrefix   = regexp.MustCompile(`Locator\.wait_for:`)
	waitForLeading  = regexp.MustCompile(`^Locator.wait_for:`)
	gotoPrefix      = regexp.MustCompile(`^Page\.goto:`)
	visibleExpected = regexp.MustCompile(`Locator expected to be visible`)
	actualValue     = regexp.MustCompile(`Actual value:`)
)

// CleanBase flattens a message onto one line and neutralizes characters
// that break the report comment.
func CleanBase(message string) string {
	r := strings.NewReplacer("\n", " ", "\r", " ", `\`, "/", `"`, "'")
	return strings.TrimSpace(r.Replace(message))
}

// CleanTimeout cleans and translates a timeout message.
func CleanTimeout(message string) string {
	m := CleanBase(message)
	m = waitForPrefix.ReplaceAllString(m, "Attente élément :")
	m = strings.ReplaceAll(m, "exceeded", "dépassé")
	m = strings.ReplaceAll(m, "to be visible", "visible")
	m = callLogLine.ReplaceAllString(m, "")
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(m, " "))
}

// CleanError cleans a non-timeout message according to the operation that
// raised it. url is the page being opened, used by navigation errors.
func CleanError(message, url string) string {
	switch {
	case strings.Contains(message, "Page.goto"):
		return cleanNavigation(message, url)
	case strings.Contains(message, "Locator.wait_for"):
		return cleanWait(message)
	case strings.Contains(message, "Locator expected to be visible"):
		return cleanVisibility(message)
	case strings.Contains(message, "APIRequestContext"):
		return cleanAPI(message)
	default:
		return CleanBase(message)
	}
}

// navigationErrors translates browser network error codes.
//
//nolint:gochecknoglobals // immutable lookup table
var navigationErrors = []struct {
	code        string
	translation string
}{
	{"NS_ERROR_PROXY_CONNECTION_REFUSED", "Connexion au proxy refusée"},
	{"NS_ERROR_UNKNOWN_PROXY_HOST", "Nom d'hôte du proxy introuvable"},
	{"NS_ERROR_CONNECTION_REFUSED", "Connexion au serveur refusée"},
	{"NS_ERROR_NET_TIMEOUT", "La connexion a expiré"},
	{"NS_ERROR_OFFLINE", "Mode hors-ligne activé"},
	{"NS_ERROR_NET_RESET", "Connexion établie, aucune donnée reçue"},
	{"NS_ERROR_NET_INTERRUPT", "Transfert interrompu"},
	{"NS_ERROR_DNS_LOOKUP_QUEUE_FULL", "File DNS pleine"},
	{"NS_ERROR_UNKNOWN_HOST", "Nom d'hôte introuvable"},
	{"NS_ERROR_REDIRECT_LOOP", "Boucle de redirection détectée"},
	{"NS_ERROR_NET_PARTIAL_TRANSFER", "Transfert partiel terminé"},
	{"NS_ERROR_NET_INADEQUATE_SECURITY", "Sécurité HTTP/2/TLS insuffisante"},
	{"NS_ERROR_NET_HTTP2_SENT_GOAWAY", "HTTP/2 GOAWAY reçu"},
	{"NS_ERROR_NET_HTTP3_PROTOCOL_ERROR", "Erreur protocole HTTP/3"},
	{"NS_ERROR_NET_TIMEOUT_EXTERNAL", "Timeout externe détecté"},
	{"NS_ERROR_HTTPS_ONLY", "Rejeté (mode HTTPS-only)"},
	{"NS_ERROR_WEBSOCKET_CONNECTION_REFUSED", "WebSocket refusé"},
	{"NS_ERROR_NON_LOCAL_CONNECTION_REFUSED", "Connexion locale interdite"},
	{"NS_ERROR_BAD_HSTS_CERT", "Certificat HSTS invalide"},
	{"NS_ERROR_PARSING_HTTP_STATUS_LINE", "Erreur ligne de statut HTTP"},
	{"NS_ERROR_SUPERFLUOS_AUTH", "Authentification superflue bloquée"},
	{"NS_ERROR_BASIC_HTTP_AUTH_DISABLED", "Auth basique HTTP désactivée"},
	{"NS_ERROR_LOCAL_NETWORK_ACCESS_DENIED", "Accès réseau local refusé"},
	{"NS_ERROR_SOCKET_CREATE_FAILED", "Échec création socket"},
	{"NS_ERROR_UNKNOWN_PROTOCOL", "Protocole URI inconnu"},
	{"NS_ERROR_MALFORMED_URI", "URI mal formée"},
	{"NS_ERROR_IN_PROGRESS", "Opération déjà en cours"},
	{"NS_ERROR_PORT_ACCESS_NOT_ALLOWED", "Port non autorisé"},
	{"SSL_ERROR_UNKNOWN", "Echec de connexion sécurisée"},
}

//nolint:gochecknoglobals // compiled once from navigationErrors
var navigationPatterns = func() []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(navigationErrors))
	for i, e := range navigationErrors {
		out[i] = regexp.MustCompile(`\b` + e.code + `\b`)
	}
	return out
}()

func cleanNavigation(message, url string) string {
	m := gotoPrefix.ReplaceAllLiteralString(message, "Ouverture "+url+" : ")
	m = callLogAll.ReplaceAllString(m, "")
	for i, re := range navigationPatterns {
		m = re.ReplaceAllLiteralString(m, navigationErrors[i].translation)
	}
	return strings.TrimSpace(m)
}

func cleanWait(message string) string {
	m := waitForLeading.ReplaceAllString(message, "Attente élément :")
	m = strings.ReplaceAll(m, "exceeded", "dépassé")
	m = strings.ReplaceAll(m, "to be visible", "visible")
	m = callLogLine.ReplaceAllString(m, "")
	return strings.TrimSpace(m)
}

func cleanVisibility(message string) string {
	m := visibleExpected.ReplaceAllString(message, "Élément attendu visible")
	m = actualValue.ReplaceAllString(m, "Valeur obtenue :")
	m = callLogLine.ReplaceAllString(m, "")
	return strings.TrimSpace(m)
}

func cleanAPI(message string) string {
	if !strings.Contains(message, "403 Forbidden") {
		return "Erreur lors de l'appele API - Inconnue"
	}
	if strings.Contains(message, "Invalid credentials") {
		return "Erreur HTTP : 403 - Identifiants invalides"
	}
	return "Erreur HTTP : 403 - Inconnue"
}
