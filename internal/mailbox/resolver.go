package mailbox

import "strings"

// Common IMAP servers for popular email providers
var knownServers = map[string]string{
	"gmail.com":      "imap.gmail.com:993",
	"googlemail.com": "imap.gmail.com:993",
	"outlook.com":    "outlook.office365.com:993",
	"hotmail.com":    "outlook.office365.com:993",
	"live.com":       "outlook.office365.com:993",
	"msn.com":        "outlook.office365.com:993",
	"yahoo.com":      "imap.mail.yahoo.com:993",
	"yahoo.co.uk":    "imap.mail.yahoo.com:993",
	"yandex.ru":      "imap.yandex.ru:993",
	"yandex.com":     "imap.yandex.com:993",
	"mail.ru":        "imap.mail.ru:993",
	"icloud.com":     "imap.mail.me.com:993",
	"me.com":         "imap.mail.me.com:993",
	"aol.com":        "imap.aol.com:993",
	"zoho.com":       "imap.zoho.com:993",
	"fastmail.com":   "imap.fastmail.com:993",
	"gmx.com":        "imap.gmx.com:993",
	"gmx.de":         "imap.gmx.net:993",
	"web.de":         "imap.web.de:993",
}

// ResolveServer determines the IMAP server for an email address. Unknown
// domains fall back to the imap.<domain>:993 convention.
func ResolveServer(address string) string {
	parts := strings.Split(address, "@")
	if len(parts) != 2 || parts[1] == "" {
		return "imap.gmail.com:993"
	}

	domain := strings.ToLower(parts[1])
	if server, ok := knownServers[domain]; ok {
		return server
	}
	return "imap." + domain + ":993"
}
