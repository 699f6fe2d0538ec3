package usecase

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/jhoicas/agencia-leads-api/internal/domain/entity"
	"github.com/jhoicas/agencia-leads-api/pkg/sanitize"
)

// socialHosts dominio del referrer -> nombre de la red.
var socialHosts = []struct {
	suffix  string
	network string
}{
	{"facebook.com", "facebook"},
	{"fb.com", "facebook"},
	{"instagram.com", "instagram"},
	{"linkedin.com", "linkedin"},
	{"lnkd.in", "linkedin"},
	{"twitter.com", "twitter"},
	{"x.com", "twitter"},
	{"t.co", "twitter"},
	{"tiktok.com", "tiktok"},
	{"youtube.com", "youtube"},
	{"youtu.be", "youtube"},
	{"pinterest.com", "pinterest"},
	{"reddit.com", "reddit"},
}

var mobileUA = regexp.MustCompile(`(?i)android|iphone|ipad|ipod|mobile|blackberry|iemobile|opera mini|windows phone`)

// InferSource canal de adquisición: el campo explícito si viene; si no, red social del
// referrer, "mobile" para user-agents móviles y "website" en el resto de casos.
func InferSource(explicit, referrer, userAgent string) string {
	if s := strings.ToLower(sanitize.Text(explicit)); s != "" {
		return s
	}
	if network := socialNetwork(referrer); network != "" {
		return network
	}
	if mobileUA.MatchString(userAgent) {
		return entity.SourceMobile
	}
	return entity.SourceWebsite
}

func socialNetwork(referrer string) string {
	referrer = strings.TrimSpace(referrer)
	if referrer == "" {
		return ""
	}
	u, err := url.Parse(referrer)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	for _, s := range socialHosts {
		if host == s.suffix || strings.HasSuffix(host, "."+s.suffix) {
			return s.network
		}
	}
	return ""
}
