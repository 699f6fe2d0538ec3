// Package sanitize neutraliza texto libre recibido desde formularios públicos.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	// Bloques <script>/<style> completos, incluido su contenido.
	scriptBlockRe = regexp.MustCompile(`(?is)<\s*(script|style)[^>]*>.*?<\s*/\s*(script|style)\s*>`)
	// Cualquier etiqueta HTML restante.
	tagRe = regexp.MustCompile(`(?s)<[^>]*>`)
	// Manejadores de eventos tipo onclick=, onerror = ...
	eventHandlerRe = regexp.MustCompile(`(?i)\bon[a-z]+\s*=`)
	// Protocolos peligrosos en enlaces.
	protocolRe = regexp.MustCompile(`(?i)\b(javascript|vbscript|data)\s*:`)
	// Expresiones CSS antiguas de IE.
	expressionRe = regexp.MustCompile(`(?i)expression\s*\(`)
)

// Text limpia un valor de texto libre: elimina etiquetas y bloques de script, neutraliza
// manejadores de eventos y protocolos ejecutables, y quita los caracteres con significado HTML.
func Text(s string) string {
	if s == "" {
		return s
	}
	s = scriptBlockRe.ReplaceAllString(s, "")
	s = tagRe.ReplaceAllString(s, "")
	s = eventHandlerRe.ReplaceAllString(s, "")
	s = protocolRe.ReplaceAllString(s, "")
	s = expressionRe.ReplaceAllString(s, "")
	s = strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', '"', '\'', '`':
			return -1
		case '\x00':
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}

// Map aplica Text a todos los valores string de un mapa (metadatos libres).
func Map(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		switch val := v.(type) {
		case string:
			out[Text(k)] = Text(val)
		case map[string]any:
			out[Text(k)] = Map(val)
		default:
			out[Text(k)] = v
		}
	}
	return out
}
