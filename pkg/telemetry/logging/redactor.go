package logging

import (
	"strings"

	"go.uber.org/zap"
)

// RedactKey masks a credential, keeping a short prefix for identification.
//
//	RedactKey("sk-abc123xyz") // "sk-a***"
func RedactKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return "***"
	}
	return key[:4] + "***"
}

// Secret returns a zap field whose value is masked with RedactKey.
func Secret(name, value string) zap.Field {
	return zap.String(name, RedactKey(value))
}

// RedactHeaders returns a copy of headers with credential-bearing values masked.
func RedactHeaders(headers map[string]string) map[string]string {
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		switch strings.ToLower(k) {
		case "authorization":
			if token, ok := strings.CutPrefix(v, "Bearer "); ok {
				out[k] = "Bearer " + RedactKey(token)
				continue
			}
			out[k] = RedactKey(v)
		case "x-api-key", "api-key":
			out[k] = RedactKey(v)
		default:
			out[k] = v
		}
	}
	return out
}
