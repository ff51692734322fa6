package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"sync"
)

const redacted = "[REDACTED]"

type fieldRule int

const (
	keep fieldRule = iota
	drop
	pseudonymize
)

var (
	dropKeys         = []string{"token", "authorization", "password", "secret", "cookie", "api_key", "apikey", "email"}
	pseudonymizeKeys = []string{"user_id", "visit_id", "session_id"}
)

// redactor scrubs log fields. Learner ids are pseudonymized with a salted hash so one visit can
// still be followed across lines.
type redactor struct {
	enabled bool
	salt    string
}

var (
	envRedactorOnce sync.Once
	envRedactor     redactor
)

// fromEnv reads LOG_REDACTION_ENABLED (default on) and LOG_HASH_SALT once.
func fromEnv() redactor {
	envRedactorOnce.Do(func() {
		envRedactor = redactor{enabled: true, salt: strings.TrimSpace(os.Getenv("LOG_HASH_SALT"))}
		switch strings.ToLower(strings.TrimSpace(os.Getenv("LOG_REDACTION_ENABLED"))) {
		case "0", "false", "no", "off":
			envRedactor.enabled = false
		}
	})
	return envRedactor
}

func scrub(kv []interface{}) []interface{} { return fromEnv().fields(kv) }

func (r redactor) fields(kv []interface{}) []interface{} {
	if !r.enabled || len(kv) == 0 {
		return kv
	}
	out := make([]interface{}, len(kv))
	copy(out, kv)
	for i := 0; i+1 < len(out); i += 2 {
		out[i+1] = r.value(stringify(out[i]), out[i+1])
	}
	return out
}

func (r redactor) value(key string, val interface{}) interface{} {
	switch ruleFor(key) {
	case drop:
		return redacted
	case pseudonymize:
		return r.hash(val)
	}
	switch v := val.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, inner := range v {
			out[k] = r.value(k, inner)
		}
		return out
	case string:
		if looksLikeJWT(v) {
			return redacted
		}
	}
	return val
}

func ruleFor(key string) fieldRule {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return keep
	}
	for _, k := range dropKeys {
		if strings.Contains(key, k) {
			return drop
		}
	}
	for _, k := range pseudonymizeKeys {
		if strings.Contains(key, k) {
			return pseudonymize
		}
	}
	return keep
}

func (r redactor) hash(val interface{}) string {
	raw := stringify(val)
	if raw == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(r.salt + raw))
	return "hash:" + hex.EncodeToString(sum[:6])
}

func looksLikeJWT(s string) bool {
	parts := strings.Split(s, ".")
	return len(parts) == 3 && len(parts[0]) > 10 && len(parts[1]) > 10
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(v)
	}
}
