package logger

import "strings"

// redactors rewrite values of keys that may carry subscriber data.
var redactors = map[string]func(string) string{
	"phone": MaskPhone,
	"code":  maskAll,
	"text":  maskAll,
}

// MaskPhone keeps the first three and last two digits of a phone number.
func MaskPhone(s string) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= 5 {
		return maskAll(string(r))
	}
	return string(r[:3]) + strings.Repeat("*", len(r)-5) + string(r[len(r)-2:])
}

func maskAll(s string) string {
	if s == "" {
		return s
	}
	return "***"
}

func redactFields(fields map[string]any) {
	for key, fn := range redactors {
		if v, ok := fields[key].(string); ok {
			fields[key] = fn(v)
		}
	}
}
