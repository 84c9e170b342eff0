package logging

import "context"

type debugModeKey struct{}

// EnableDebugMode marks ctx so that C-prefixed log calls made with it are written at any
// logger level. An empty name is replaced with "debug".
func EnableDebugMode(ctx context.Context, name string) context.Context {
	if name == "" {
		name = "debug"
	}
	return context.WithValue(ctx, debugModeKey{}, name)
}

// IsDebugMode reports whether ctx was marked by EnableDebugMode.
func IsDebugMode(ctx context.Context) bool {
	return debugModeName(ctx) != ""
}

func debugModeName(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	name, _ := ctx.Value(debugModeKey{}).(string)
	return name
}
