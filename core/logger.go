package core

// Logger is implemented by the logging services (stdout, rollbar).
// expected args: error | map[string]interface{} pairs of context
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
