package metrics

import (
	"context"
)

// RecordEvent records a custom event with a set of key-value attributes
func RecordEvent(ctx context.Context, eventName string, kvPairs map[string]interface{}) {
	if app, ok := applicationFromContext(ctx); ok {
		app.RecordCustomEvent(eventName, kvPairs)
	}
}
