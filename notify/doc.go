// Package notify turns lanes lifecycle events into outbound webhooks.
//
// The [Extension] listens to manager hooks and, for each enabled event,
// enqueues a [handlers.WebhookType] job addressed to a single endpoint.
// Delivery therefore inherits the queue's retry, backoff and dead-letter
// behaviour, and every request is signed by the webhook handler.
//
//	m, _ := engine.New(store)
//	engine.Register(m, handlers.NewWebhook(secret).Definition())
//	m.Extensions().Register(notify.New(m, "https://example.com/hooks",
//	    notify.WithEvents(notify.EventJobDead, notify.EventWorkerLost),
//	))
//
// Events about webhook.deliver jobs themselves are never forwarded.
package notify
