// Package handlers provides ready-made job handlers for common side
// effects: signed webhook delivery (webhook.deliver) and SMTP email
// (email.send).
//
// Each handler exposes a typed job.Definition:
//
//	wh := handlers.NewWebhook(secret)
//	engine.Register(m, wh.Definition())
//	engine.Enqueue(ctx, m, wh.Definition(), handlers.WebhookPayload{URL: u, Body: body})
package handlers
