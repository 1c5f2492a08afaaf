// Package uikit wires the definition registry, the action server and the
// value providers into an HTTP application.
//
//	cfg, err := config.Load[uikit.Config](config.WithOptionalEnvFiles(".env"))
//	app, err := uikit.New(cfg, uikit.WithLogger(log))
//	err = demo.Register(app.Registry())
//	err = app.Serve(ctx)
//
// Routes:
//
//	POST /aura/actions                action message in, action results out
//	GET  /aura/browser                $Browser data of the caller or of ?ua=
//	GET  /aura/controllers            registered controllers and their actions
//	GET  /aura/components/{ns}/{name} rendered component, HTML or DataStar patch
//	GET  /metrics                     Prometheus metrics
//	GET  /health/live, /health/ready  probes
package uikit
