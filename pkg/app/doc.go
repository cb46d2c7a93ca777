// Package app wires a validated config.Config into a ready auth.Service.
//
// It opens the selected account store (memory, PostgreSQL or MongoDB), the locker
// (in-process or Redis) and the email sender, and keeps their health checks and
// close functions.
//
//	cfg, err := config.Initialize()
//	if err != nil {
//	    return err
//	}
//	a, err := app.New(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer a.Close(context.Background())
package app
