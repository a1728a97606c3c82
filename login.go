package main

import (
	"errors"
	"fmt"
)

// logIn signs into the portal on the shared page and blocks until the
// post-login form is present.
func logIn(config *Config, page Page, log *Logger) error {
	log.Info(T("login_opening", config.BaseURL))

	if err := page.Navigate(config.BaseURL); err != nil {
		return err
	}

	sel := config.Selectors
	timeout := config.DefaultTimeout()

	if err := page.Fill(sel.Username, config.Username, timeout); err != nil {
		return fmt.Errorf("failed to fill username: %w", err)
	}
	if err := page.Fill(sel.Password, config.Password, timeout); err != nil {
		return fmt.Errorf("failed to fill password: %w", err)
	}
	if err := page.Click(sel.LoginButton, timeout); err != nil {
		return fmt.Errorf("failed to click login: %w", err)
	}

	if err := page.WaitFor(sel.PostLogin, timeout); err != nil {
		if errors.Is(err, ErrElementTimeout) {
			return fmt.Errorf("%w: post-login page did not appear within %v", ErrNavigationTimeout, timeout)
		}
		return err
	}

	log.Info(T("login_success", config.Username))
	return nil
}
