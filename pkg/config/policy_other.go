//go:build !windows

package config

import "errors"

func loadPolicy(cfg *Configuration) error {
	return errors.New("registry policy is only available on Windows")
}
