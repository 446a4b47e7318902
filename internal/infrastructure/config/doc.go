// Package config loads and validates fodhald configuration.
//
// Configuration is read from a YAML file (default configs/config.yaml),
// then overridden by FODHALD_* environment variables, then validated.
//
// The device section carries the two sysfs control paths the daemon
// writes to (touch-panel command file, backlight brightness file) and
// the bootloader identifier source used to resolve the device profile.
//
// # Usage
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    return err
//	}
//	controller := fod.NewController(fod.Options{
//	    TSPCmdPath:     cfg.Device.TSPCmdPath,
//	    BrightnessPath: cfg.Device.BrightnessPath,
//	    ...
//	})
package config
