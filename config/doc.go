// Package config loads engine configuration from YAML files and the
// environment.
//
// Loading order: config.yml (base), then a .env file, then process
// environment variables; later sources win. The loaded struct is validated
// after defaults are applied:
//
//	cfg, err := config.Load("wirekit")
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
