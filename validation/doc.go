// Package validation checks configuration values.
//
// Struct tag validation uses the validator library; field names in messages
// follow the mapstructure keys so they match the configuration file:
//
//	type Config struct {
//	    BaseURL string `mapstructure:"base_url" validate:"omitempty,url"`
//	}
//	err := validation.Validate(cfg)
//
// Rules that tags cannot express are collected programmatically:
//
//	v := validation.New()
//	v.Required("name", cfg.Name)
//	err := v.Validate()
//
// Both return an *errors.AppError with code INVALID_CONFIG.
package validation
