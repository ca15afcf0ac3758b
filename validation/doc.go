// Package validation checks configuration structs against their
// `validate` struct tags using go-playground/validator.
//
//	type ServerConfig struct {
//	    Port int `mapstructure:"port" validate:"gte=0,lte=65535"`
//	}
//	if err := validation.Struct(cfg); err != nil {
//	    // err is a *validation.Error naming "port"
//	}
package validation
