package config

// Validatable is a config section with defaults and checks.
type Validatable interface {
	ApplyDefaults()
	Validate() error
}

// Load reads configuration for serviceName into a new T, applies its
// defaults and validates it.
func Load[T any, PT interface {
	*T
	Validatable
}](serviceName string, opts ...LoaderOption) (*T, error) {
	cfg := new(T)
	if err := LoadConfig(serviceName, cfg, opts...); err != nil {
		return nil, err
	}
	PT(cfg).ApplyDefaults()
	if err := PT(cfg).Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
