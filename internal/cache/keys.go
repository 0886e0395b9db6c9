package cache

// KeyObserverState is where a storefront session persists its observer state.
func KeyObserverState(prefix, session string) string {
	if prefix == "" {
		prefix = "roller"
	}
	return prefix + ":state:" + session
}

// KeyPricingConfig holds the rendered pricing configuration payload.
func KeyPricingConfig(prefix, version string) string {
	if prefix == "" {
		prefix = "roller"
	}
	return prefix + ":pricing:config:" + version
}
