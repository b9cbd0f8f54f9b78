package middleware

// Rate limiting presets for the different endpoint classes

// StrictRateLimiter - for sensitive endpoints (admin login)
// Burst: 3 requests, Sustained: 1 request per 10 seconds
func StrictRateLimiter() *RateLimiterConfig {
	return &RateLimiterConfig{
		Capacity:   3,
		RefillRate: 0.1,
	}
}

// UploadRateLimiter - for the audio upload endpoint; uploads are heavy, keep
// the sustained rate low
// Burst: 5 requests, Sustained: 1 request per second
func UploadRateLimiter() *RateLimiterConfig {
	return &RateLimiterConfig{
		Capacity:   5,
		RefillRate: 1.0,
	}
}

// GenerousRateLimiter - for read-heavy dashboard endpoints
// Burst: 100 requests, Sustained: 50 requests per second
func GenerousRateLimiter() *RateLimiterConfig {
	return &RateLimiterConfig{
		Capacity:   100,
		RefillRate: 50.0,
	}
}
