package admit

// Option configures a Controller.
type Option func(*Controller)

// WithMinSecondsPerPoint sets the fastest pace the temporal check assumes.
func WithMinSecondsPerPoint(s float64) Option {
	return func(c *Controller) {
		c.minSecondsPerPoint = s
	}
}

// WithScoreBuffer sets the slack added to the temporal ceiling.
func WithScoreBuffer(n int) Option {
	return func(c *Controller) {
		c.scoreBuffer = n
	}
}

// WithInputRatio sets the minimum flaps-per-point ratio.
func WithInputRatio(r float64) Option {
	return func(c *Controller) {
		c.inputRatio = r
	}
}

// WithMaxIdleSeconds sets the longest permitted gap between inputs.
func WithMaxIdleSeconds(s float64) Option {
	return func(c *Controller) {
		c.maxIdleSeconds = s
	}
}

// WithScrutinyThreshold sets the score above which temporal and activity
// checks apply.
func WithScrutinyThreshold(n int) Option {
	return func(c *Controller) {
		c.scrutinyThreshold = n
	}
}
